package mailer

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"

	"openlang/backend/internal/domain"
)

// Content 描述一封邮件的结构化内容，渲染为纯文本与 HTML 两种形式
type Content struct {
	Subject    string
	Heading    string
	Greeting   string
	Paragraphs []string
	Details    []domain.Detail
	Footer     string
}

const htmlLayout = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:0;background:#f5f5f4;font-family:Helvetica,Arial,sans-serif;color:#1c1917;">
  <table width="100%" cellpadding="0" cellspacing="0" style="max-width:600px;margin:0 auto;background:#ffffff;">
    <tr><td style="padding:32px 32px 8px;">
      <h1 style="font-size:22px;margin:0 0 16px;">{{.Heading}}</h1>
      {{- if .Greeting}}
      <p style="font-size:15px;line-height:1.6;">{{.Greeting}}</p>
      {{- end}}
      {{- range .Paragraphs}}
      <p style="font-size:15px;line-height:1.6;">{{.}}</p>
      {{- end}}
    </td></tr>
    {{- if .Details}}
    <tr><td style="padding:8px 32px;">
      <table width="100%" cellpadding="6" cellspacing="0" style="border-collapse:collapse;font-size:14px;">
        {{- range .Details}}
        <tr>
          <td style="border-bottom:1px solid #e7e5e4;font-weight:bold;width:35%;vertical-align:top;">{{.Label}}</td>
          <td style="border-bottom:1px solid #e7e5e4;white-space:pre-wrap;">{{if .Value}}{{.Value}}{{else}}-{{end}}</td>
        </tr>
        {{- end}}
      </table>
    </td></tr>
    {{- end}}
    {{- if .Footer}}
    <tr><td style="padding:16px 32px 32px;font-size:12px;color:#78716c;">{{.Footer}}</td></tr>
    {{- end}}
  </table>
</body>
</html>
`

const textLayout = `{{.Heading}}

{{- if .Greeting}}

{{.Greeting}}
{{- end}}
{{- range .Paragraphs}}

{{.}}
{{- end}}
{{- if .Details}}
{{range .Details}}
{{.Label}}: {{if .Value}}{{.Value}}{{else}}-{{end}}
{{- end}}
{{- end}}
{{- if .Footer}}

--
{{.Footer}}
{{- end}}
`

var (
	htmlTmpl = htmltemplate.Must(htmltemplate.New("html").Parse(htmlLayout))
	textTmpl = texttemplate.Must(texttemplate.New("text").Parse(textLayout))
)

// Render 渲染邮件正文
//
// HTML 版本对所有字段值做转义，提交者输入不会被解释为标记。
func Render(c *Content) (text string, html string, err error) {
	var tb, hb bytes.Buffer
	if err := textTmpl.Execute(&tb, c); err != nil {
		return "", "", err
	}
	if err := htmlTmpl.Execute(&hb, c); err != nil {
		return "", "", err
	}
	return tb.String(), hb.String(), nil
}
