package mailer

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Message 是一封待发送的事务邮件
type Message struct {
	From    mail.Address
	To      []string
	ReplyTo string // 可选
	Subject string
	Text    string
	HTML    string
}

// Bytes 生成 RFC 5322 邮件内容，正文为 multipart/alternative（纯文本 + HTML）
func (m *Message) Bytes(now time.Time) ([]byte, error) {
	if m.From.Address == "" {
		return nil, fmt.Errorf("message has no sender")
	}
	if len(m.To) == 0 {
		return nil, fmt.Errorf("message has no recipients")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("From", m.From.String())
	header.Set("To", strings.Join(m.To, ", "))
	if m.ReplyTo != "" {
		header.Set("Reply-To", m.ReplyTo)
	}
	header.Set("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	header.Set("Date", now.Format(time.RFC1123Z))
	header.Set("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), senderDomain(m.From.Address)))
	header.Set("MIME-Version", "1.0")
	header.Set("Content-Type", "multipart/alternative; boundary="+mw.Boundary())

	var out bytes.Buffer
	for _, key := range []string{"From", "To", "Reply-To", "Subject", "Date", "Message-ID", "MIME-Version", "Content-Type"} {
		if v := header.Get(key); v != "" {
			fmt.Fprintf(&out, "%s: %s\r\n", key, v)
		}
	}
	out.WriteString("\r\n")

	if err := writePart(mw, "text/plain; charset=utf-8", m.Text); err != nil {
		return nil, err
	}
	if m.HTML != "" {
		if err := writePart(mw, "text/html; charset=utf-8", m.HTML); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	out.Write(buf.Bytes())
	return out.Bytes(), nil
}

func writePart(mw *multipart.Writer, contentType, body string) error {
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {contentType},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return err
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(body)); err != nil {
		return err
	}
	return qp.Close()
}

func senderDomain(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "localhost"
}
