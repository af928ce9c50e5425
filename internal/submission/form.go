package submission

import (
	"fmt"
	"time"

	"openlang/backend/internal/domain"
	"openlang/backend/internal/mailer"
)

// Form 描述一种表单在通用提交流程中的差异部分
type Form struct {
	Name           string // 限流键前缀、日志与指标标签
	Source         string // 写入记录的来源标记
	Schema         domain.Schema
	SuccessMessage string

	// Build 由校验后的字段构造待写入的记录
	Build func(v domain.Values) domain.Record
	// Confirmation 生成发给提交者的确认邮件，可为 nil
	Confirmation func(rec domain.Record) *mailer.Content
	// Notification 生成发给运营方的通知邮件，可为 nil
	Notification func(rec domain.Record) *mailer.Content
}

// typed 把针对具体记录类型的模板函数适配为 Form 所需的签名
func typed[R domain.Record](fn func(R) *mailer.Content) func(domain.Record) *mailer.Content {
	return func(rec domain.Record) *mailer.Content {
		r, ok := rec.(R)
		if !ok {
			return nil
		}
		return fn(r)
	}
}

// operatorContent 生成运营通知，包含全部字段、提交时间与记录编号
func operatorContent(subject, heading string, rec domain.Record) *mailer.Content {
	id, at := rec.Identity()
	details := append(rec.Details(),
		domain.Detail{Label: "Submitted at", Value: at.UTC().Format(time.RFC1123)},
		domain.Detail{Label: "Reference", Value: id},
	)
	return &mailer.Content{
		Subject:    subject,
		Heading:    heading,
		Paragraphs: []string{fmt.Sprintf("Reply to this email to respond to %s directly.", rec.Submitter())},
		Details:    details,
		Footer:     "Sent automatically by the OpenLang website.",
	}
}

func displayName(name, email string) string {
	if name != "" {
		return name
	}
	return email
}
