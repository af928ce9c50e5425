package submission

import (
	"fmt"

	"openlang/backend/internal/domain"
	"openlang/backend/internal/mailer"
)

// 表单名称
const (
	FormContact = "contact"
	FormPanel   = "panel"
	FormVoicera = "voicera"
	FormInquiry = "inquiry"
)

// 来源标记
const (
	SourceContact = "Website Contact Form"
	SourcePanel   = "Panel Discussion Registration"
	SourceVoicera = "VoicERA Website"
	SourceInquiry = "Chat Assistant"
)

const signature = "The OpenLang Team"

// ContactForm 网站联系表单
func ContactForm() Form {
	return Form{
		Name:   FormContact,
		Source: SourceContact,
		Schema: domain.Schema{Fields: []domain.FieldRule{
			{Name: "name", Required: true, MaxLen: domain.MaxNameLength},
			{Name: "organization", MaxLen: domain.MaxOrganizationLength},
			{Name: "subject", MaxLen: domain.MaxSubjectLength},
			{Name: "message", Required: true, MaxLen: domain.MaxLongTextLength},
		}},
		SuccessMessage: "Thank you for reaching out! We'll get back to you soon.",
		Build: func(v domain.Values) domain.Record {
			return &domain.ContactSubmission{
				Email:        v.Email(),
				Name:         v.String("name"),
				Organization: v.Optional("organization"),
				Subject:      v.Optional("subject"),
				Message:      v.String("message"),
				Source:       SourceContact,
			}
		},
		Confirmation: typed(func(r *domain.ContactSubmission) *mailer.Content {
			details := []domain.Detail{{Label: "Message", Value: r.Message}}
			if r.Subject != nil {
				details = append([]domain.Detail{{Label: "Subject", Value: *r.Subject}}, details...)
			}
			return &mailer.Content{
				Subject:  "We received your message",
				Heading:  "Thanks for contacting OpenLang",
				Greeting: fmt.Sprintf("Hi %s,", r.Name),
				Paragraphs: []string{
					"We have received your message and a member of our team will reply within a few working days.",
					"Here is a copy of what you sent us:",
				},
				Details: details,
				Footer:  signature,
			}
		}),
		Notification: typed(func(r *domain.ContactSubmission) *mailer.Content {
			return operatorContent(
				fmt.Sprintf("New contact form submission from %s", r.Name),
				"New contact form submission",
				r,
			)
		}),
	}
}

// PanelForm 圆桌讨论报名表单
func PanelForm() Form {
	return Form{
		Name:   FormPanel,
		Source: SourcePanel,
		Schema: domain.Schema{Fields: []domain.FieldRule{
			{Name: "full_name", Required: true, MaxLen: domain.MaxNameLength},
			{Name: "organization", MaxLen: domain.MaxOrganizationLength},
			{Name: "designation", MaxLen: domain.MaxNameLength},
			{Name: "question", MaxLen: domain.MaxShortTextLength},
		}},
		SuccessMessage: "You're registered for the panel discussion. See you there!",
		Build: func(v domain.Values) domain.Record {
			return &domain.PanelRegistration{
				Email:        v.Email(),
				FullName:     v.String("full_name"),
				Organization: v.Optional("organization"),
				Designation:  v.Optional("designation"),
				Question:     v.Optional("question"),
				Source:       SourcePanel,
			}
		},
		Confirmation: typed(func(r *domain.PanelRegistration) *mailer.Content {
			paragraphs := []string{
				"Thank you for registering for the OpenLang panel discussion. Your seat is confirmed.",
				"We will send joining details and any schedule updates to this address closer to the event.",
			}
			if r.Question != nil {
				paragraphs = append(paragraphs, "We have passed your question on to the moderators.")
			}
			return &mailer.Content{
				Subject:    "Your panel discussion registration is confirmed",
				Heading:    "You're registered",
				Greeting:   fmt.Sprintf("Hi %s,", r.FullName),
				Paragraphs: paragraphs,
				Footer:     signature,
			}
		}),
		Notification: typed(func(r *domain.PanelRegistration) *mailer.Content {
			return operatorContent(
				fmt.Sprintf("New panel registration: %s", r.FullName),
				"New panel discussion registration",
				r,
			)
		}),
	}
}

// VoiceraInterestForm VoicERA 产品意向登记表单
func VoiceraInterestForm() Form {
	return Form{
		Name:   FormVoicera,
		Source: SourceVoicera,
		Schema: domain.Schema{Fields: []domain.FieldRule{
			{Name: "full_name", MaxLen: domain.MaxNameLength},
			{Name: "organization_name", MaxLen: domain.MaxOrganizationLength},
			{Name: "use_case", MaxLen: domain.MaxShortTextLength},
		}},
		SuccessMessage: "Thanks for your interest in VoicERA! Our team will be in touch shortly.",
		Build: func(v domain.Values) domain.Record {
			return &domain.InterestLead{
				Email:            v.Email(),
				FullName:         v.Optional("full_name"),
				OrganizationName: v.Optional("organization_name"),
				UseCase:          v.Optional("use_case"),
				Source:           SourceVoicera,
			}
		},
		Confirmation: typed(func(r *domain.InterestLead) *mailer.Content {
			var details []domain.Detail
			if r.OrganizationName != nil {
				details = append(details, domain.Detail{Label: "Organization", Value: *r.OrganizationName})
			}
			if r.UseCase != nil {
				details = append(details, domain.Detail{Label: "Use case", Value: *r.UseCase})
			}
			name := r.Email
			if r.FullName != nil {
				name = *r.FullName
			}
			return &mailer.Content{
				Subject:  "Thanks for your interest in VoicERA",
				Heading:  "We'll be in touch about VoicERA",
				Greeting: fmt.Sprintf("Hi %s,", name),
				Paragraphs: []string{
					"Thank you for registering your interest in VoicERA, our open voice AI stack for Indian languages.",
					"Someone from our team will contact you to understand your requirements and next steps.",
				},
				Details: details,
				Footer:  signature,
			}
		}),
		Notification: typed(func(r *domain.InterestLead) *mailer.Content {
			org := "unknown organization"
			if r.OrganizationName != nil {
				org = *r.OrganizationName
			}
			return operatorContent(
				fmt.Sprintf("New VoicERA lead from %s", org),
				"New VoicERA interest",
				r,
			)
		}),
	}
}

// InquiryForm 聊天助手转人工咨询表单
func InquiryForm() Form {
	return Form{
		Name:   FormInquiry,
		Source: SourceInquiry,
		Schema: domain.Schema{Fields: []domain.FieldRule{
			{Name: "name", MaxLen: domain.MaxNameLength},
			{Name: "organization", MaxLen: domain.MaxOrganizationLength},
			{Name: "category", Required: true, Allowed: domain.InquiryCategories},
			{Name: "question", Required: true, MaxLen: domain.MaxLongTextLength},
		}},
		SuccessMessage: "Your question has been sent to our team. We'll reply by email.",
		Build: func(v domain.Values) domain.Record {
			return &domain.Inquiry{
				Email:        v.Email(),
				Name:         v.Optional("name"),
				Organization: v.Optional("organization"),
				Category:     v.String("category"),
				Question:     v.String("question"),
				Status:       domain.InquiryStatusNew,
				Source:       SourceInquiry,
			}
		},
		Confirmation: typed(func(r *domain.Inquiry) *mailer.Content {
			name := ""
			if r.Name != nil {
				name = *r.Name
			}
			return &mailer.Content{
				Subject:  "We received your question",
				Heading:  "Your question is with our team",
				Greeting: fmt.Sprintf("Hi %s,", displayName(name, r.Email)),
				Paragraphs: []string{
					"Our assistant could not fully answer your question, so we have forwarded it to the right person at OpenLang.",
					"You can expect a reply at this address.",
				},
				Details: []domain.Detail{
					{Label: "Category", Value: r.Category},
					{Label: "Question", Value: r.Question},
				},
				Footer: signature,
			}
		}),
		Notification: typed(func(r *domain.Inquiry) *mailer.Content {
			return operatorContent(
				fmt.Sprintf("[%s] New inquiry from the chat assistant", r.Category),
				"New inquiry from the chat assistant",
				r,
			)
		}),
	}
}

// Forms 返回全部表单定义
func Forms() []Form {
	return []Form{ContactForm(), PanelForm(), VoiceraInterestForm(), InquiryForm()}
}
