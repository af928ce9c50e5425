package domain

import "time"

// Record 是一条表单提交记录
//
// 每种表单对应独立的数据表，记录写入后不再修改或删除。
type Record interface {
	TableName() string
	// Assign 由存储层在写入时分配标识与提交时间
	Assign(id string, submittedAt time.Time)
	Identity() (id string, submittedAt time.Time)
	// Submitter 返回提交者的规范化邮箱
	Submitter() string
	// Columns 返回列名到值的映射，供原生 SQL 写入使用
	Columns() map[string]any
	// Details 返回按展示顺序排列的字段，供运营通知邮件使用
	Details() []Detail
}

// Detail 是通知邮件中的一行字段
type Detail struct {
	Label string
	Value string
}

// InquiryStatusNew 是咨询记录的初始状态
const InquiryStatusNew = "new"

// InquiryCategories 是咨询分类的封闭集合
var InquiryCategories = []string{
	"General",
	"Partnership",
	"Research Collaboration",
	"Technical Support",
	"Media",
	"VoicERA",
}

// ContactSubmission 网站联系表单
type ContactSubmission struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(254);not null;index" json:"email"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Organization *string   `gorm:"type:varchar(200)" json:"organization"`
	Subject      *string   `gorm:"type:varchar(200)" json:"subject"`
	Message      string    `gorm:"type:text;not null" json:"message"`
	Source       string    `gorm:"type:varchar(64);not null" json:"source"`
	SubmittedAt  time.Time `gorm:"not null;index" json:"submitted_at"`
}

func (ContactSubmission) TableName() string { return "contact_submissions" }

func (r *ContactSubmission) Assign(id string, at time.Time) { r.ID, r.SubmittedAt = id, at }

func (r *ContactSubmission) Identity() (string, time.Time) { return r.ID, r.SubmittedAt }

func (r *ContactSubmission) Submitter() string { return r.Email }

func (r *ContactSubmission) Columns() map[string]any {
	return map[string]any{
		"id":           r.ID,
		"email":        r.Email,
		"name":         r.Name,
		"organization": r.Organization,
		"subject":      r.Subject,
		"message":      r.Message,
		"source":       r.Source,
		"submitted_at": r.SubmittedAt,
	}
}

func (r *ContactSubmission) Details() []Detail {
	return []Detail{
		{"Name", r.Name},
		{"Email", r.Email},
		{"Organization", deref(r.Organization)},
		{"Subject", deref(r.Subject)},
		{"Message", r.Message},
		{"Source", r.Source},
	}
}

// PanelRegistration 圆桌讨论报名
type PanelRegistration struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(254);not null;index" json:"email"`
	FullName     string    `gorm:"type:varchar(100);not null" json:"full_name"`
	Organization *string   `gorm:"type:varchar(200)" json:"organization"`
	Designation  *string   `gorm:"type:varchar(100)" json:"designation"`
	Question     *string   `gorm:"type:text" json:"question"`
	Source       string    `gorm:"type:varchar(64);not null" json:"source"`
	SubmittedAt  time.Time `gorm:"not null;index" json:"submitted_at"`
}

func (PanelRegistration) TableName() string { return "panel_registrations" }

func (r *PanelRegistration) Assign(id string, at time.Time) { r.ID, r.SubmittedAt = id, at }

func (r *PanelRegistration) Identity() (string, time.Time) { return r.ID, r.SubmittedAt }

func (r *PanelRegistration) Submitter() string { return r.Email }

func (r *PanelRegistration) Columns() map[string]any {
	return map[string]any{
		"id":           r.ID,
		"email":        r.Email,
		"full_name":    r.FullName,
		"organization": r.Organization,
		"designation":  r.Designation,
		"question":     r.Question,
		"source":       r.Source,
		"submitted_at": r.SubmittedAt,
	}
}

func (r *PanelRegistration) Details() []Detail {
	return []Detail{
		{"Full name", r.FullName},
		{"Email", r.Email},
		{"Organization", deref(r.Organization)},
		{"Designation", deref(r.Designation)},
		{"Question for the panel", deref(r.Question)},
		{"Source", r.Source},
	}
}

// InterestLead VoicERA 产品意向登记
type InterestLead struct {
	ID               string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email            string    `gorm:"type:varchar(254);not null;index" json:"email"`
	FullName         *string   `gorm:"type:varchar(100)" json:"full_name"`
	OrganizationName *string   `gorm:"type:varchar(200)" json:"organization_name"`
	UseCase          *string   `gorm:"type:text" json:"use_case"`
	Source           string    `gorm:"type:varchar(64);not null" json:"source"`
	SubmittedAt      time.Time `gorm:"not null;index" json:"submitted_at"`
}

func (InterestLead) TableName() string { return "voicera_interest_leads" }

func (r *InterestLead) Assign(id string, at time.Time) { r.ID, r.SubmittedAt = id, at }

func (r *InterestLead) Identity() (string, time.Time) { return r.ID, r.SubmittedAt }

func (r *InterestLead) Submitter() string { return r.Email }

func (r *InterestLead) Columns() map[string]any {
	return map[string]any{
		"id":                r.ID,
		"email":             r.Email,
		"full_name":         r.FullName,
		"organization_name": r.OrganizationName,
		"use_case":          r.UseCase,
		"source":            r.Source,
		"submitted_at":      r.SubmittedAt,
	}
}

func (r *InterestLead) Details() []Detail {
	return []Detail{
		{"Full name", deref(r.FullName)},
		{"Email", r.Email},
		{"Organization", deref(r.OrganizationName)},
		{"Use case", deref(r.UseCase)},
		{"Source", r.Source},
	}
}

// Inquiry 聊天助手无法回答时转交的人工咨询
type Inquiry struct {
	ID           string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Email        string    `gorm:"type:varchar(254);not null;index" json:"email"`
	Name         *string   `gorm:"type:varchar(100)" json:"name"`
	Organization *string   `gorm:"type:varchar(200)" json:"organization"`
	Category     string    `gorm:"type:varchar(64);not null" json:"category"`
	Question     string    `gorm:"type:text;not null" json:"question"`
	Status       string    `gorm:"type:varchar(16);not null" json:"status"`
	Source       string    `gorm:"type:varchar(64);not null" json:"source"`
	SubmittedAt  time.Time `gorm:"not null;index" json:"submitted_at"`
}

func (Inquiry) TableName() string { return "inquiries" }

func (r *Inquiry) Assign(id string, at time.Time) { r.ID, r.SubmittedAt = id, at }

func (r *Inquiry) Identity() (string, time.Time) { return r.ID, r.SubmittedAt }

func (r *Inquiry) Submitter() string { return r.Email }

func (r *Inquiry) Columns() map[string]any {
	return map[string]any{
		"id":           r.ID,
		"email":        r.Email,
		"name":         r.Name,
		"organization": r.Organization,
		"category":     r.Category,
		"question":     r.Question,
		"status":       r.Status,
		"source":       r.Source,
		"submitted_at": r.SubmittedAt,
	}
}

func (r *Inquiry) Details() []Detail {
	return []Detail{
		{"Name", deref(r.Name)},
		{"Email", r.Email},
		{"Organization", deref(r.Organization)},
		{"Category", r.Category},
		{"Question", r.Question},
		{"Status", r.Status},
		{"Source", r.Source},
	}
}

// AllRecords 返回需要建表的全部记录类型
func AllRecords() []any {
	return []any{
		&ContactSubmission{},
		&PanelRegistration{},
		&InterestLead{},
		&Inquiry{},
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
