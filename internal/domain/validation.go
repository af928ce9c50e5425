package domain

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// 字段长度上限
const (
	MaxNameLength         = 100
	MaxOrganizationLength = 200
	MaxSubjectLength      = 200
	MaxShortTextLength    = 1000
	MaxLongTextLength     = 2000
)

// FieldEmail 是所有表单都必须携带的邮箱字段名
const FieldEmail = "email"

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ValidationError 表示调用方提交的数据不合法
//
// Message 直接面向最终用户，可原样展示。
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// FieldRule 描述单个字段的校验规则
type FieldRule struct {
	Name     string
	Required bool
	MaxLen   int      // 0 表示不限制
	Allowed  []string // 非空时字段必须精确匹配其中之一
}

// Schema 描述一个表单的全部字段规则
//
// email 字段总是必填，无需在 Fields 中声明。
type Schema struct {
	Fields []FieldRule
}

// Values 是校验通过后的规范化字段值
//
// 只包含去除首尾空白后非空的字段。
type Values map[string]string

// Email 返回规范化后的邮箱
func (v Values) Email() string {
	return v[FieldEmail]
}

// String 返回字段值，不存在时返回空字符串
func (v Values) String(name string) string {
	return v[name]
}

// Optional 返回可选字段的指针，未提供时返回 nil
func (v Values) Optional(name string) *string {
	val, ok := v[name]
	if !ok || val == "" {
		return nil
	}
	return &val
}

// NormalizeEmail 去除首尾空白并转为小写
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// IsValidEmail 检查邮箱是否符合 local@domain.tld 的基本形态
func IsValidEmail(email string) bool {
	return emailRegex.MatchString(email)
}

// Validate 校验原始请求字段并返回规范化结果
//
// 校验顺序：邮箱 -> 类型 -> 必填 -> 长度 -> 枚举。
// 函数无副作用，失败时返回 *ValidationError。
func (s Schema) Validate(raw map[string]any) (Values, error) {
	values := make(Values, len(s.Fields)+1)

	rawEmail, err := stringField(raw, FieldEmail)
	if err != nil {
		return nil, err
	}
	email := NormalizeEmail(rawEmail)
	if email == "" {
		return nil, &ValidationError{Field: FieldEmail, Message: "Missing required field: email"}
	}
	if !IsValidEmail(email) {
		return nil, &ValidationError{Field: FieldEmail, Message: "Invalid email address"}
	}
	values[FieldEmail] = email

	var missing []string
	for _, rule := range s.Fields {
		if rule.Name == FieldEmail {
			continue
		}
		val, err := stringField(raw, rule.Name)
		if err != nil {
			return nil, err
		}
		val = strings.TrimSpace(val)
		if val == "" {
			if rule.Required {
				missing = append(missing, rule.Name)
			}
			continue
		}
		values[rule.Name] = val
	}

	if len(missing) == 1 {
		return nil, &ValidationError{Field: missing[0], Message: "Missing required field: " + missing[0]}
	}
	if len(missing) > 1 {
		return nil, &ValidationError{
			Field:   strings.Join(missing, ","),
			Message: "Missing required fields: " + strings.Join(missing, ", "),
		}
	}

	for _, rule := range s.Fields {
		val, ok := values[rule.Name]
		if !ok {
			continue
		}
		if rule.MaxLen > 0 && utf8.RuneCountInString(val) > rule.MaxLen {
			return nil, &ValidationError{
				Field:   rule.Name,
				Message: fmt.Sprintf("Field '%s' exceeds maximum length of %d characters", rule.Name, rule.MaxLen),
			}
		}
		if len(rule.Allowed) > 0 && !contains(rule.Allowed, val) {
			return nil, &ValidationError{
				Field:   rule.Name,
				Message: fmt.Sprintf("Invalid %s. Must be one of: %s", rule.Name, strings.Join(rule.Allowed, ", ")),
			}
		}
	}

	return values, nil
}

// stringField 读取字符串字段，缺失或 null 视为空字符串
func stringField(raw map[string]any, name string) (string, error) {
	v, ok := raw[name]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", &ValidationError{Field: name, Message: fmt.Sprintf("Field '%s' must be a string", name)}
	}
	return s, nil
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
