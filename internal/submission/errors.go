package submission

import (
	"errors"
	"fmt"
)

// ErrRateLimited 表示提交者在当前窗口内已达到提交上限
var ErrRateLimited = errors.New("submission rate limit exceeded")

// PersistenceError 表示记录写入失败
//
// 详细原因只记录在服务端日志中，不返回给调用方。
type PersistenceError struct {
	Table string
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Table, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NotificationError 表示某一封通知邮件未能送达
//
// 记录已经持久化，因此它从不导致请求失败。
type NotificationError struct {
	Form string
	Kind string // "confirmation" 或 "notification"
	Err  error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("%s %s email: %v", e.Form, e.Kind, e.Err)
}

func (e *NotificationError) Unwrap() error {
	return e.Err
}
