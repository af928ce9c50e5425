package mailer

import (
	"context"
	"errors"
	"net/mail"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ErrNotConfigured 表示邮件中继未配置，通知被跳过
var ErrNotConfigured = errors.New("mail relay not configured")

// Notice 是一次提交需要发出的两封邮件
type Notice struct {
	Form         string
	Submitter    string   // 提交者邮箱，同时作为运营通知的 Reply-To
	Confirmation *Content // 发给提交者
	Notification *Content // 发给运营方
}

// Outcome 记录两封邮件各自的投递结果
type Outcome struct {
	Configured       bool
	ConfirmationSent bool
	NotificationSent bool
	ConfirmationErr  error
	NotificationErr  error
}

// Dispatcher 并发发送确认邮件与运营通知
//
// 两封邮件互不影响：任一失败不会取消或回滚另一封，Dispatch 总是等待两者结束。
type Dispatcher struct {
	sender   Sender
	from     mail.Address
	operator string
	log      *zap.Logger
}

// NewDispatcher 创建通知分发器
//
// 参数:
//   - sender: 邮件发送器，为 nil 表示未配置中继，此时只记录警告
//   - from: 发件人
//   - operator: 运营方收件地址，为空时跳过运营通知
func NewDispatcher(sender Sender, from mail.Address, operator string, log *zap.Logger) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		sender:   sender,
		from:     from,
		operator: operator,
		log:      log,
	}
}

// Configured 报告邮件中继是否可用
func (d *Dispatcher) Configured() bool {
	return d != nil && d.sender != nil
}

// Dispatch 发送通知并返回各自结果，从不返回错误
func (d *Dispatcher) Dispatch(ctx context.Context, n Notice) Outcome {
	if !d.Configured() {
		if d != nil {
			d.log.Warn("mail relay not configured, skipping notifications",
				zap.String("form", n.Form),
			)
		}
		return Outcome{ConfirmationErr: ErrNotConfigured, NotificationErr: ErrNotConfigured}
	}

	out := Outcome{Configured: true}

	var g errgroup.Group
	if n.Confirmation != nil {
		g.Go(func() error {
			out.ConfirmationErr = d.send(ctx, n.Submitter, "", n.Confirmation)
			out.ConfirmationSent = out.ConfirmationErr == nil
			return nil
		})
	}
	if n.Notification != nil && d.operator != "" {
		g.Go(func() error {
			out.NotificationErr = d.send(ctx, d.operator, n.Submitter, n.Notification)
			out.NotificationSent = out.NotificationErr == nil
			return nil
		})
	}
	_ = g.Wait()

	if out.ConfirmationErr != nil {
		d.log.Error("failed to send confirmation email",
			zap.String("form", n.Form),
			zap.Error(out.ConfirmationErr),
		)
	}
	if out.NotificationErr != nil {
		d.log.Error("failed to send operator notification",
			zap.String("form", n.Form),
			zap.Error(out.NotificationErr),
		)
	}
	if n.Notification != nil && d.operator == "" {
		d.log.Warn("operator address not configured, skipping notification",
			zap.String("form", n.Form),
		)
	}

	return out
}

func (d *Dispatcher) send(ctx context.Context, to, replyTo string, c *Content) error {
	text, html, err := Render(c)
	if err != nil {
		return err
	}
	return d.sender.Send(ctx, &Message{
		From:    d.from,
		To:      []string{to},
		ReplyTo: replyTo,
		Subject: c.Subject,
		Text:    text,
		HTML:    html,
	})
}
