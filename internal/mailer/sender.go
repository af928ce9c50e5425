package mailer

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	gosmtp "github.com/emersion/go-smtp"

	"openlang/backend/internal/config"
)

// Sender 通过外部中继投递邮件
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// SMTPSender 使用 go-smtp 客户端向中继投递邮件
//
// 每次发送建立独立连接，发送完成后立即 QUIT。
type SMTPSender struct {
	addr        string
	host        string
	username    string
	password    string
	implicitTLS bool
	startTLS    bool
	now         func() time.Time
}

// NewSMTPSender 根据邮件配置创建发送器
func NewSMTPSender(cfg config.MailConfig) *SMTPSender {
	return &SMTPSender{
		addr:        net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host:        cfg.Host,
		username:    cfg.Username,
		password:    cfg.Password,
		implicitTLS: cfg.ImplicitTLS,
		startTLS:    cfg.StartTLS,
		now:         time.Now,
	}
}

// Send 投递一封邮件
//
// ctx 取消时关闭连接，正在进行的 SMTP 命令随之失败。
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := msg.Bytes(s.now())
	if err != nil {
		return fmt.Errorf("compose message: %w", err)
	}

	c, err := s.dial()
	if err != nil {
		return fmt.Errorf("dial %s: %w", s.addr, err)
	}
	defer c.Close()

	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	if s.username != "" {
		if err := c.Auth(sasl.NewPlainClient("", s.username, s.password)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}

	if err := c.Mail(msg.From.Address, nil); err != nil {
		return fmt.Errorf("smtp MAIL FROM: %w", err)
	}
	for _, to := range msg.To {
		if err := c.Rcpt(to, nil); err != nil {
			return fmt.Errorf("smtp RCPT TO %s: %w", to, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp DATA: %w", err)
	}
	if _, err := bytes.NewReader(raw).WriteTo(w); err != nil {
		_ = w.Close()
		return fmt.Errorf("smtp write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp DATA close: %w", err)
	}

	return c.Quit()
}

func (s *SMTPSender) dial() (*gosmtp.Client, error) {
	tlsConfig := &tls.Config{ServerName: s.host, MinVersion: tls.VersionTLS12}
	switch {
	case s.implicitTLS:
		return gosmtp.DialTLS(s.addr, tlsConfig)
	case s.startTLS:
		return gosmtp.DialStartTLS(s.addr, tlsConfig)
	default:
		return gosmtp.Dial(s.addr)
	}
}
