package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"openlang/backend/internal/config"
)

// 单次对话的限制
const (
	MaxMessages      = 40
	MaxMessageLength = 4000
)

var (
	// ErrNotConfigured 未配置网关密钥
	ErrNotConfigured = errors.New("chat gateway not configured")
	// ErrRateLimited 网关返回 429
	ErrRateLimited = errors.New("chat gateway rate limited")
	// ErrPaymentRequired 网关返回 402，额度耗尽
	ErrPaymentRequired = errors.New("chat gateway credits exhausted")
	// ErrInvalidConversation 对话内容不合法
	ErrInvalidConversation = errors.New("invalid conversation")
)

// UpstreamError 网关返回了其他非 2xx 状态
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("chat gateway returned %d: %s", e.StatusCode, e.Body)
}

// Message 对话中的一条消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

// Client OpenAI 兼容的流式对话网关客户端
type Client struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// NewClient 创建网关客户端，httpClient 为 nil 时使用默认传输配置
//
// 流式响应的持续时间不受 http.Client.Timeout 约束，只限制建立连接与等待响应头。
func NewClient(cfg config.ChatConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				ForceAttemptHTTP2:     true,
				MaxIdleConns:          20,
				IdleConnTimeout:       90 * time.Second,
				TLSHandshakeTimeout:   10 * time.Second,
				ResponseHeaderTimeout: timeout,
			},
		}
	}
	return &Client{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
		client:   httpClient,
	}
}

// Configured 报告是否配置了网关密钥
func (c *Client) Configured() bool {
	return c != nil && c.apiKey != ""
}

// Stream 发送对话并返回网关的 SSE 响应体，调用方负责关闭
//
// 客户端提交的 system 消息会被丢弃，系统提示词始终由服务端提供。
func (c *Client) Stream(ctx context.Context, history []Message) (io.ReadCloser, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	msgs, err := buildConversation(history)
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(completionRequest{
		Model:    c.model,
		Messages: msgs,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat gateway request: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		return resp.Body, nil
	}

	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		return nil, ErrRateLimited
	case http.StatusPaymentRequired:
		return nil, ErrPaymentRequired
	default:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &UpstreamError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}
}

func buildConversation(history []Message) ([]Message, error) {
	msgs := make([]Message, 0, len(history)+1)
	msgs = append(msgs, Message{Role: "system", Content: SystemPrompt})

	for _, m := range history {
		switch m.Role {
		case "user", "assistant":
		case "system":
			continue
		default:
			return nil, fmt.Errorf("%w: unsupported role %q", ErrInvalidConversation, m.Role)
		}
		if len([]rune(m.Content)) > MaxMessageLength {
			return nil, fmt.Errorf("%w: message exceeds %d characters", ErrInvalidConversation, MaxMessageLength)
		}
		msgs = append(msgs, m)
	}

	if len(msgs) == 1 {
		return nil, fmt.Errorf("%w: no messages", ErrInvalidConversation)
	}
	if len(msgs)-1 > MaxMessages {
		return nil, fmt.Errorf("%w: more than %d messages", ErrInvalidConversation, MaxMessages)
	}
	return msgs, nil
}
