package httptransport

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"openlang/backend/internal/chat"
	"openlang/backend/internal/monitoring"
)

type chatRequest struct {
	Messages []chat.Message `json:"messages"`
}

// ChatHandler 聊天助手的流式代理
type ChatHandler struct {
	client  *chat.Client
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// NewChatHandler 创建聊天代理处理器，client 为 nil 时所有请求返回未配置
func NewChatHandler(client *chat.Client, metrics *monitoring.Metrics, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{
		client:  client,
		metrics: metrics,
		logger:  logger.With(zap.String("handler", "chat")),
	}
}

// Chat 把对话转发给网关，并把 SSE 响应原样流式返回
//
// 同时旁路解析助手输出，出现转人工标记时记录日志与指标，字节流本身不做修改。
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, MsgInvalidJSON)
		return
	}

	body, err := h.client.Stream(c.Request.Context(), req.Messages)
	if err != nil {
		h.metrics.RecordChatRequest(writeChatError(c, h.logger, err))
		return
	}
	defer body.Close()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	watcher := &chat.Watcher{}
	buf := make([]byte, 4096)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			_, _ = watcher.Write(buf[:n])
			if _, werr := c.Writer.Write(buf[:n]); werr != nil {
				h.logger.Debug("chat client went away", zap.Error(werr))
				break
			}
			c.Writer.Flush()
		}
		if rerr != nil {
			if !errors.Is(rerr, io.EOF) {
				h.logger.Warn("chat stream interrupted", zap.Error(rerr))
			}
			break
		}
	}

	h.metrics.RecordChatRequest("ok")
	if watcher.InquiryNeeded() {
		h.logger.Info("assistant requested human follow-up")
		h.metrics.RecordInquiryHint()
	}
}
