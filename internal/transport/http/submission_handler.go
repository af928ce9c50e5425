package httptransport

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"openlang/backend/internal/submission"
)

// SubmissionHandler 把一个表单服务暴露为 POST 端点
type SubmissionHandler struct {
	service *submission.Service
	logger  *zap.Logger
}

// NewSubmissionHandler 创建表单提交处理器
func NewSubmissionHandler(service *submission.Service, logger *zap.Logger) *SubmissionHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubmissionHandler{
		service: service,
		logger:  logger.With(zap.String("form", service.Form().Name)),
	}
}

// Submit 处理表单提交
func (h *SubmissionHandler) Submit(c *gin.Context) {
	var raw map[string]any
	if err := c.ShouldBindJSON(&raw); err != nil {
		h.logger.Debug("invalid submission body", zap.Error(err))
		BadRequest(c, MsgInvalidJSON)
		return
	}

	result, err := h.service.Submit(c.Request.Context(), raw)
	if err != nil {
		writeSubmissionError(c, h.logger, err)
		return
	}

	Success(c, result.Message, result.EmailSent)
}
