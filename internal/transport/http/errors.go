package httptransport

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"openlang/backend/internal/chat"
	"openlang/backend/internal/domain"
	"openlang/backend/internal/middleware"
	"openlang/backend/internal/submission"
)

// 面向最终用户的固定文案
const (
	MsgInvalidJSON       = "Invalid JSON body"
	MsgRateLimited       = "Too many submissions. Please try again later."
	MsgPersistenceFailed = "Failed to save your submission. Please try again."
	MsgNotFound          = "Not found"
	MsgInternalError     = middleware.UnexpectedErrorMessage

	MsgChatNotConfigured   = "Chat assistant is not configured"
	MsgChatRateLimited     = "Rate limit exceeded. Please try again later."
	MsgChatCreditsExceeded = "AI credits exhausted. Please try again later."
	MsgChatUnavailable     = "Chat assistant is temporarily unavailable. Please try again."
)

// writeSubmissionError 把提交流程的错误映射为状态码与固定文案
//
// 只有校验错误的内容会回显给调用方，其余错误的细节只写入日志。
func writeSubmissionError(c *gin.Context, log *zap.Logger, err error) {
	var validationErr *domain.ValidationError
	var persistErr *submission.PersistenceError

	switch {
	case errors.As(err, &validationErr):
		BadRequest(c, validationErr.Message)
	case errors.Is(err, submission.ErrRateLimited):
		TooManyRequests(c, MsgRateLimited)
	case errors.As(err, &persistErr):
		InternalError(c, MsgPersistenceFailed)
	default:
		log.Error("unexpected submission error", zap.Error(err))
		InternalError(c, MsgInternalError)
	}
}

// writeChatError 把网关错误映射为状态码，返回指标结果标签
func writeChatError(c *gin.Context, log *zap.Logger, err error) string {
	var upErr *chat.UpstreamError

	switch {
	case errors.Is(err, chat.ErrNotConfigured):
		log.Error("chat gateway key is not configured")
		InternalError(c, MsgChatNotConfigured)
		return "not_configured"
	case errors.Is(err, chat.ErrInvalidConversation):
		BadRequest(c, err.Error())
		return "invalid"
	case errors.Is(err, chat.ErrRateLimited):
		TooManyRequests(c, MsgChatRateLimited)
		return "rate_limited"
	case errors.Is(err, chat.ErrPaymentRequired):
		Error(c, http.StatusPaymentRequired, MsgChatCreditsExceeded)
		return "payment_required"
	case errors.As(err, &upErr):
		log.Error("chat gateway error", zap.Int("status", upErr.StatusCode), zap.String("body", upErr.Body))
		InternalError(c, MsgChatUnavailable)
		return "upstream_error"
	default:
		log.Error("chat gateway request failed", zap.Error(err))
		InternalError(c, MsgChatUnavailable)
		return "upstream_error"
	}
}
