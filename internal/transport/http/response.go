package httptransport

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SubmissionResponse 表单提交成功的响应体
type SubmissionResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	EmailSent bool   `json:"email_sent"`
}

// ErrorResponse 统一错误响应体，error 文案可直接展示给最终用户
type ErrorResponse struct {
	Error string `json:"error"`
}

// Success 提交成功响应（200）
func Success(c *gin.Context, msg string, emailSent bool) {
	c.JSON(http.StatusOK, SubmissionResponse{
		Success:   true,
		Message:   msg,
		EmailSent: emailSent,
	})
}

// BadRequest 请求参数错误（400）
func BadRequest(c *gin.Context, msg string) {
	Error(c, http.StatusBadRequest, msg)
}

// TooManyRequests 触发限流（429）
func TooManyRequests(c *gin.Context, msg string) {
	Error(c, http.StatusTooManyRequests, msg)
}

// InternalError 服务器内部错误（500）
func InternalError(c *gin.Context, msg string) {
	Error(c, http.StatusInternalServerError, msg)
}

// Error 通用错误响应
func Error(c *gin.Context, httpCode int, msg string) {
	c.JSON(httpCode, ErrorResponse{Error: msg})
}
