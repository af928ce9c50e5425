package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// DefaultBodyLimit 表单与聊天请求体的默认上限
const DefaultBodyLimit = 64 * 1024 // 64KB

// BodySizeLimit 限制请求体大小的中间件
//
// 声明了 Content-Length 的超限请求直接返回 413；未声明长度的请求在读取时截断，
// 由处理器按无效 JSON 处理。
func BodySizeLimit(maxBytes int64) gin.HandlerFunc {
	if maxBytes <= 0 {
		maxBytes = DefaultBodyLimit
	}

	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Request body too large",
			})
			return
		}

		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Header("X-Max-Body-Size", strconv.FormatInt(maxBytes, 10))

		c.Next()
	}
}
