package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"openlang/backend/internal/monitoring"
)

// TooManyRequestsMessage 按 IP 限流时返回的文案
const TooManyRequestsMessage = "Too many submissions. Please try again later."

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// IPGuard 按客户端 IP 的令牌桶限流
//
// 与按邮箱的提交限流相互独立，只用于挡住单个来源的突发流量。
type IPGuard struct {
	rps     rate.Limit
	burst   int
	metrics *monitoring.Metrics
	now     func() time.Time

	mu       sync.Mutex
	visitors map[string]*visitor
}

// NewIPGuard 创建 IP 限流器
//
// 参数:
//   - rps: 每秒补充的令牌数，<= 0 时不限流
//   - burst: 桶容量
//   - metrics: 监控指标，可为 nil
func NewIPGuard(rps float64, burst int, metrics *monitoring.Metrics) *IPGuard {
	if burst <= 0 {
		burst = 1
	}
	return &IPGuard{
		rps:      rate.Limit(rps),
		burst:    burst,
		metrics:  metrics,
		now:      time.Now,
		visitors: make(map[string]*visitor),
	}
}

// Allow 判断该 IP 是否还有可用令牌
func (g *IPGuard) Allow(ip string) bool {
	if g.rps <= 0 {
		return true
	}

	now := g.now()

	g.mu.Lock()
	v, ok := g.visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(g.rps, g.burst)}
		g.visitors[ip] = v
	}
	v.lastSeen = now
	g.mu.Unlock()

	return v.limiter.AllowN(now, 1)
}

// Handler 返回 gin 中间件，超限时返回 429
func (g *IPGuard) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions || g.Allow(c.ClientIP()) {
			c.Next()
			return
		}

		g.metrics.RecordRateLimitBlock("ip")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": TooManyRequestsMessage,
		})
	}
}

// Prune 移除超过 idle 未出现的 IP，返回移除数量
func (g *IPGuard) Prune(idle time.Duration) int {
	cutoff := g.now().Add(-idle)

	g.mu.Lock()
	defer g.mu.Unlock()

	removed := 0
	for ip, v := range g.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(g.visitors, ip)
			removed++
		}
	}
	return removed
}

// Len 返回当前跟踪的 IP 数量
func (g *IPGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.visitors)
}

// StartCleanup 周期性清理空闲 IP，直到 ctx 结束
func (g *IPGuard) StartCleanup(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.Prune(idle)
		}
	}
}
