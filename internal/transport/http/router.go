package httptransport

import (
	"net/http"
	"slices"
	"strings"
	"time"

	gincors "github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"openlang/backend/internal/chat"
	"openlang/backend/internal/config"
	"openlang/backend/internal/health"
	"openlang/backend/internal/middleware"
	"openlang/backend/internal/monitoring"
	"openlang/backend/internal/submission"
)

// FormRoutes 表单名称到端点路径的映射
var FormRoutes = map[string]string{
	submission.FormContact: "/api/contact",
	submission.FormPanel:   "/api/panel-registration",
	submission.FormVoicera: "/api/voicera-interest",
	submission.FormInquiry: "/api/inquiry",
}

// RouterDependencies 路由器依赖项
type RouterDependencies struct {
	Config   *config.Config
	Services []*submission.Service
	Chat     *chat.Client          // 可为 nil
	Health   *health.HealthChecker // 可为 nil
	Metrics  *monitoring.Metrics   // 可为 nil，此时不暴露 /metrics
	Guard    *middleware.IPGuard   // 可为 nil，此时不做 IP 限流
	Logger   *zap.Logger
}

// NewRouter 创建并返回 Gin 路由实例。
func NewRouter(deps RouterDependencies) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()

	monitor := middleware.NewMonitoringMiddleware(deps.Metrics, logger)
	router.Use(middleware.RequestLogger(logger))
	router.Use(monitor.HTTPMetrics())
	router.Use(monitor.PanicRecovery())
	router.Use(middleware.SecurityHeaders())
	var corsCfg config.CORSConfig
	if deps.Config != nil {
		corsCfg = deps.Config.CORS
	}
	router.Use(gincors.New(corsConfig(corsCfg)))

	router.NoRoute(func(c *gin.Context) {
		Error(c, http.StatusNotFound, MsgNotFound)
	})

	api := router.Group("/api")
	if deps.Guard != nil {
		api.Use(deps.Guard.Handler())
	}
	api.Use(middleware.BodySizeLimit(middleware.DefaultBodyLimit))

	for _, svc := range deps.Services {
		path, ok := FormRoutes[svc.Form().Name]
		if !ok {
			logger.Warn("no route for form, skipping", zap.String("form", svc.Form().Name))
			continue
		}
		api.POST(strings.TrimPrefix(path, "/api"), NewSubmissionHandler(svc, logger).Submit)
	}

	chatHandler := NewChatHandler(deps.Chat, deps.Metrics, logger)
	api.POST("/chat", chatHandler.Chat)

	if deps.Health != nil {
		hc := deps.Health
		router.GET("/health", func(c *gin.Context) {
			report := hc.CheckHealth()
			status := http.StatusOK
			if report.Status != health.StatusHealthy {
				status = http.StatusServiceUnavailable
			}
			c.JSON(status, report)
		})
		router.GET("/health/live", gin.WrapF(hc.LiveEndpoint))
		router.GET("/health/ready", gin.WrapF(hc.ReadyEndpoint))
	}

	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.HTTPHandler()))
	}

	return router
}

// corsConfig 构造宽松的跨域配置
//
// 来源包含 "*" 时允许所有来源且不携带凭证。
func corsConfig(cfg config.CORSConfig) gincors.Config {
	headers := cfg.AllowedHeaders
	if len(headers) == 0 {
		headers = []string{"authorization", "x-client-info", "apikey", "content-type"}
	}

	c := gincors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: headers,
		MaxAge:       12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || slices.Contains(cfg.AllowedOrigins, "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	return c
}
