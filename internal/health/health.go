package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/heptiolabs/healthcheck"
	"go.uber.org/zap"
)

// Status 健康状态
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// Pinger 是可被检查的依赖，存储与 Redis 客户端均满足
type Pinger interface {
	Health() error
}

// Check 单项检查结果
type Check struct {
	Name     string        `json:"name"`
	Status   Status        `json:"status"`
	Message  string        `json:"message,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report 健康报告
type Report struct {
	Status    Status        `json:"status"`
	Timestamp time.Time     `json:"timestamp"`
	Uptime    time.Duration `json:"uptime"`
	Checks    []Check       `json:"checks"`
	Version   string        `json:"version"`
}

// HealthChecker 健康检查器
//
// 存活检查只反映进程本身；就绪检查覆盖所有注册的依赖。
type HealthChecker struct {
	health    healthcheck.Handler
	logger    *zap.Logger
	startTime time.Time
	version   string

	mu   sync.RWMutex
	deps map[string]Pinger
}

// NewHealthChecker 创建健康检查器
func NewHealthChecker(logger *zap.Logger, version string) *HealthChecker {
	if logger == nil {
		logger = zap.NewNop()
	}
	hc := &HealthChecker{
		health:    healthcheck.NewHandler(),
		logger:    logger,
		startTime: time.Now(),
		version:   version,
		deps:      make(map[string]Pinger),
	}
	hc.health.AddLivenessCheck("goroutine-threshold", healthcheck.GoroutineCountCheck(1000))
	return hc
}

// AddDependency 注册就绪依赖，例如 "database" 或 "redis"
func (hc *HealthChecker) AddDependency(name string, dep Pinger) {
	hc.mu.Lock()
	hc.deps[name] = dep
	hc.mu.Unlock()

	hc.health.AddReadinessCheck(name, healthcheck.Timeout(dep.Health, 5*time.Second))
}

// LiveEndpoint 存活探针
func (hc *HealthChecker) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.health.LiveEndpoint(w, r)
}

// ReadyEndpoint 就绪探针
func (hc *HealthChecker) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	hc.health.ReadyEndpoint(w, r)
}

// CheckHealth 执行全部依赖检查并生成报告
func (hc *HealthChecker) CheckHealth() *Report {
	hc.mu.RLock()
	names := make([]string, 0, len(hc.deps))
	for name := range hc.deps {
		names = append(names, name)
	}
	hc.mu.RUnlock()
	sort.Strings(names)

	report := &Report{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Uptime:    time.Since(hc.startTime),
		Version:   hc.version,
		Checks:    make([]Check, 0, len(names)),
	}

	for _, name := range names {
		hc.mu.RLock()
		dep := hc.deps[name]
		hc.mu.RUnlock()

		start := time.Now()
		check := Check{Name: name, Status: StatusHealthy}
		if err := dep.Health(); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			report.Status = StatusUnhealthy
		}
		check.Duration = time.Since(start)
		report.Checks = append(report.Checks, check)
	}

	return report
}

// StartPeriodicHealthCheck 定期执行检查并在状态变化时记录日志，ctx 取消后返回
func (hc *HealthChecker) StartPeriodicHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	last := StatusHealthy
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			report := hc.CheckHealth()
			if report.Status == last {
				continue
			}
			last = report.Status

			if report.Status == StatusUnhealthy {
				for _, c := range report.Checks {
					if c.Status == StatusUnhealthy {
						hc.logger.Error("dependency health check failed",
							zap.String("dependency", c.Name),
							zap.String("error", c.Message),
						)
					}
				}
			} else {
				hc.logger.Info("all dependencies healthy again",
					zap.Duration("uptime", report.Uptime),
				)
			}
		}
	}
}
