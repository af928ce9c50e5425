package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeDep struct {
	down atomic.Bool
}

func (d *fakeDep) Health() error {
	if d.down.Load() {
		return errors.New("connection refused")
	}
	return nil
}

func TestHealthChecker_Endpoints(t *testing.T) {
	db := &fakeDep{}
	hc := NewHealthChecker(zap.NewNop(), "test")
	hc.AddDependency("database", db)

	t.Run("依赖正常", func(t *testing.T) {
		rec := httptest.NewRecorder()
		hc.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("依赖异常时未就绪但仍存活", func(t *testing.T) {
		db.down.Store(true)
		defer db.down.Store(false)

		rec := httptest.NewRecorder()
		hc.ReadyEndpoint(rec, httptest.NewRequest(http.MethodGet, "/health/ready?full=1", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Body.String(), "connection refused")

		rec = httptest.NewRecorder()
		hc.LiveEndpoint(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestHealthChecker_CheckHealth(t *testing.T) {
	db := &fakeDep{}
	cache := &fakeDep{}
	hc := NewHealthChecker(nil, "v1.2.3")
	hc.AddDependency("redis", cache)
	hc.AddDependency("database", db)

	report := hc.CheckHealth()
	assert.Equal(t, StatusHealthy, report.Status)
	assert.Equal(t, "v1.2.3", report.Version)
	require.Len(t, report.Checks, 2)
	assert.Equal(t, "database", report.Checks[0].Name)
	assert.Equal(t, "redis", report.Checks[1].Name)

	cache.down.Store(true)
	report = hc.CheckHealth()
	assert.Equal(t, StatusUnhealthy, report.Status)
	assert.Equal(t, StatusHealthy, report.Checks[0].Status)
	assert.Equal(t, StatusUnhealthy, report.Checks[1].Status)
	assert.Equal(t, "connection refused", report.Checks[1].Message)
}

func TestHealthChecker_PeriodicLogsTransitions(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	db := &fakeDep{}
	db.down.Store(true)

	hc := NewHealthChecker(zap.New(core), "test")
	hc.AddDependency("database", db)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hc.StartPeriodicHealthCheck(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("dependency health check failed").Len() > 0
	}, time.Second, 5*time.Millisecond)

	db.down.Store(false)
	assert.Eventually(t, func() bool {
		return logs.FilterMessage("all dependencies healthy again").Len() > 0
	}, time.Second, 5*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, 1, logs.FilterMessage("dependency health check failed").Len())
}
