package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("加载默认配置成功", func(t *testing.T) {
		t.Setenv("OPENLANG_DATABASE_TYPE", "memory")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "0.0.0.0", cfg.Server.Host)
		assert.Equal(t, 8080, cfg.Server.Port)
		assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, []string{"authorization", "x-client-info", "apikey", "content-type"}, cfg.CORS.AllowedHeaders)
		assert.Equal(t, "info", cfg.Log.Level)
		assert.False(t, cfg.Log.Development)
		assert.Equal(t, "memory", cfg.Database.Type)
		assert.Equal(t, "memory", cfg.RateLimit.Backend)
		assert.Equal(t, 5, cfg.RateLimit.Max)
		assert.Equal(t, time.Hour, cfg.RateLimit.Window)
		assert.Equal(t, 587, cfg.Mail.Port)
		assert.False(t, cfg.Mail.Enabled())
		assert.True(t, cfg.Mail.StartTLS)
		assert.Equal(t, 60*time.Second, cfg.Chat.Timeout)
		assert.Equal(t, 20, cfg.Guard.Burst)
	})

	t.Run("加载自定义配置成功", func(t *testing.T) {
		t.Setenv("OPENLANG_DATABASE_TYPE", "Postgres")
		t.Setenv("OPENLANG_DATABASE_DSN", "postgres://u:p@localhost:5432/site?sslmode=disable")
		t.Setenv("OPENLANG_SERVER_PORT", "9090")
		t.Setenv("OPENLANG_CORS_ALLOWED_ORIGINS", "https://openlang.org, https://www.openlang.org")
		t.Setenv("OPENLANG_RATELIMIT_MAX", "3")
		t.Setenv("OPENLANG_RATELIMIT_WINDOW", "30m")
		t.Setenv("OPENLANG_MAIL_HOST", "smtp.example.com")
		t.Setenv("OPENLANG_MAIL_PORT", "465")
		t.Setenv("OPENLANG_MAIL_FROM", "hello@openlang.org")
		t.Setenv("OPENLANG_MAIL_OPERATOR_ADDRESS", "team@openlang.org")
		t.Setenv("OPENLANG_MAIL_IMPLICIT_TLS", "true")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "postgres", cfg.Database.Type)
		assert.Equal(t, 9090, cfg.Server.Port)
		assert.Equal(t, []string{"https://openlang.org", "https://www.openlang.org"}, cfg.CORS.AllowedOrigins)
		assert.Equal(t, 3, cfg.RateLimit.Max)
		assert.Equal(t, 30*time.Minute, cfg.RateLimit.Window)
		assert.True(t, cfg.Mail.Enabled())
		assert.Equal(t, 465, cfg.Mail.Port)
		assert.True(t, cfg.Mail.ImplicitTLS)
		assert.Equal(t, "team@openlang.org", cfg.Mail.OperatorAddress)
	})

	t.Run("缺少存储类型时失败", func(t *testing.T) {
		t.Setenv("OPENLANG_DATABASE_TYPE", "")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("数据库类型缺少DSN时失败", func(t *testing.T) {
		t.Setenv("OPENLANG_DATABASE_TYPE", "mysql")
		t.Setenv("OPENLANG_DATABASE_DSN", "")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("Redis限流缺少地址时失败", func(t *testing.T) {
		t.Setenv("OPENLANG_DATABASE_TYPE", "memory")
		t.Setenv("OPENLANG_RATELIMIT_BACKEND", "redis")
		t.Setenv("OPENLANG_REDIS_ADDRESS", "")

		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("无效的限流窗口", func(t *testing.T) {
		t.Setenv("OPENLANG_DATABASE_TYPE", "memory")
		t.Setenv("OPENLANG_RATELIMIT_WINDOW", "soon")

		_, err := Load()
		assert.Error(t, err)
	})
}

func TestParseList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, parseList(" a, ,b ,"))
	assert.Empty(t, parseList(""))
}
