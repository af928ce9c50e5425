package redis

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"openlang/backend/internal/config"
)

func TestNew(t *testing.T) {
	t.Run("连接成功", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := New(&config.RedisConfig{Address: mr.Addr()}, zap.NewNop())
		require.NoError(t, err)
		defer client.Close()

		assert.NoError(t, client.Health())
		assert.NotNil(t, client.Client())
	})

	t.Run("缺少地址", func(t *testing.T) {
		_, err := New(&config.RedisConfig{}, nil)
		assert.Error(t, err)
	})

	t.Run("服务不可达", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := New(&config.RedisConfig{Address: addr}, nil)
		assert.Error(t, err)
	})

	t.Run("服务下线后健康检查失败", func(t *testing.T) {
		mr := miniredis.RunT(t)

		client, err := New(&config.RedisConfig{Address: mr.Addr()}, nil)
		require.NoError(t, err)
		defer client.Close()

		mr.Close()
		assert.Error(t, client.Health())
	})
}
