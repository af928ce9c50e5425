package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"openlang/backend/internal/domain"
)

// Store 定义表单记录的持久化操作。
//
// 实现需保证并发安全；写入成功后记录的 ID 与提交时间已被填充。
type Store interface {
	// Insert 为记录分配标识和提交时间后写入对应的数据表
	Insert(ctx context.Context, rec domain.Record) error
	// Health 检查底层存储是否可用
	Health() error
	Close() error
}

// Stamp 为记录分配 UUID 与 UTC 提交时间
//
// 时间截断到微秒，与 PostgreSQL/MySQL 的时间精度一致。
func Stamp(rec domain.Record) {
	rec.Assign(uuid.NewString(), time.Now().UTC().Truncate(time.Microsecond))
}
