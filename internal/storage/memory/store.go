package memory

import (
	"context"
	"sync"

	"openlang/backend/internal/domain"
	"openlang/backend/internal/storage"
)

// Store 内存存储实现，仅用于本地开发和测试
//
// 进程重启后数据丢失。
type Store struct {
	mu     sync.RWMutex
	tables map[string][]domain.Record
}

// NewStore 创建内存存储
func NewStore() *Store {
	return &Store{
		tables: make(map[string][]domain.Record),
	}
}

// Insert 写入记录
func (s *Store) Insert(ctx context.Context, rec domain.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	storage.Stamp(rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[rec.TableName()] = append(s.tables[rec.TableName()], rec)
	return nil
}

// Records 返回指定表中的记录副本，按写入顺序排列
func (s *Store) Records(table string) []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Record, len(s.tables[table]))
	copy(out, s.tables[table])
	return out
}

// Count 返回指定表中的记录数
func (s *Store) Count(table string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tables[table])
}

// Health 内存存储始终可用
func (s *Store) Health() error {
	return nil
}

// Close 释放资源
func (s *Store) Close() error {
	return nil
}
