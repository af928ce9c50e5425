package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"openlang/backend/internal/config"
	"openlang/backend/internal/domain"
	"openlang/backend/internal/storage"
)

// Querier 是 Store 依赖的最小连接池接口，*pgxpool.Pool 与 pgxmock 均满足
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// Store 基于 pgx 原生连接池的 PostgreSQL 存储实现
type Store struct {
	pool    Querier
	builder squirrel.StatementBuilderType
}

// New 按配置建立连接池并创建存储
func New(cfg *config.DatabaseConfig) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database DSN: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = int32(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime
	}
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return NewWithPool(pool), nil
}

// NewWithPool 使用已有连接池创建存储
func NewWithPool(pool Querier) *Store {
	return &Store{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Insert 写入一条表单记录
func (s *Store) Insert(ctx context.Context, rec domain.Record) error {
	storage.Stamp(rec)

	query, args, err := s.builder.
		Insert(rec.TableName()).
		SetMap(rec.Columns()).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert for %s: %w", rec.TableName(), err)
	}

	if _, err := s.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", rec.TableName(), err)
	}
	return nil
}

// Health 检查连接池是否可用
func (s *Store) Health() error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}

// Close 关闭连接池
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}
