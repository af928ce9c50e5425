package sql

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "github.com/lib/pq"              // PostgreSQL driver
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"openlang/backend/internal/domain"
	"openlang/backend/internal/storage"
)

// Store SQL 数据库存储实现（支持 MySQL 5.7+ 和 PostgreSQL）
type Store struct {
	db         *sql.DB
	gormDB     *gorm.DB
	driverName string // "mysql" or "postgres"
}

// NewStore 创建SQL数据库存储
//
// 参数:
//   - driverName: "mysql" 或 "postgres"
//   - dsn: 数据库连接字符串
//   - maxOpenConns / maxIdleConns / connMaxLifetime: 连接池参数
func NewStore(
	driverName string,
	dsn string,
	maxOpenConns int,
	maxIdleConns int,
	connMaxLifetime time.Duration,
) (*Store, error) {
	if driverName != "mysql" && driverName != "postgres" {
		return nil, fmt.Errorf("unsupported database driver: %s (supported: mysql, postgres)", driverName)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store, err := NewStoreWithDB(driverName, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewStoreWithDB 使用已有的连接创建存储，不做连通性检查
func NewStoreWithDB(driverName string, db *sql.DB) (*Store, error) {
	var dialector gorm.Dialector
	switch driverName {
	case "postgres":
		dialector = postgres.New(postgres.Config{Conn: db})
	case "mysql":
		dialector = mysql.New(mysql.Config{Conn: db, SkipInitializeWithVersion: true})
	default:
		return nil, fmt.Errorf("unsupported database driver: %s (supported: mysql, postgres)", driverName)
	}

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize GORM: %w", err)
	}

	return &Store{
		db:         db,
		gormDB:     gormDB,
		driverName: driverName,
	}, nil
}

// Insert 写入一条表单记录
func (s *Store) Insert(ctx context.Context, rec domain.Record) error {
	storage.Stamp(rec)

	if err := s.gormDB.WithContext(ctx).Table(rec.TableName()).Create(rec).Error; err != nil {
		return fmt.Errorf("insert into %s: %w", rec.TableName(), err)
	}
	return nil
}

// Migrate 创建或更新全部表单数据表
func (s *Store) Migrate() error {
	return s.gormDB.AutoMigrate(domain.AllRecords()...)
}

// DriverName 返回当前驱动名称
func (s *Store) DriverName() string {
	return s.driverName
}

// Close 关闭数据库连接
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Health 检查数据库健康状态
func (s *Store) Health() error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return s.db.Ping()
}
