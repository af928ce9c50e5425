package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ServerConfig 定义 HTTP 服务器的监听配置参数
type ServerConfig struct {
	Host string // 监听地址，默认 "0.0.0.0"
	Port int    // 监听端口，默认 8080
}

// CORSConfig 定义跨域资源共享 (CORS) 配置
type CORSConfig struct {
	AllowedOrigins []string // 允许的来源列表，"*" 表示允许所有来源
	AllowedHeaders []string // 允许的请求头
}

// LogConfig 定义日志系统配置
type LogConfig struct {
	Level       string // 日志级别: debug, info, warn, error
	Development bool   // 开发模式: 启用彩色输出和详细堆栈信息
	File        string // 日志文件路径，留空仅输出到标准输出
}

// DatabaseConfig 定义表单记录存储配置
type DatabaseConfig struct {
	Type            string // 存储类型: "postgres"、"mysql"（GORM）、"pgx"（原生连接池）或 "memory"（仅本地开发）
	DSN             string // 数据库连接字符串
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig 定义 Redis 配置，Address 为空表示不启用
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// RateLimitConfig 定义提交限流配置
type RateLimitConfig struct {
	Backend string        // "memory" 或 "redis"
	Max     int           // 窗口内允许的最大提交次数，默认 5
	Window  time.Duration // 窗口长度，默认 1 小时
	Sweep   time.Duration // 内存限流器清理过期条目的间隔
}

// MailConfig 定义外部 SMTP 中继配置
//
// Host 或 From 为空时视为未配置，通知会降级为仅记录日志。
type MailConfig struct {
	Host            string
	Port            int
	Username        string
	Password        string
	From            string
	FromName        string
	OperatorAddress string // 运营方收件地址，接收所有表单通知
	ImplicitTLS     bool   // true 时直接使用 TLS（465 端口）
	StartTLS        bool   // 非隐式 TLS 时是否要求 STARTTLS，默认开启
}

// Enabled 判断邮件中继是否已配置
func (m MailConfig) Enabled() bool {
	return m.Host != "" && m.From != ""
}

// ChatConfig 定义聊天助手上游网关配置
type ChatConfig struct {
	APIKey   string
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// GuardConfig 定义按 IP 的请求频率保护
type GuardConfig struct {
	RPS   float64
	Burst int
}

// Config 是系统核心配置的根结构体
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Log       LogConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Mail      MailConfig
	Chat      ChatConfig
	Guard     GuardConfig
}

// Load 从环境变量和 .env 文件加载系统配置
//
// 配置加载优先级（从高到低）：
//  1. 系统环境变量
//  2. .env 文件（如果存在）
//  3. 默认值
//
// 环境变量前缀: OPENLANG_，例如 OPENLANG_MAIL_HOST、OPENLANG_DATABASE_DSN
func Load() (*Config, error) {
	loadEnvFile()

	v := viper.New()
	v.SetEnvPrefix("openlang")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("cors.allowed_origins", "*")
	v.SetDefault("cors.allowed_headers", "authorization,x-client-info,apikey,content-type")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.file", "")
	v.SetDefault("database.type", "")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.max", 5)
	v.SetDefault("ratelimit.window", "1h")
	v.SetDefault("ratelimit.sweep", "10m")
	v.SetDefault("mail.host", "")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("mail.from_name", "OpenLang")
	v.SetDefault("mail.operator_address", "")
	v.SetDefault("mail.implicit_tls", false)
	v.SetDefault("mail.starttls", true)
	v.SetDefault("chat.api_key", "")
	v.SetDefault("chat.endpoint", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("chat.model", "gpt-4o-mini")
	v.SetDefault("chat.timeout", "60s")
	v.SetDefault("guard.rps", 1.0)
	v.SetDefault("guard.burst", 20)

	dbType := strings.ToLower(strings.TrimSpace(v.GetString("database.type")))
	switch dbType {
	case "":
		return nil, fmt.Errorf("database.type is required (postgres, mysql, pgx or memory)")
	case "postgres", "mysql", "pgx":
		if v.GetString("database.dsn") == "" {
			return nil, fmt.Errorf("database.dsn is required for database type %q", dbType)
		}
	case "memory":
	default:
		return nil, fmt.Errorf("unsupported database.type %q", dbType)
	}

	connMaxLifetime, err := time.ParseDuration(v.GetString("database.conn_max_lifetime"))
	if err != nil {
		connMaxLifetime = 5 * time.Minute
	}

	window, err := time.ParseDuration(v.GetString("ratelimit.window"))
	if err != nil {
		return nil, fmt.Errorf("invalid ratelimit.window: %w", err)
	}
	if window <= 0 {
		return nil, fmt.Errorf("ratelimit.window must be positive")
	}

	sweep, err := time.ParseDuration(v.GetString("ratelimit.sweep"))
	if err != nil {
		sweep = 10 * time.Minute
	}

	maxSubmissions := v.GetInt("ratelimit.max")
	if maxSubmissions <= 0 {
		maxSubmissions = 5
	}

	backend := strings.ToLower(v.GetString("ratelimit.backend"))
	if backend != "memory" && backend != "redis" {
		return nil, fmt.Errorf("unsupported ratelimit.backend %q", backend)
	}
	if backend == "redis" && v.GetString("redis.address") == "" {
		return nil, fmt.Errorf("redis.address is required when ratelimit.backend is redis")
	}

	chatTimeout, err := time.ParseDuration(v.GetString("chat.timeout"))
	if err != nil {
		chatTimeout = 60 * time.Second
	}

	corsOrigins := parseList(v.GetString("cors.allowed_origins"))
	if len(corsOrigins) == 0 {
		corsOrigins = []string{"*"}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: v.GetString("server.host"),
			Port: v.GetInt("server.port"),
		},
		CORS: CORSConfig{
			AllowedOrigins: corsOrigins,
			AllowedHeaders: parseList(v.GetString("cors.allowed_headers")),
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
			File:        v.GetString("log.file"),
		},
		Database: DatabaseConfig{
			Type:            dbType,
			DSN:             v.GetString("database.dsn"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Redis: RedisConfig{
			Address:  v.GetString("redis.address"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			Backend: backend,
			Max:     maxSubmissions,
			Window:  window,
			Sweep:   sweep,
		},
		Mail: MailConfig{
			Host:            strings.TrimSpace(v.GetString("mail.host")),
			Port:            v.GetInt("mail.port"),
			Username:        v.GetString("mail.username"),
			Password:        v.GetString("mail.password"),
			From:            strings.TrimSpace(v.GetString("mail.from")),
			FromName:        v.GetString("mail.from_name"),
			OperatorAddress: strings.TrimSpace(v.GetString("mail.operator_address")),
			ImplicitTLS:     v.GetBool("mail.implicit_tls"),
			StartTLS:        v.GetBool("mail.starttls"),
		},
		Chat: ChatConfig{
			APIKey:   v.GetString("chat.api_key"),
			Endpoint: v.GetString("chat.endpoint"),
			Model:    v.GetString("chat.model"),
			Timeout:  chatTimeout,
		},
		Guard: GuardConfig{
			RPS:   v.GetFloat64("guard.rps"),
			Burst: v.GetInt("guard.burst"),
		},
	}

	return cfg, nil
}

// parseList 将逗号分隔的字符串解析为字符串切片
func parseList(value string) []string {
	parts := strings.Split(value, ",")
	items := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}

// loadEnvFile 尝试加载 .env 文件
//
// 文件不存在时静默跳过；已存在的环境变量不会被覆盖。
func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	parentEnv := filepath.Join("..", ".env")
	if _, err := os.Stat(parentEnv); err == nil {
		_ = godotenv.Load(parentEnv)
	}
}
