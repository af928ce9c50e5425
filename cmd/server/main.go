package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"openlang/backend/internal/chat"
	"openlang/backend/internal/config"
	"openlang/backend/internal/health"
	"openlang/backend/internal/logger"
	"openlang/backend/internal/mailer"
	"openlang/backend/internal/middleware"
	"openlang/backend/internal/monitoring"
	"openlang/backend/internal/ratelimit"
	"openlang/backend/internal/storage"
	"openlang/backend/internal/storage/memory"
	"openlang/backend/internal/storage/postgres"
	redisstore "openlang/backend/internal/storage/redis"
	sqlstore "openlang/backend/internal/storage/sql"
	"openlang/backend/internal/submission"
	httptransport "openlang/backend/internal/transport/http"
)

const version = "1.0.0"

// main 启动表单提交与聊天代理的 HTTP 服务。
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	log, err := logger.NewLogger(logger.FromConfig(cfg.Log))
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting openlang backend",
		zap.String("version", version),
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("development", cfg.Log.Development),
	)

	// 存储不可用时直接退出，不存在非持久化的降级路径
	store, err := initializeStore(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	var redisClient *redisstore.Client
	if cfg.Redis.Address != "" {
		redisClient, err = redisstore.New(&cfg.Redis, log)
		if err != nil {
			log.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
	}

	limiter := initializeLimiter(cfg, redisClient, log)

	metrics := monitoring.NewMetrics()

	healthChecker := health.NewHealthChecker(log, version)
	healthChecker.AddDependency("store", store)
	if redisClient != nil {
		healthChecker.AddDependency("redis", redisClient)
	}

	dispatcher := initializeDispatcher(cfg, log)

	var services []*submission.Service
	for _, form := range submission.Forms() {
		services = append(services, submission.NewService(form, store, limiter, dispatcher, metrics, log))
	}

	chatClient := chat.NewClient(cfg.Chat, nil)
	if !chatClient.Configured() {
		log.Warn("chat gateway key not set, /api/chat will return errors")
	}

	guard := middleware.NewIPGuard(cfg.Guard.RPS, cfg.Guard.Burst, metrics)

	router := httptransport.NewRouter(httptransport.RouterDependencies{
		Config:   cfg,
		Services: services,
		Chat:     chatClient,
		Health:   healthChecker,
		Metrics:  metrics,
		Guard:    guard,
		Logger:   log,
	})

	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		// 聊天流可能持续较久，不设置 WriteTimeout
		IdleTimeout: 120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("starting HTTP server", zap.String("address", httpAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", zap.Error(err))
			return err
		}
		return nil
	})

	group.Go(func() error {
		healthChecker.StartPeriodicHealthCheck(groupCtx, 30*time.Second)
		return nil
	})

	group.Go(func() error {
		guard.StartCleanup(groupCtx, 5*time.Minute, 10*time.Minute)
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		log.Info("shutdown signal received, gracefully shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", zap.Error(err))
		}
		if closer, ok := limiter.(interface{ Close() error }); ok {
			_ = closer.Close()
		}

		log.Info("server stopped")
		return nil
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal("server error", zap.Error(err))
	}

	log.Info("server exited cleanly")
}

// initializeStore 根据配置选择存储实现
//
// 参数:
//   - cfg: 配置对象
//   - log: 日志记录器
func initializeStore(cfg *config.Config, log *zap.Logger) (storage.Store, error) {
	db := cfg.Database

	switch db.Type {
	case "memory":
		log.Warn("using memory storage, submissions are lost on restart")
		return memory.NewStore(), nil
	case "postgres", "mysql":
		store, err := sqlstore.NewStore(db.Type, db.DSN, db.MaxOpenConns, db.MaxIdleConns, db.ConnMaxLifetime)
		if err != nil {
			return nil, err
		}
		log.Info("using database storage", zap.String("type", db.Type))
		return store, nil
	case "pgx":
		store, err := postgres.New(&db)
		if err != nil {
			return nil, err
		}
		log.Info("using pgx connection pool storage")
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", db.Type)
	}
}

// initializeLimiter 根据配置选择限流后端
func initializeLimiter(cfg *config.Config, redisClient *redisstore.Client, log *zap.Logger) ratelimit.Limiter {
	rl := cfg.RateLimit

	if rl.Backend == "redis" && redisClient != nil {
		log.Info("using redis rate limiter", zap.Int("max", rl.Max), zap.Duration("window", rl.Window))
		return ratelimit.NewRedisLimiter(redisClient.Client(), rl.Max, rl.Window)
	}

	log.Info("using in-memory rate limiter", zap.Int("max", rl.Max), zap.Duration("window", rl.Window))
	return ratelimit.NewMemoryLimiter(rl.Max, rl.Window, ratelimit.WithSweep(rl.Sweep))
}

// initializeDispatcher 创建通知分发器，未配置中继时只记录警告
func initializeDispatcher(cfg *config.Config, log *zap.Logger) *mailer.Dispatcher {
	from := mail.Address{Name: cfg.Mail.FromName, Address: cfg.Mail.From}

	// 必须传入无类型的 nil，否则接口值不为 nil
	var sender mailer.Sender
	if cfg.Mail.Enabled() {
		sender = mailer.NewSMTPSender(cfg.Mail)
		log.Info("mail relay configured",
			zap.String("host", cfg.Mail.Host),
			zap.Int("port", cfg.Mail.Port),
			zap.Bool("operator_notifications", cfg.Mail.OperatorAddress != ""),
		)
	} else {
		log.Warn("mail relay not configured, notifications will only be logged")
	}

	return mailer.NewDispatcher(sender, from, cfg.Mail.OperatorAddress, log)
}
