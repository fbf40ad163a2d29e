package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/ogurasousui/codex-task-review/internal/adapters/http/handler"
	"github.com/ogurasousui/codex-task-review/internal/adapters/http/middleware"
	"github.com/ogurasousui/codex-task-review/internal/adapters/repository/postgres"
	redisrepo "github.com/ogurasousui/codex-task-review/internal/adapters/repository/redis"
	"github.com/ogurasousui/codex-task-review/internal/core/dashboard"
	"github.com/ogurasousui/codex-task-review/internal/core/employee"
	"github.com/ogurasousui/codex-task-review/internal/core/identity"
	"github.com/ogurasousui/codex-task-review/internal/core/task"
	"github.com/ogurasousui/codex-task-review/internal/platform/auth"
	"github.com/ogurasousui/codex-task-review/internal/platform/config"
	pg "github.com/ogurasousui/codex-task-review/internal/platform/db/postgres"
	"github.com/ogurasousui/codex-task-review/internal/platform/logging"
	"github.com/ogurasousui/codex-task-review/internal/platform/server"
	"go.uber.org/zap"
)

type denylist interface {
	middleware.Denylist
	handler.TokenRevoker
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("failed to load .env: %v", err)
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.Logger.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to initialize database pool", zap.Error(err))
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool,
		pg.WithTxLogger(logger.Named("tx")),
		pg.WithReadWriteIsolation(pgx.ReadCommitted),
	)

	var revocations denylist = redisrepo.NoopDenylist{}
	if cfg.Redis.Enabled() {
		client, err := redisrepo.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer client.Close()
		revocations = redisrepo.NewTokenDenylist(client, cfg.Redis.KeyPrefix)
	} else {
		logger.Warn("redis is not configured; logout will not revoke tokens")
	}

	employeeRepo := postgres.NewEmployeeRepository(dbPool)
	userRepo := postgres.NewUserRepository(dbPool)
	taskRepo := postgres.NewTaskRepository(dbPool)
	dashboardRepo := postgres.NewDashboardRepository(dbPool)

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	identitySvc := identity.NewService(userRepo, employeeRepo, auth.NewBcryptHasher(cfg.Auth.BcryptCost), tokens, nil, txManager)
	employeeSvc := employee.NewService(employeeRepo, taskRepo, identitySvc, nil, txManager)
	taskSvc := task.NewService(taskRepo, employeeRepo, nil, txManager)
	dashboardSvc := dashboard.NewService(dashboardRepo, txManager)

	expose := cfg.Server.ExposeErrors
	router := handler.NewRouter(handler.RouterConfig{
		BasePath:      cfg.Server.BasePath,
		Logger:        logger.Named("http"),
		Authenticator: middleware.NewAuthenticator(tokens, revocations, identitySvc, logger.Named("auth")),
		Auth:          handler.NewAuthHandler(identitySvc, revocations, logger, expose),
		Employees:     handler.NewEmployeeHandler(employeeSvc, taskSvc, logger, expose),
		Tasks:         handler.NewTaskHandler(taskSvc, logger, expose),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc, logger, expose),
	})

	srv := server.New(server.Config{
		ListenAddr:      cfg.Server.ListenAddr,
		HealthAddr:      cfg.Server.HealthAddr,
		AllowedOrigins:  cfg.Server.AllowedOrigins,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router, logger)

	logger.Info("task review api starting",
		zap.String("listen_addr", cfg.Server.ListenAddr),
		zap.String("base_path", cfg.Server.BasePath),
	)

	if err := srv.Run(ctx); err != nil {
		logger.Fatal("server stopped with error", zap.Error(err))
	}
}
