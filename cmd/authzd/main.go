// Package main provides the entry point for the authorization daemon.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/docaccess/authz-core/internal/api"
	"github.com/docaccess/authz-core/internal/audit"
	"github.com/docaccess/authz-core/internal/authzsvc"
	"github.com/docaccess/authz-core/internal/config"
	"github.com/docaccess/authz-core/internal/metrics"
	"github.com/docaccess/authz-core/internal/store"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	args := os.Args[1:]

	// A config file path must be known before the rest of the flags are
	// parsed (config.Load reads it first so flags can still override
	// it), so it gets its own small pre-pass flag set.
	preFs := flag.NewFlagSet("authzd-pre", flag.ContinueOnError)
	preFs.SetOutput(os.Stderr)
	path := preFs.String("config", "", "YAML config file path")
	showVersion := preFs.Bool("version", false, "Show version information")
	preFs.Usage = func() {}
	_ = preFs.Parse(args) // unknown-flag errors surface properly from config.Load's full parse below
	if *showVersion {
		fmt.Printf("authzd %s\n  Build Time: %s\n  Git Commit: %s\n", Version, BuildTime, GitCommit)
		os.Exit(0)
	}

	fs := flag.NewFlagSet("authzd", flag.ExitOnError)
	fs.String("config", *path, "YAML config file path")
	fs.Bool("version", false, "Show version information")

	cfg, err := config.Load(fs, args, *path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := initLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting authzd",
		zap.String("version", Version),
		zap.Int("http_port", cfg.HTTPPort),
		zap.String("store_backend", cfg.StoreBackend),
	)

	st, closeStore, err := buildStore(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize store", zap.Error(err))
	}
	defer closeStore()

	var lock store.ResourceLock
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		lock = store.NewRedisLock(client, "authzd:")
		logger.Info("distributed resource lock enabled", zap.String("redis_addr", cfg.RedisAddr))
	}

	m := metrics.New("authzd")

	var auditLogger audit.Logger
	if cfg.AuditLogPath != "" {
		auditLogger, err = audit.NewZapLogger(&audit.FileConfig{
			Path:       cfg.AuditLogPath,
			MaxSizeMB:  100,
			MaxAgeDays: 30,
			MaxBackups: 5,
			Compress:   true,
		})
		if err != nil {
			logger.Fatal("failed to initialize audit logger", zap.Error(err))
		}
	} else {
		auditLogger = audit.NoopLogger{}
	}

	svc := authzsvc.New(st, lock, m, auditLogger, cfg.LockTTL)

	watchCtx, cancelWatch := context.WithCancel(context.Background())
	defer cancelWatch()
	if cfg.PolicyDir != "" {
		dw, err := store.NewDirectoryWatcher(cfg.PolicyDir, st, logger)
		if err != nil {
			logger.Fatal("failed to initialize policy directory watcher", zap.Error(err))
		}
		if err := dw.Watch(watchCtx); err != nil {
			logger.Fatal("failed to start policy directory watcher", zap.Error(err))
		}
		defer dw.Stop()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	handler := api.NewHandler(svc, logger)
	handler.RegisterRoutes(router.Group(""))

	router.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/metrics", gin.WrapH(m.Handler()))

	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errChan := make(chan error, 1)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		logger.Info("http server listening", zap.Int("port", cfg.HTTPPort))
		errChan <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.GracefulTimeout)
		defer cancel()

		if err := httpSrv.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
		_ = auditLogger.Sync()
	}

	logger.Info("authzd stopped")
}

func buildStore(cfg config.Config, logger *zap.Logger) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case "postgres":
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := db.Ping(); err != nil {
			return nil, nil, fmt.Errorf("ping postgres: %w", err)
		}
		logger.Info("using postgres store")
		return store.NewPostgresStore(db), func() { _ = db.Close() }, nil
	default:
		logger.Info("using in-memory store")
		return store.NewMemoryStore(), func() {}, nil
	}
}

func initLogger(level string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	return cfg.Build()
}
