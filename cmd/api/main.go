package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/bryanwahyu/automaton-compliance/internal/application"
	appcompliance "github.com/bryanwahyu/automaton-compliance/internal/application/compliance"
	"github.com/bryanwahyu/automaton-compliance/internal/config"
	domain "github.com/bryanwahyu/automaton-compliance/internal/domain/compliance"
	"github.com/bryanwahyu/automaton-compliance/internal/infra/ai/prompt"
	"github.com/bryanwahyu/automaton-compliance/internal/infra/ai/provider"
	"github.com/bryanwahyu/automaton-compliance/internal/infra/catalog"
	"github.com/bryanwahyu/automaton-compliance/internal/infra/db/memory"
	mysqlp "github.com/bryanwahyu/automaton-compliance/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/automaton-compliance/internal/infra/db/postgres"
	redisev "github.com/bryanwahyu/automaton-compliance/internal/infra/events/redis"
	"github.com/bryanwahyu/automaton-compliance/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/automaton-compliance/internal/infra/storage"
	"github.com/bryanwahyu/automaton-compliance/internal/logging"
	"github.com/bryanwahyu/automaton-compliance/internal/metrics"
	"github.com/bryanwahyu/automaton-compliance/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// metrics registry
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	health := map[string]middleware.HealthChecker{}

	// init repo
	repo, db, err := openReports(ctx, cfg, logger)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
		health["database"] = &middleware.DatabaseHealthChecker{DB: db}
	}

	// init minio (opsional)
	var store *minioStore.Store
	if cfg.Minio.Endpoint != "" {
		store, err = minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			return fmt.Errorf("minio init: %w", err)
		}
		health["storage"] = middleware.CheckFunc(store.Ping)
	}

	// catalog
	var loader domain.CatalogLoader = catalog.FileLoader{Path: cfg.Catalog.Path}
	if cfg.Catalog.Source == "minio" {
		if store == nil {
			return errors.New("catalog.source is minio but minio.endpoint is empty")
		}
		loader = catalog.ObjectLoader{Store: store, Key: cfg.Catalog.Object}
	}
	cat := catalog.NewCached(loader, logger)
	if _, err := cat.Catalog(ctx); err != nil {
		// tetap jalan; readiness akan 503 sampai catalog bisa diload
		logger.Warn("catalog not loaded at startup", zap.Error(err))
	}

	prompts, err := prompt.Load(cfg.Prompts.Dir, logger)
	if err != nil {
		return fmt.Errorf("prompts: %w", err)
	}

	oracle, err := provider.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("oracle: %w", err)
	}

	analyzer, err := appcompliance.NewAnalyzer(oracle, prompts,
		appcompliance.WithCallTimeout(cfg.Engine.CallTimeout),
		appcompliance.WithAnalyzerLogger(logger),
		appcompliance.WithAnalyzerMetrics(m),
	)
	if err != nil {
		return err
	}
	engine, err := appcompliance.NewEngine(cat, analyzer,
		appcompliance.WithMaxConcurrency(cfg.Engine.MaxConcurrency),
		appcompliance.WithEngineLogger(logger),
		appcompliance.WithEngineMetrics(m),
	)
	if err != nil {
		return err
	}

	// init service
	svc := &appcompliance.Service{
		Engine:  engine,
		Reports: repo,
		Clock:   application.SystemClock{},
		Logger:  logger,
	}
	if store != nil {
		svc.Artifacts = store
	}

	// redis events (opsional)
	rdb, err := redisev.New(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	if rdb != nil {
		defer rdb.Close()
		health["redis"] = middleware.CheckFunc(rdb.Health)
		svc.Events = redisev.NewPublisher(rdb, cfg.Redis.Channel)

		consumer := redisev.NewConsumer(rdb.Client, cfg.Redis.RequestChannel, func(ctx context.Context, cmd appcompliance.CheckCommand) error {
			_, err := svc.RunCheck(ctx, cmd)
			return err
		}, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("check request consumer stopped", zap.Error(err))
			}
		}()
	}

	// init router
	handler := httpserver.NewRouter(svc, httpserver.Options{
		Logger:    logger,
		Metrics:   m,
		Gatherer:  reg,
		APIKeys:   cfg.Auth.APIKeys,
		RateRPS:   cfg.RateLimit.RPS,
		RateBurst: cfg.RateLimit.Burst,
		Health:    health,
		Ready: middleware.CheckFunc(func(ctx context.Context) error {
			_, err := cat.Catalog(ctx)
			return err
		}),
		ReloadCatalog: func(ctx context.Context) (int, error) {
			c, err := cat.Reload(ctx)
			if err != nil {
				return 0, err
			}
			return c.Len(), nil
		},
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     handler,
		ReadTimeout: 15 * time.Second,
		// satu check bisa fan-out puluhan panggilan LLM
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// graceful shutdown
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	return nil
}

// openReports picks the report repository for database.driver.
func openReports(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.ReportRepository, *sql.DB, error) {
	switch cfg.Database.Driver {
	case "mysql":
		db, err := mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		return mysqlp.NewReportRepository(db), db, nil
	case "postgres":
		db, err := postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			return nil, nil, fmt.Errorf("postgres connect: %w", err)
		}
		return postgresp.NewReportRepository(db), db, nil
	default:
		logger.Warn("database.driver empty, reports kept in memory only")
		return memory.NewReportRepository(), nil, nil
	}
}
