package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wolfman30/incident-report-ai/cmd/mainconfig"
	"github.com/wolfman30/incident-report-ai/internal/api/router"
	"github.com/wolfman30/incident-report-ai/internal/app/bootstrap"
	"github.com/wolfman30/incident-report-ai/internal/archive"
	appconfig "github.com/wolfman30/incident-report-ai/internal/config"
	httpmiddleware "github.com/wolfman30/incident-report-ai/internal/http/middleware"
	"github.com/wolfman30/incident-report-ai/internal/observability/metrics"
	"github.com/wolfman30/incident-report-ai/internal/reports"
	"github.com/wolfman30/incident-report-ai/internal/validation"
	"github.com/wolfman30/incident-report-ai/pkg/logging"
)

type appMetrics struct {
	validation *metrics.ValidationMetrics
	llm        *metrics.LLMMetrics
	reports    *metrics.ReportMetrics
}

func main() {
	_ = godotenv.Load()

	cfg := appconfig.Load()
	logger := logging.NewWithFormat(cfg.LogLevel, cfg.LogFormat)
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.Info("starting incident report API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"validation_store", cfg.ValidationStore,
		"llm_provider", cfg.LLMProvider,
	)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	metricsHandler, m := setupMetrics()

	awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
	if err != nil {
		logger.Error("failed to load AWS config", "error", err)
		os.Exit(1)
	}

	llmClient, err := bootstrap.BuildLLMClient(ctx, cfg, awsCfg, m.llm, logger)
	if err != nil {
		logger.Error("failed to build LLM client", "error", err)
		os.Exit(1)
	}

	store, redisClient, err := bootstrap.BuildValidationStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build validation store", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	if cfg.ValidationSweepInterval > 0 {
		sweeper := validation.NewSweeper(store, cfg.ValidationMaxAge, cfg.ValidationSweepInterval, logger).
			WithMetrics(m.validation)
		go sweeper.Start(ctx)
	}

	pool := connectPostgresPool(ctx, cfg.DatabaseURL, logger)
	if pool != nil {
		defer pool.Close()
	}
	repo := buildReportRepository(pool)

	svc := reports.NewService(llmClient, store, repo, reports.Options{
		MaxAttempts: cfg.ValidationMaxAttempts,
		MaxTokens:   int32(cfg.LLMMaxTokens),
		Temperature: float32(cfg.LLMTemperature),
		LLMTimeout:  cfg.LLMTimeout,
	}, logger).WithMetrics(m.validation, m.reports)

	if cfg.ReportArchiveBucket != "" {
		archiver := archive.NewStore(mainconfig.NewS3Client(awsCfg), cfg.ReportArchiveBucket, logger)
		svc = svc.WithArchiver(archiver)
		logger.Info("report archive enabled", "bucket", cfg.ReportArchiveBucket)
	}

	var limiter *httpmiddleware.RateLimiter
	if cfg.GenerateRateLimit > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.GenerateRateLimit, cfg.GenerateRateBurst)
		go limiter.StartEviction(ctx, time.Minute, 10*time.Minute)
	}

	checks := map[string]router.HealthCheck{}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}

	r := router.New(&router.Config{
		Logger:             logger,
		ReportsHandler:     reports.NewHandler(svc, logger),
		AuthJWTSecret:      cfg.AuthJWTSecret,
		MetricsHandler:     metricsHandler,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		GenerateLimiter:    limiter,
		HealthChecks:       checks,
	})

	// Model calls can run up to LLMTimeout, so the write deadline follows it.
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.LLMTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
	fmt.Println("Server exited gracefully")
}

func setupMetrics() (http.Handler, *appMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := &appMetrics{
		validation: metrics.NewValidationMetrics(reg),
		llm:        metrics.NewLLMMetrics(reg),
		reports:    metrics.NewReportMetrics(reg),
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}

func connectPostgresPool(ctx context.Context, url string, logger *logging.Logger) *pgxpool.Pool {
	if url == "" {
		logger.Warn("DATABASE_URL not set; reports are kept in memory")
		return nil
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(pingCtx, url)
	if err != nil {
		logger.Error("failed to create postgres pool", "error", err)
		os.Exit(1)
	}
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		logger.Error("failed to reach postgres", "error", err)
		os.Exit(1)
	}
	logger.Info("connected to postgres")
	return pool
}

func buildReportRepository(pool *pgxpool.Pool) reports.Repository {
	if pool == nil {
		return reports.NewInMemoryRepository()
	}
	return reports.NewPostgresRepository(pool)
}
