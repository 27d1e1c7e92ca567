package main

import (
	"context"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"docstore/internal/config"
	"docstore/internal/contentclient"
	"docstore/internal/database"
	"docstore/internal/database/migration"
	handlers "docstore/internal/http/handler"
	"docstore/internal/logger"
	"docstore/internal/metrics"
	"docstore/internal/otel"
	"docstore/internal/repository"
	"docstore/internal/repository/cache"
	"docstore/internal/repository/memory"
	"docstore/internal/repository/postgres"
	"docstore/internal/server"
	"docstore/internal/service"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.Location()).Named("analysis")
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := otel.Init(ctx, "analysis", log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer shutdownTracing(context.Background())

	db, err := database.Open(ctx, cfg.Database, migration.Analysis, log)
	if err != nil {
		log.Fatal("failed to open catalog", zap.Error(err))
	}
	var repo repository.AnalysisRepository = memory.NewAnalysisRepository()
	if db != nil {
		defer db.Close()
		repo = postgres.NewAnalysisPostgres(db)
	}

	if cfg.AnalysisCache.Enabled {
		cached, err := cache.NewAnalysisCache(ctx, repo,
			time.Duration(cfg.AnalysisCache.TTLSec)*time.Second,
			cfg.AnalysisCache.MaxMB,
			log.Named("cache"),
		)
		if err != nil {
			log.Fatal("failed to initialize analysis cache", zap.Error(err))
		}
		defer cached.Close()
		repo = cached
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		log.Fatal("failed to register metrics", zap.Error(err))
	}

	source := contentclient.New(cfg.ContentStore.URL, cfg.ContentStore.Timeout())
	analysisSvc := service.NewAnalysisService(repo, source,
		service.WithAnalysisLogger(log.Named("analysis")),
		service.WithAnalysisMetrics(rec),
	)

	app, err := server.NewApp("analysis", 0, log, reg)
	if err != nil {
		log.Fatal("failed to build http app", zap.Error(err))
	}
	handlers.RegisterAnalysisRoutes(app, db, reg, analysisSvc)

	log.Info("content_store_configured",
		zap.String("url", cfg.ContentStore.URL),
		zap.Duration("timeout", cfg.ContentStore.Timeout()),
	)
	if err := server.Run(ctx, app, ":"+cfg.Port, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
