package main

import (
	"context"
	"fmt"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"docstore/internal/config"
	"docstore/internal/database"
	"docstore/internal/database/migration"
	"docstore/internal/fingerprint"
	handlers "docstore/internal/http/handler"
	"docstore/internal/logger"
	"docstore/internal/metrics"
	"docstore/internal/otel"
	"docstore/internal/repository"
	"docstore/internal/repository/memory"
	"docstore/internal/repository/postgres"
	"docstore/internal/server"
	"docstore/internal/service"
	"docstore/internal/storage"
)

func main() {
	// Load configuration from environment variables (.env auto-loaded if present)
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.Location()).Named("filestore")
	defer log.Sync()

	ctx := context.Background()

	shutdownTracing, err := otel.Init(ctx, "filestore", log)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer shutdownTracing(context.Background())

	db, err := database.Open(ctx, cfg.Database, migration.FileStore, log)
	if err != nil {
		log.Fatal("failed to open catalog", zap.Error(err))
	}
	var repo repository.FileRepository = memory.NewFileRepository()
	if db != nil {
		defer db.Close()
		repo = postgres.NewFilePostgres(db)
	}

	objStore, err := newStorage(cfg)
	if err != nil {
		log.Fatal("failed to initialize storage", zap.Error(err), zap.String("backend", cfg.Storage.Backend))
	}

	fp, err := fingerprint.New(cfg.FingerprintAlgorithm)
	if err != nil {
		log.Fatal("invalid fingerprint algorithm", zap.Error(err))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec, err := metrics.NewRecorder(reg)
	if err != nil {
		log.Fatal("failed to register metrics", zap.Error(err))
	}

	contentSvc := service.NewContentService(objStore, repo,
		service.WithFingerprint(fp),
		service.WithContentLogger(log.Named("content")),
		service.WithContentMetrics(rec),
	)

	app, err := server.NewApp("filestore", cfg.MaxUploadBytes(), log, reg)
	if err != nil {
		log.Fatal("failed to build http app", zap.Error(err))
	}
	handlers.RegisterFileRoutes(app, db, reg, contentSvc)

	if err := server.Run(ctx, app, ":"+cfg.Port, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newStorage(cfg *config.AppConfig) (storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "minio":
		return storage.NewMinIO(cfg.MinIO)
	case "local":
		return storage.NewLocal(cfg.Storage.LocalRoot)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}
