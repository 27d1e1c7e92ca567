package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	"docstore/internal/service"
)

// RegisterFileRoutes attaches the content store routes to app.
func RegisterFileRoutes(app *fiber.App, db *sql.DB, g prometheus.Gatherer, svc service.ContentService) {
	registerOps(app, db, g)

	app.Post("/api/files", UploadFile(svc))
	app.Get("/api/files/:id", GetFile(svc))
	app.Get("/api/files/:id/metadata", GetFileMetadata(svc))
	app.Get("/api/files/:id/bytes", GetFileBytes(svc))
}

// RegisterAnalysisRoutes attaches the analysis routes to app.
func RegisterAnalysisRoutes(app *fiber.App, db *sql.DB, g prometheus.Gatherer, svc service.AnalysisService) {
	registerOps(app, db, g)

	app.Get("/api/get_analysis/:id", GetAnalysis(svc))
}

func registerOps(app *fiber.App, db *sql.DB, g prometheus.Gatherer) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	if g != nil {
		app.Get("/metrics", Metrics(g))
	}
}
