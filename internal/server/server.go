// Package server assembles the Fiber app and middleware stack shared by both services.
package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"docstore/internal/http/handler"
	"docstore/internal/http/middleware"
)

const shutdownTimeout = 10 * time.Second

// NewApp returns a Fiber app with the standard error handler and middleware:
// tracing, request id, access log and HTTP metrics registered on reg.
func NewApp(name string, bodyLimit int, log *zap.Logger, reg prometheus.Registerer) (*fiber.App, error) {
	app := fiber.New(fiber.Config{
		AppName:               name,
		ErrorHandler:          handler.ErrorHandler(),
		BodyLimit:             bodyLimit,
		DisableStartupMessage: true,
	})

	prom, err := middleware.NewPrometheusMiddleware(reg)
	if err != nil {
		return nil, err
	}

	app.Use(otelfiber.Middleware())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger(log.Named("http")))
	app.Use(prom.Handler())

	return app, nil
}

// Run serves app on addr until SIGINT/SIGTERM or ctx is cancelled, then
// shuts down gracefully.
func Run(ctx context.Context, app *fiber.App, addr string, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server_listening", zap.String("addr", addr))
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("server_shutdown", zap.Duration("timeout", shutdownTimeout))
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
