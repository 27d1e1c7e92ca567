package middleware

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"docstore/internal/logger"
)

// ErrorLocalKey holds the internal error message a handler chose not to expose to the client.
const ErrorLocalKey = "error_detail"

// Logger is a middleware that logs each HTTP request as one structured entry.
// Fields:
// - request_id (taken from context locals set by RequestID middleware)
// - method
// - path
// - status
// - latency (in milliseconds, as float)
func Logger(log *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		rid := RequestIDFrom(c)
		status := statusOf(c, err)
		fields := []zap.Field{
			zap.String("request_id", rid),
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Float64("latency", float64(time.Since(start).Microseconds())/1000),
		}
		if detail, ok := c.Locals(ErrorLocalKey).(string); ok && detail != "" {
			fields = append(fields, zap.String("error", detail))
		} else if err != nil {
			fields = append(fields, zap.Error(err))
		}

		if status >= fiber.StatusInternalServerError {
			log.Error("http_request", fields...)
		} else {
			log.Info("http_request", fields...)
		}
		return err
	}
}

// LoggerWithWriter is Logger backed by a JSON logger writing to w.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	return Logger(logger.NewWithWriter(w, "info", loc))
}

// statusOf reports the status the client will see. Errors returned up the
// chain are rendered later by the app's ErrorHandler.
func statusOf(c *fiber.Ctx, err error) int {
	if err == nil {
		return c.Response().StatusCode()
	}
	if fiberErr, ok := err.(*fiber.Error); ok {
		return fiberErr.Code
	}
	return fiber.StatusInternalServerError
}
