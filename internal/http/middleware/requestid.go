package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	RequestIDHeader   = "X-Request-ID"
	RequestIDLocalKey = "request_id"

	// RequestIDSpanAttr tags the active server span with the request id.
	RequestIDSpanAttr = "http.request_id"

	maxRequestIDLen = 128
)

// RequestID accepts a caller's X-Request-ID when it is short printable ASCII
// and otherwise issues a UUID. The id is echoed in the response, kept in
// locals for the logger and error envelope, and set on the span otelfiber
// started for this request.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if !validRequestID(id) {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)
		trace.SpanFromContext(c.UserContext()).SetAttributes(attribute.String(RequestIDSpanAttr, id))

		return c.Next()
	}
}

// RequestIDFrom returns the id RequestID stored, or "" when it did not run.
func RequestIDFrom(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDLocalKey).(string)
	return id
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
