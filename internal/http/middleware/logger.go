package middleware

import (
	"io"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"localmart/internal/logx"
)

// Logger writes one JSON line per request to stdout in UTC.
func Logger() fiber.Handler {
	return LoggerWithWriter(os.Stdout, time.UTC)
}

// LoggerWithWriter logs request_id, method, path, status and latency (ms) to w.
// Internal errors stashed under ErrorLocalKey are added as error_message.
func LoggerWithWriter(w io.Writer, loc *time.Location) fiber.Handler {
	log := logx.New(w, loc)

	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		internal, _ := c.Locals(ErrorLocalKey).(error)
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				// Unhandled errors become 500s in the global error handler.
				status = fiber.StatusInternalServerError
				internal = err
			}
		}
		rec := map[string]any{
			"request_id": GetRequestID(c),
			"method":     c.Method(),
			"path":       c.Path(),
			"status":     status,
			"latency":    float64(time.Since(start).Microseconds()) / 1000,
		}
		switch {
		case status >= fiber.StatusInternalServerError:
			rec["level"] = "error"
		case status >= fiber.StatusBadRequest:
			rec["level"] = "warn"
		}
		if internal != nil {
			rec["error_message"] = internal.Error()
		}
		log.Log(rec)
		return err
	}
}
