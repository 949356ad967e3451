package middleware

import (
	"coinvest-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// ErrorHandler is the global error handler. Returns the standard error format.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}
	log.Error().
		Str("trace_id", GetTraceID(c)).
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", code).
		Err(err).
		Msg("request failed")
	return response.Error(c, message, code, nil)
}
