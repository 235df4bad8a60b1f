package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"localmart/internal/http/middleware"
	"localmart/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_LIMIT", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.GetRequestID(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// requestError is a client mistake detected before reaching a service.
type requestError struct {
	code string
	msg  string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(code, msg string) error { return &requestError{code: code, msg: msg} }

// classify maps an error to status, code and a client-safe message. Service
// messages are safe to show; anything unclassified is a 500.
func classify(err error) (int, string, string) {
	var re *requestError
	if errors.As(err, &re) {
		return fiber.StatusBadRequest, re.code, re.msg
	}

	var se *service.Error
	if errors.As(err, &se) {
		switch {
		case errors.Is(se, service.ErrInvalidInput):
			return fiber.StatusBadRequest, "VALIDATION_ERROR", se.Msg
		case errors.Is(se, service.ErrUnauthorized):
			return fiber.StatusUnauthorized, "UNAUTHORIZED", se.Msg
		case errors.Is(se, service.ErrForbidden):
			return fiber.StatusForbidden, "FORBIDDEN", se.Msg
		case errors.Is(se, service.ErrNotFound):
			return fiber.StatusNotFound, "NOT_FOUND", se.Msg
		case errors.Is(se, service.ErrConflict):
			return fiber.StatusConflict, "CONFLICT", se.Msg
		case errors.Is(se, service.ErrInvalidState):
			return fiber.StatusConflict, "INVALID_STATE", se.Msg
		}
	}
	return fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error"
}

// fail writes err as an envelope. The cause of a 500 goes to the request log only.
func fail(c *fiber.Ctx, err error) error {
	status, code, msg := classify(err)
	if status == fiber.StatusInternalServerError {
		c.Locals(middleware.ErrorLocalKey, err)
	}
	return writeError(c, status, code, msg)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		message := ""
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
			message = fe.Message
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			return writeError(c, status, "UNAUTHORIZED", message)
		case fiber.StatusForbidden:
			return writeError(c, status, "FORBIDDEN", message)
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		case fiber.StatusTooManyRequests:
			return writeError(c, status, "RATE_LIMITED", "too many requests")
		case fiber.StatusUpgradeRequired:
			return writeError(c, status, "UPGRADE_REQUIRED", "websocket upgrade required")
		default:
			c.Locals(middleware.ErrorLocalKey, err)
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}
