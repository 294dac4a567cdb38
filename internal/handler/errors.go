package handler

import (
	"errors"

	"go-bar-manager/internal/cart"
	"go-bar-manager/internal/middleware"
	"go-bar-manager/internal/service"
	"go-bar-manager/internal/session"
	"go-bar-manager/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// respondError names the failed action and maps err to a status and a stable code.
func respondError(c *fiber.Ctx, action string, err error) error {
	body := fiber.Map{"error": err.Error(), "action": action}

	var verr *service.ValidationError
	status, code := fiber.StatusInternalServerError, "UNKNOWN"
	switch {
	case errors.As(err, &verr):
		status, code = fiber.StatusBadRequest, "VALIDATION_ERROR"
		body["fields"] = verr.Fields
	case errors.Is(err, service.ErrInvalidCredentials):
		status, code = fiber.StatusUnauthorized, "INVALID_CREDENTIALS"
	case errors.Is(err, service.ErrSessionRevoked), errors.Is(err, jwt.ErrInvalidToken), errors.Is(err, jwt.ErrMissingToken):
		status, code = fiber.StatusUnauthorized, "UNAUTHENTICATED"
	case errors.Is(err, service.ErrAccountDisabled):
		status, code = fiber.StatusForbidden, "ACCOUNT_DISABLED"
	case errors.Is(err, service.ErrProfileNotFound):
		status, code = fiber.StatusForbidden, "PROFILE_NOT_FOUND"
	case errors.Is(err, service.ErrUnauthorized):
		status, code = fiber.StatusForbidden, "UNAUTHORIZED"
	case errors.Is(err, service.ErrInsufficientStock):
		status, code = fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, service.ErrInvalidTransition):
		status, code = fiber.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, service.ErrAccountExists):
		status, code = fiber.StatusConflict, "ACCOUNT_EXISTS"
	case errors.Is(err, service.ErrBusy):
		status, code = fiber.StatusConflict, "BUSY"
	case errors.Is(err, service.ErrWrongPassword):
		status, code = fiber.StatusBadRequest, "WRONG_PASSWORD"
	case errors.Is(err, service.ErrNotFound), errors.Is(err, cart.ErrUnknownItem):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, service.ErrRemoteUnavailable):
		status, code = fiber.StatusServiceUnavailable, "REMOTE_UNAVAILABLE"
		body["error"] = "Service temporarily unavailable"
	}

	body["code"] = code
	return c.Status(status).JSON(body)
}

func badRequest(c *fiber.Ctx, action, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg, "code": "VALIDATION_ERROR", "action": action})
}

// paramUUID parses a path parameter as a UUID
func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

func actor(c *fiber.Ctx) *session.Session {
	return middleware.CurrentSession(c)
}
