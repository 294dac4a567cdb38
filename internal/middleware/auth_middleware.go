package middleware

import (
	"context"
	"strings"

	"go-bar-manager/internal/model"
	"go-bar-manager/internal/session"

	"github.com/gofiber/fiber/v2"
)

// SessionKey is the fiber Locals key of the *session.Session
const SessionKey = "session"

// SessionValidator turns a bearer token into a live session.
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*session.Session, error)
}

// RequireAuth is middleware that validates the JWT token, checks it against
// the credential's token version and stores the session in context
func RequireAuth(validator SessionValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, errMsg := TokenFromRequest(c)
		if errMsg != "" {
			return c.Status(401).JSON(fiber.Map{"error": errMsg, "code": "UNAUTHENTICATED", "action": "authenticate request"})
		}

		sess, err := validator.ValidateSession(c.UserContext(), token)
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": err.Error(), "code": "UNAUTHENTICATED", "action": "authenticate request"})
		}

		// Set session info in context for downstream handlers
		c.Locals(SessionKey, sess)
		c.Locals("user_id", sess.ActorID())
		c.Locals("user_name", sess.Name)

		return c.Next()
	}
}

// TokenFromRequest reads "Authorization: Bearer <token>", falling back to the
// token query parameter used by websocket clients.
func TokenFromRequest(c *fiber.Ctx) (string, string) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		if token := c.Query("token"); token != "" {
			return token, ""
		}
		return "", "Missing authorization token"
	}

	// Extract token from "Bearer <token>"
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", "Invalid authorization format. Use: Bearer <token>"
	}
	return parts[1], ""
}

// CurrentSession returns the session set by RequireAuth, or nil.
func CurrentSession(c *fiber.Ctx) *session.Session {
	sess, _ := c.Locals(SessionKey).(*session.Session)
	return sess
}

// RequirePermission checks the authenticated principal holds p. Owners hold all.
func RequirePermission(p model.Permission) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := CurrentSession(c)
		if sess == nil {
			return c.Status(401).JSON(fiber.Map{"error": "Unauthorized", "code": "UNAUTHENTICATED"})
		}
		if !sess.Can(p) {
			return c.Status(403).JSON(fiber.Map{
				"error": "Forbidden: requires '" + string(p) + "' permission",
				"code":  "UNAUTHORIZED",
			})
		}
		return c.Next()
	}
}

// RequireOwner rejects staff sessions.
func RequireOwner() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := CurrentSession(c)
		if sess == nil || !sess.IsOwner() {
			return c.Status(403).JSON(fiber.Map{"error": "Forbidden: owner only", "code": "UNAUTHORIZED"})
		}
		return c.Next()
	}
}
