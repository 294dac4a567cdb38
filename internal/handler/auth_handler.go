package handler

import (
	"go-bar-manager/internal/middleware"
	"go-bar-manager/internal/service"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	identity service.IdentityService
}

func NewAuthHandler(identity service.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// LoginRequest: identifier is a phone number, a username or an email
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type ChangePasswordRequest struct {
	Identifier  string `json:"identifier"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// Register creates an owner account and logs it in
// POST /api/v1/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	const action = "register"
	var req service.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, action, "Invalid JSON")
	}

	result, err := h.identity.Register(c.UserContext(), req)
	if err != nil {
		return respondError(c, action, err)
	}
	return c.Status(fiber.StatusCreated).JSON(result)
}

// Login handles authentication
// POST /api/v1/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	const action = "login"
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, action, "Invalid JSON")
	}

	result, err := h.identity.Authenticate(c.UserContext(), req.Identifier, req.Password)
	if err != nil {
		return respondError(c, action, err)
	}
	return c.JSON(result)
}

// Logout revokes the token and tears the session down
// POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.identity.Logout(c.UserContext(), actor(c)); err != nil {
		return respondError(c, "logout", err)
	}
	return c.JSON(fiber.Map{"message": "Logged out"})
}

// Heartbeat marks the caller online
// POST /api/v1/auth/heartbeat
func (h *AuthHandler) Heartbeat(c *fiber.Ctx) error {
	at, err := h.identity.Heartbeat(c.UserContext(), actor(c))
	if err != nil {
		return respondError(c, "heartbeat", err)
	}
	return c.JSON(fiber.Map{"message": "Heartbeat received", "status": "online", "last_seen_at": at})
}

// ChangePassword handles password change
// POST /api/v1/auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	const action = "change password"
	var req ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, action, "Invalid JSON")
	}

	if req.Identifier == "" || req.OldPassword == "" || req.NewPassword == "" {
		return badRequest(c, action, "identifier, old_password, and new_password are required")
	}

	if err := h.identity.ChangePassword(c.UserContext(), req.Identifier, req.OldPassword, req.NewPassword); err != nil {
		return respondError(c, action, err)
	}
	return c.JSON(fiber.Map{"message": "Password updated successfully"})
}

// ValidateToken checks the token and returns the session principal
// POST /api/v1/auth/validate-token
func (h *AuthHandler) ValidateToken(c *fiber.Ctx) error {
	token, errMsg := middleware.TokenFromRequest(c)
	if errMsg != "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": errMsg, "code": "UNAUTHENTICATED", "action": "validate token"})
	}

	sess, err := h.identity.ValidateSession(c.UserContext(), token)
	if err != nil {
		return respondError(c, "validate token", err)
	}
	return c.JSON(fiber.Map{
		"valid":       true,
		"profile_id":  sess.ProfileID,
		"role":        sess.Role,
		"bar_id":      sess.BarID,
		"name":        sess.Name,
		"permissions": sess.Permissions,
	})
}
