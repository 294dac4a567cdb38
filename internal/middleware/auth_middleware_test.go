package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-bar-manager/internal/model"
	"go-bar-manager/internal/session"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator map[string]*session.Session

func (s stubValidator) ValidateSession(_ context.Context, token string) (*session.Session, error) {
	if sess, ok := s[token]; ok {
		return sess, nil
	}
	return nil, errors.New("invalid or expired token")
}

func newTestApp() *fiber.App {
	barID := uuid.New()
	validator := stubValidator{
		"owner-token": {ProfileID: uuid.New(), Role: model.RoleOwner, Name: "patron", Permissions: model.AllPermissions},
		"staff-token": {ProfileID: uuid.New(), Role: model.RoleStaff, BarID: &barID, Name: "Awa", Permissions: []model.Permission{model.PermStockManagement}},
	}

	app := fiber.New()
	protected := app.Group("/api", RequireAuth(validator))
	protected.Get("/me", func(c *fiber.Ctx) error {
		return c.SendString(CurrentSession(c).Name)
	})
	protected.Get("/stock", RequirePermission(model.PermStockManagement), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	protected.Get("/cash", RequirePermission(model.PermCashManagement), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	protected.Get("/owner", RequireOwner(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return app
}

func TestRequireAuth(t *testing.T) {
	app := newTestApp()

	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing token", "", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic owner-token", "", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", "", http.StatusUnauthorized},
		{"bearer header", "Bearer owner-token", "", http.StatusOK},
		{"query fallback", "", "staff-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/api/me"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}

func TestPermissionGuards(t *testing.T) {
	app := newTestApp()

	tests := []struct {
		path  string
		token string
		want  int
	}{
		{"/api/stock", "staff-token", http.StatusOK},
		{"/api/cash", "staff-token", http.StatusForbidden},
		{"/api/cash", "owner-token", http.StatusOK},
		{"/api/owner", "staff-token", http.StatusForbidden},
		{"/api/owner", "owner-token", http.StatusOK},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, tt.path, nil)
		req.Header.Set("Authorization", "Bearer "+tt.token)
		resp, err := app.Test(req, -1)
		require.NoError(t, err)
		assert.Equal(t, tt.want, resp.StatusCode, "%s as %s", tt.path, tt.token)
	}
}
