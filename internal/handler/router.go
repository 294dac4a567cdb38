package handler

import (
	"go-bar-manager/internal/middleware"
	"go-bar-manager/internal/model"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// Handlers groups everything SetupRoutes mounts.
type Handlers struct {
	Auth      *AuthHandler
	Bar       *BarHandler
	Employee  *EmployeeHandler
	Inventory *InventoryHandler
	Cart      *CartHandler
	Order     *OrderHandler
	Stats     *StatsHandler
	Dashboard *DashboardHandler
	Realtime  *RealtimeHandler
}

func SetupRoutes(app *fiber.App, h Handlers, validator middleware.SessionValidator) {
	api := app.Group("/api/v1")

	// ============ PUBLIC ROUTES ============
	auth := api.Group("/auth")
	auth.Post("/register", h.Auth.Register)
	auth.Post("/login", h.Auth.Login)
	auth.Post("/change-password", h.Auth.ChangePassword)
	auth.Post("/validate-token", h.Auth.ValidateToken)
	auth.Post("/logout", middleware.RequireAuth(validator), h.Auth.Logout)
	auth.Post("/heartbeat", middleware.RequireAuth(validator), h.Auth.Heartbeat)

	// ============ PROTECTED ROUTES ============
	protected := api.Group("", middleware.RequireAuth(validator))

	// Bars
	protected.Get("/bars", h.Bar.GetBars)
	protected.Post("/bars", middleware.RequireOwner(), h.Bar.CreateBar)
	protected.Get("/bars/:barId", h.Bar.GetBar)
	protected.Put("/bars/:barId", middleware.RequireOwner(), h.Bar.UpdateBar)

	// Employees (owner only)
	employees := protected.Group("/bars/:barId/employees", middleware.RequireOwner())
	employees.Get("/", h.Employee.GetEmployees)
	employees.Post("/", h.Employee.CreateEmployee)
	employees.Put("/:id", h.Employee.UpdateEmployee)
	employees.Delete("/:id", h.Employee.DeleteEmployee)

	// Stock
	protected.Get("/bars/:barId/stock", h.Inventory.GetItems)
	protected.Post("/bars/:barId/stock", middleware.RequirePermission(model.PermStockManagement), h.Inventory.CreateItem)
	protected.Post("/bars/:barId/stock/receive", middleware.RequirePermission(model.PermStockManagement), h.Inventory.ReceiveStock)
	protected.Get("/stock/:id", h.Inventory.GetItem)
	protected.Put("/stock/:id", middleware.RequirePermission(model.PermStockManagement), h.Inventory.UpdateItem)
	protected.Delete("/stock/:id", middleware.RequirePermission(model.PermStockManagement), h.Inventory.DeleteItem)
	protected.Get("/stock/:id/movements", h.Inventory.GetMovements)
	protected.Post("/stock/:id/movements", middleware.RequirePermission(model.PermStockManagement), h.Inventory.CreateMovement)

	// Cart and orders
	protected.Post("/bars/:barId/cart", h.Cart.OpenCart)
	protected.Get("/cart", h.Cart.GetCart)
	protected.Post("/cart/lines", h.Cart.AddLine)
	protected.Put("/cart/lines/:itemId", h.Cart.SetLine)
	protected.Delete("/cart/lines/:itemId", h.Cart.RemoveLine)
	protected.Post("/cart/submit", h.Cart.Submit)

	protected.Get("/bars/:barId/orders", h.Order.GetOrders)
	protected.Get("/bars/:barId/orders/summary", h.Order.GetSummary)
	protected.Get("/orders/:id", h.Order.GetOrder)
	protected.Put("/orders/:id/status", middleware.RequirePermission(model.PermCashManagement), h.Order.UpdateStatus)

	// Sales statistics
	stats := protected.Group("/bars/:barId/stats", middleware.RequirePermission(model.PermViewStats))
	stats.Get("/months", h.Stats.GetMonths)
	stats.Get("/summary/:month", h.Stats.GetSummary)
	stats.Get("/trend", h.Stats.GetTrend)
	stats.Get("/totals", h.Stats.GetTotals)
	stats.Get("/products/:month", h.Stats.GetProductStats)

	// Dashboard
	protected.Get("/bars/:barId/dashboard/stats", h.Dashboard.GetDashboardStats)
	protected.Get("/bars/:barId/dashboard/stock-movement", h.Dashboard.GetStockMovement)

	// WebSocket Routes
	if h.Realtime != nil {
		sockets := app.Group("/ws", middleware.RequireAuth(validator), h.Realtime.Upgrade)
		sockets.Get("/", websocket.New(h.Realtime.Activity))
		sockets.Get("/bars/:barId/employees", websocket.New(h.Realtime.Employees))
		sockets.Get("/bars/:barId/stock", websocket.New(h.Realtime.Stock))
		sockets.Get("/bars/:barId/orders", websocket.New(h.Realtime.Orders))
	}
}
