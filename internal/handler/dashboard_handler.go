package handler

import (
	"strconv"

	"go-bar-manager/internal/service"

	"github.com/gofiber/fiber/v2"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// GetStockMovement returns stock movement data for charts
// Query params: days (default 7)
func (h *DashboardHandler) GetStockMovement(c *fiber.Ctx) error {
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, "stock movement", "Invalid bar ID")
	}

	days, err := strconv.Atoi(c.Query("days", "7"))
	if err != nil || days <= 0 {
		days = 7
	}

	data, err := h.service.GetStockMovement(c.UserContext(), actor(c), barID, days)
	if err != nil {
		return respondError(c, "stock movement", err)
	}

	return c.JSON(fiber.Map{
		"period": days,
		"data":   data,
	})
}

// GetDashboardStats returns overview statistics
func (h *DashboardHandler) GetDashboardStats(c *fiber.Ctx) error {
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, "dashboard stats", "Invalid bar ID")
	}

	stats, err := h.service.GetDashboardStats(c.UserContext(), actor(c), barID)
	if err != nil {
		return respondError(c, "dashboard stats", err)
	}
	return c.JSON(stats)
}
