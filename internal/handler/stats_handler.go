package handler

import (
	"go-bar-manager/internal/service"

	"github.com/gofiber/fiber/v2"
)

type StatsHandler struct {
	service service.StatsService
}

func NewStatsHandler(s service.StatsService) *StatsHandler {
	return &StatsHandler{service: s}
}

func (h *StatsHandler) GetMonths(c *fiber.Ctx) error {
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, "list months", "Invalid bar ID")
	}

	months, err := h.service.Months(c.UserContext(), actor(c), barID)
	if err != nil {
		return respondError(c, "list months", err)
	}
	return c.JSON(months)
}

// GetSummary returns one month's per-product sales
// GET /api/v1/bars/:barId/stats/summary/:month
func (h *StatsHandler) GetSummary(c *fiber.Ctx) error {
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, "monthly summary", "Invalid bar ID")
	}

	summary, err := h.service.GetMonthlySummary(c.UserContext(), actor(c), barID, c.Params("month"))
	if err != nil {
		return respondError(c, "monthly summary", err)
	}
	return c.JSON(summary)
}

// GetTrend returns a product's sales over the latest months
// Query params: product (required), months (default 0 = every known month)
func (h *StatsHandler) GetTrend(c *fiber.Ctx) error {
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, "sales trend", "Invalid bar ID")
	}

	product := c.Query("product")
	if product == "" {
		return badRequest(c, "sales trend", "product is required")
	}

	points, err := h.service.GetTrend(c.UserContext(), actor(c), barID, product, c.QueryInt("months"))
	if err != nil {
		return respondError(c, "sales trend", err)
	}
	return c.JSON(points)
}

func (h *StatsHandler) GetTotals(c *fiber.Ctx) error {
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, "sales totals", "Invalid bar ID")
	}

	totals, err := h.service.GetTotals(c.UserContext(), actor(c), barID)
	if err != nil {
		return respondError(c, "sales totals", err)
	}
	return c.JSON(totals)
}

// GetProductStats returns the detail card of one product for a month
// Query params: product (required)
func (h *StatsHandler) GetProductStats(c *fiber.Ctx) error {
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, "product stats", "Invalid bar ID")
	}

	product := c.Query("product")
	if product == "" {
		return badRequest(c, "product stats", "product is required")
	}

	stats, err := h.service.GetProductStats(c.UserContext(), actor(c), barID, c.Params("month"), product)
	if err != nil {
		return respondError(c, "product stats", err)
	}
	return c.JSON(stats)
}
