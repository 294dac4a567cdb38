package handler

import (
	"go-bar-manager/internal/service"

	"github.com/gofiber/fiber/v2"
)

type BarHandler struct {
	service service.BarService
}

func NewBarHandler(s service.BarService) *BarHandler {
	return &BarHandler{service: s}
}

func (h *BarHandler) CreateBar(c *fiber.Ctx) error {
	const action = "create bar"
	var req service.BarRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, action, "Invalid JSON")
	}

	bar, err := h.service.CreateBar(c.UserContext(), actor(c), req)
	if err != nil {
		return respondError(c, action, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Bar created", "data": bar})
}

func (h *BarHandler) GetBars(c *fiber.Ctx) error {
	bars, err := h.service.ListBars(c.UserContext(), actor(c))
	if err != nil {
		return respondError(c, "list bars", err)
	}
	return c.JSON(bars)
}

func (h *BarHandler) GetBar(c *fiber.Ctx) error {
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, "get bar", "Invalid bar ID")
	}

	bar, err := h.service.GetBar(c.UserContext(), actor(c), barID)
	if err != nil {
		return respondError(c, "get bar", err)
	}
	return c.JSON(bar)
}

func (h *BarHandler) UpdateBar(c *fiber.Ctx) error {
	const action = "update bar"
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, action, "Invalid bar ID")
	}

	var req service.BarRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, action, "Invalid JSON")
	}

	bar, err := h.service.UpdateBar(c.UserContext(), actor(c), barID, req)
	if err != nil {
		return respondError(c, action, err)
	}
	return c.JSON(fiber.Map{"message": "Bar updated", "data": bar})
}
