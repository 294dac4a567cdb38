package handler

import (
	"go-bar-manager/internal/model"
	"go-bar-manager/internal/service"

	"github.com/gofiber/fiber/v2"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

type orderStatusRequest struct {
	Status string `json:"status"`
}

// GetOrders lists a bar's orders, newest first
// Query params: search, status (all, pending, paid, paid-cash, paid-mobile, cancelled)
func (h *OrderHandler) GetOrders(c *fiber.Ctx) error {
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, "list orders", "Invalid bar ID")
	}

	filter := model.OrderFilter{Search: c.Query("search"), Status: c.Query("status")}
	orders, err := h.service.ListOrders(c.UserContext(), actor(c), barID, filter)
	if err != nil {
		return respondError(c, "list orders", err)
	}
	return c.JSON(orders)
}

func (h *OrderHandler) GetSummary(c *fiber.Ctx) error {
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, "order summary", "Invalid bar ID")
	}

	summary, err := h.service.Summary(c.UserContext(), actor(c), barID)
	if err != nil {
		return respondError(c, "order summary", err)
	}
	return c.JSON(summary)
}

func (h *OrderHandler) GetOrder(c *fiber.Ctx) error {
	orderID, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "get order", "Invalid order ID")
	}

	order, err := h.service.GetOrder(c.UserContext(), actor(c), orderID)
	if err != nil {
		return respondError(c, "get order", err)
	}
	return c.JSON(order)
}

// UpdateStatus settles or cancels a pending order
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	const action = "update order status"
	orderID, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, action, "Invalid order ID")
	}

	var req orderStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, action, "Invalid JSON")
	}

	order, err := h.service.SetOrderStatus(c.UserContext(), actor(c), orderID, req.Status)
	if err != nil {
		return respondError(c, action, err)
	}
	return c.JSON(fiber.Map{"message": "Order updated", "data": order})
}
