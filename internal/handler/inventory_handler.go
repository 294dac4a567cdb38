package handler

import (
	"go-bar-manager/internal/model"
	"go-bar-manager/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

func (h *InventoryHandler) CreateItem(c *fiber.Ctx) error {
	const action = "create stock item"
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, action, "Invalid bar ID")
	}

	var req service.ItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, action, "Invalid JSON")
	}

	item, err := h.service.CreateItem(c.UserContext(), actor(c), barID, req)
	if err != nil {
		return respondError(c, action, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Stock item created", "data": item})
}

// GetItems lists a bar's stock
// Query params: search, category, low_stock
func (h *InventoryHandler) GetItems(c *fiber.Ctx) error {
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, "list stock", "Invalid bar ID")
	}

	filter := model.StockFilter{
		Search:       c.Query("search"),
		Category:     c.Query("category"),
		LowStockOnly: c.QueryBool("low_stock"),
		OutOfStock:   c.QueryBool("out_of_stock"),
	}
	items, err := h.service.ListItems(c.UserContext(), actor(c), barID, filter)
	if err != nil {
		return respondError(c, "list stock", err)
	}
	return c.JSON(items)
}

// GetItem returns the item with its movement history, newest first
func (h *InventoryHandler) GetItem(c *fiber.Ctx) error {
	itemID, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "get stock item", "Invalid item ID")
	}

	item, err := h.service.GetItem(c.UserContext(), actor(c), itemID)
	if err != nil {
		return respondError(c, "get stock item", err)
	}
	return c.JSON(item)
}

// GetMovements returns the movement log of one item
func (h *InventoryHandler) GetMovements(c *fiber.Ctx) error {
	itemID, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "list stock movements", "Invalid item ID")
	}

	movements, err := h.service.ListMovements(c.UserContext(), actor(c), itemID)
	if err != nil {
		return respondError(c, "list stock movements", err)
	}
	return c.JSON(movements)
}

func (h *InventoryHandler) UpdateItem(c *fiber.Ctx) error {
	const action = "update stock item"
	itemID, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, action, "Invalid item ID")
	}

	var req service.ItemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, action, "Invalid JSON")
	}

	item, err := h.service.UpdateItem(c.UserContext(), actor(c), itemID, req)
	if err != nil {
		return respondError(c, action, err)
	}
	return c.JSON(fiber.Map{"message": "Stock item updated", "data": item})
}

func (h *InventoryHandler) DeleteItem(c *fiber.Ctx) error {
	itemID, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "delete stock item", "Invalid item ID")
	}

	if err := h.service.DeleteItem(c.UserContext(), actor(c), itemID); err != nil {
		return respondError(c, "delete stock item", err)
	}
	return c.JSON(fiber.Map{"message": "Stock item deleted"})
}

// CreateMovement records an entree or a sortie on one item
func (h *InventoryHandler) CreateMovement(c *fiber.Ctx) error {
	const action = "record movement"
	itemID, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, action, "Invalid item ID")
	}

	var req service.MovementRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, action, "Invalid JSON")
	}

	item, err := h.service.AdjustQuantity(c.UserContext(), actor(c), itemID, req)
	if err != nil {
		return respondError(c, action, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Movement recorded", "data": item})
}

// ReceiveStock books a delivery, creating the item when the name is new
func (h *InventoryHandler) ReceiveStock(c *fiber.Ctx) error {
	const action = "receive stock"
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, action, "Invalid bar ID")
	}

	var req service.ReceiveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, action, "Invalid JSON")
	}

	item, err := h.service.ReceiveStock(c.UserContext(), actor(c), barID, req)
	if err != nil {
		return respondError(c, action, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Delivery recorded", "data": item})
}
