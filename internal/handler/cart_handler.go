package handler

import (
	"go-bar-manager/internal/cart"
	"go-bar-manager/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CartHandler keeps one cart per logged-in credential.
type CartHandler struct {
	orders service.OrderService
	carts  *cart.Store
}

func NewCartHandler(orders service.OrderService, carts *cart.Store) *CartHandler {
	return &CartHandler{orders: orders, carts: carts}
}

type cartLineRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// cartKey ties the draft to the credential of the current session
func cartKey(c *fiber.Ctx) string {
	return actor(c).CredentialID.String()
}

func (h *CartHandler) current(c *fiber.Ctx) (*cart.Cart, bool) {
	return h.carts.Get(cartKey(c))
}

func noCart(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "No open cart", "code": "NOT_FOUND", "action": "cart"})
}

// OpenCart starts an empty cart over the bar's current stock
// POST /api/v1/bars/:barId/cart
func (h *CartHandler) OpenCart(c *fiber.Ctx) error {
	barID, err := paramUUID(c, "barId")
	if err != nil {
		return badRequest(c, "open cart", "Invalid bar ID")
	}

	cur, err := h.orders.BuildCart(c.UserContext(), actor(c), barID)
	if err != nil {
		return respondError(c, "open cart", err)
	}
	h.carts.Put(cartKey(c), cur)
	return c.Status(fiber.StatusCreated).JSON(cur.View())
}

func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	cur, ok := h.current(c)
	if !ok {
		return noCart(c)
	}
	return c.JSON(cur.View())
}

func (h *CartHandler) AddLine(c *fiber.Ctx) error {
	const action = "add cart line"
	cur, ok := h.current(c)
	if !ok {
		return noCart(c)
	}

	var req cartLineRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, action, "Invalid JSON")
	}
	itemID, err := uuid.Parse(req.ItemID)
	if err != nil {
		return badRequest(c, action, "Invalid item ID")
	}

	if err := cur.AddQuantity(itemID, req.Quantity); err != nil {
		return respondError(c, action, err)
	}
	return c.JSON(cur.View())
}

// SetLine sets the line quantity; below one the line is removed
func (h *CartHandler) SetLine(c *fiber.Ctx) error {
	const action = "update cart line"
	cur, ok := h.current(c)
	if !ok {
		return noCart(c)
	}

	itemID, err := paramUUID(c, "itemId")
	if err != nil {
		return badRequest(c, action, "Invalid item ID")
	}
	var req cartLineRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, action, "Invalid JSON")
	}

	if err := cur.SetLineQuantity(itemID, req.Quantity); err != nil {
		return respondError(c, action, err)
	}
	return c.JSON(cur.View())
}

func (h *CartHandler) RemoveLine(c *fiber.Ctx) error {
	cur, ok := h.current(c)
	if !ok {
		return noCart(c)
	}

	itemID, err := paramUUID(c, "itemId")
	if err != nil {
		return badRequest(c, "remove cart line", "Invalid item ID")
	}
	cur.RemoveLine(itemID)
	return c.JSON(cur.View())
}

// Submit turns the cart into a pending order. A cart is submitted at most
// once; a failed submit puts it back for a retry.
func (h *CartHandler) Submit(c *fiber.Ctx) error {
	const action = "submit order"
	var meta service.OrderMeta
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&meta); err != nil {
			return badRequest(c, action, "Invalid JSON")
		}
	}

	cur, ok := h.carts.Take(cartKey(c))
	if !ok {
		return noCart(c)
	}

	order, err := h.orders.SubmitOrder(c.UserContext(), actor(c), cur, meta)
	if err != nil {
		h.carts.Restore(cartKey(c), cur)
		return respondError(c, action, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Order created", "data": order})
}
