package cart

import (
	"errors"
	"sync"

	"go-bar-manager/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrInsufficientStock is returned when a line would exceed known stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrUnknownItem is returned for an item that was not in stock at cart start.
	ErrUnknownItem = errors.New("item not in cart catalogue")
)

// Item is a stock item as seen when the cart started. Stock is the shadow
// count: observed stock minus what the cart currently reserves.
type Item struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Stock     int             `json:"stock"`
}

// Cart reserves stock locally; nothing is written until the order is submitted.
type Cart struct {
	BarID uuid.UUID

	mu      sync.Mutex
	catalog map[uuid.UUID]*Item
	order   []uuid.UUID
	lines   map[uuid.UUID]int
	added   []uuid.UUID
}

// New snapshots items. Out-of-stock items stay listed but cannot be added.
func New(barID uuid.UUID, items []model.StockItem) *Cart {
	c := &Cart{
		BarID:   barID,
		catalog: make(map[uuid.UUID]*Item, len(items)),
		lines:   make(map[uuid.UUID]int),
	}
	for _, it := range items {
		stock := it.Quantity
		if stock < 0 {
			stock = 0
		}
		c.catalog[it.ID] = &Item{
			ID:        it.ID,
			Name:      it.Name,
			Category:  it.Category,
			Unit:      it.Unit,
			UnitPrice: it.SellingPrice,
			Stock:     stock,
		}
		c.order = append(c.order, it.ID)
	}
	return c
}

// AddLine adds one unit of itemID.
func (c *Cart) AddLine(itemID uuid.UUID) error {
	return c.AddQuantity(itemID, 1)
}

// AddQuantity adds n units of itemID, at least one. The cart is left
// untouched when the new line would exceed the observed stock.
func (c *Cart) AddQuantity(itemID uuid.UUID, n int) error {
	if n < 1 {
		n = 1
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setQuantity(itemID, c.lines[itemID]+n)
}

// SetLineQuantity sets the line to q; q below 1 removes the line. The bound is
// the stock observed at cart start: shadow stock plus what the line reserves.
func (c *Cart) SetLineQuantity(itemID uuid.UUID, q int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.setQuantity(itemID, q)
}

// RemoveLine drops the line and gives its reservation back.
func (c *Cart) RemoveLine(itemID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.setQuantity(itemID, 0)
}

func (c *Cart) setQuantity(itemID uuid.UUID, q int) error {
	item, ok := c.catalog[itemID]
	if !ok {
		return ErrUnknownItem
	}
	reserved := c.lines[itemID]
	if q < 1 {
		if reserved > 0 {
			item.Stock += reserved
			delete(c.lines, itemID)
			c.dropAdded(itemID)
		}
		return nil
	}
	if q > item.Stock+reserved {
		return ErrInsufficientStock
	}

	item.Stock = item.Stock + reserved - q
	if reserved == 0 {
		c.added = append(c.added, itemID)
	}
	c.lines[itemID] = q
	return nil
}

func (c *Cart) dropAdded(itemID uuid.UUID) {
	for i, id := range c.added {
		if id == itemID {
			c.added = append(c.added[:i], c.added[i+1:]...)
			return
		}
	}
}

// Lines returns order line snapshots in the order they were added.
func (c *Cart) Lines() []model.OrderLine {
	c.mu.Lock()
	defer c.mu.Unlock()

	lines := make([]model.OrderLine, 0, len(c.added))
	for _, id := range c.added {
		item := c.catalog[id]
		lines = append(lines, model.OrderLine{
			ItemID:    id,
			Name:      item.Name,
			Quantity:  c.lines[id],
			UnitPrice: item.UnitPrice,
			Category:  item.Category,
			Unit:      item.Unit,
		})
	}
	return lines
}

// Items returns the catalogue with shadow stock, in snapshot order.
func (c *Cart) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	items := make([]Item, 0, len(c.order))
	for _, id := range c.order {
		items = append(items, *c.catalog[id])
	}
	return items
}

// Quantity of the line for itemID, 0 when absent.
func (c *Cart) Quantity(itemID uuid.UUID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lines[itemID]
}

func (c *Cart) IsEmpty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines) == 0
}

func (c *Cart) Total() decimal.Decimal {
	return model.OrderTotal(c.Lines())
}

// Clear drops every line and restores shadow stock.
func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, q := range c.lines {
		c.catalog[id].Stock += q
	}
	c.lines = make(map[uuid.UUID]int)
	c.added = nil
}

// View is the JSON shape of a cart.
type View struct {
	BarID uuid.UUID         `json:"bar_id"`
	Lines []model.OrderLine `json:"lines"`
	Items []Item            `json:"items"`
	Total decimal.Decimal   `json:"total"`
}

func (c *Cart) View() View {
	lines := c.Lines()
	return View{
		BarID: c.BarID,
		Lines: lines,
		Items: c.Items(),
		Total: model.OrderTotal(lines),
	}
}
