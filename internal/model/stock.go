package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementAction is the direction of a stock movement.
type MovementAction string

const (
	ActionEntry MovementAction = "entrée"
	ActionExit  MovementAction = "sortie"
)

// Categories and units offered by the stock form
var (
	Categories = []string{"boisson", "alcool", "soft", "snack", "materiel", "autre"}
	Units      = []string{"bouteille", "caisse", "litre", "kg", "piece", "pack"}
)

// StockItem is the on-hand record of one product in one bar.
// Quantity only changes through movements once the item exists.
type StockItem struct {
	BaseModel
	BarID           uuid.UUID       `gorm:"type:uuid;not null;index" json:"bar_id"`
	Name            string          `gorm:"type:varchar(255);not null" json:"name"`
	Category        string          `gorm:"type:varchar(50)" json:"category"`
	Quantity        int             `gorm:"not null;default:0" json:"quantity"`
	InitialQuantity int             `gorm:"not null;default:0" json:"initial_quantity"`
	Unit            string          `gorm:"type:varchar(20)" json:"unit"`
	MinThreshold    int             `gorm:"not null;default:0" json:"min_threshold"`
	Supplier        string          `gorm:"type:varchar(255)" json:"supplier"`
	CostPrice       decimal.Decimal `gorm:"type:numeric(12,2)" json:"cost_price"`
	SellingPrice    decimal.Decimal `gorm:"type:numeric(12,2)" json:"selling_price"`
	LastRestockDate *time.Time      `json:"last_restock_date,omitempty"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`

	History []StockMovement `gorm:"foreignKey:StockItemID" json:"history,omitempty"`
}

func (StockItem) TableName() string {
	return "stock"
}

// LowStock is a display flag; it never blocks a movement.
func (s *StockItem) LowStock() bool {
	return s.Quantity <= s.MinThreshold
}

// OutOfStock is a valid terminal state, not an error.
func (s *StockItem) OutOfStock() bool {
	return s.Quantity <= 0
}

// ApplyMovement mirrors an already-persisted movement into this copy.
func (s *StockItem) ApplyMovement(m StockMovement) {
	s.Quantity += m.Quantity
	if m.Action == ActionEntry {
		at := m.Date
		s.LastRestockDate = &at
	}
	s.History = append([]StockMovement{m}, s.History...)
}

// ReconciledQuantity is the initial quantity plus every recorded delta.
// It equals Quantity whenever History is fully loaded.
func (s *StockItem) ReconciledQuantity() int {
	total := s.InitialQuantity
	for _, m := range s.History {
		total += m.Quantity
	}
	return total
}

// Matches is the free-text predicate over name, category and supplier.
func (s *StockItem) Matches(search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s.Name), search) ||
		strings.Contains(strings.ToLower(s.Category), search) ||
		strings.Contains(strings.ToLower(s.Supplier), search)
}

// StockMovement is one append-only history entry. Quantity is the signed delta.
type StockMovement struct {
	ID           uuid.UUID      `gorm:"type:uuid;primary_key;" json:"id"`
	StockItemID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"stock_item_id"`
	BarID        uuid.UUID      `gorm:"type:uuid;not null;index" json:"bar_id"`
	Date         time.Time      `gorm:"not null;index" json:"date"`
	Quantity     int            `gorm:"not null" json:"quantity"`
	Action       MovementAction `gorm:"type:varchar(10);not null" json:"action"`
	EmployeeID   string         `gorm:"type:varchar(255)" json:"employee_id"`
	EmployeeName string         `gorm:"type:varchar(255)" json:"employee_name"`
	Notes        string         `gorm:"type:text" json:"notes"`
	OrderID      *uuid.UUID     `gorm:"type:uuid;index" json:"order_id,omitempty"`
	// Seq orders an item's movements when dates tie
	Seq          int64          `gorm:"not null;default:0;index" json:"seq"`
}

func (StockMovement) TableName() string {
	return "stock_movements"
}

// NewMovement builds a movement whose action follows the sign of delta.
func NewMovement(item *StockItem, delta int, actorID, actorName, notes string, at time.Time) StockMovement {
	action := ActionEntry
	if delta < 0 {
		action = ActionExit
	}
	return StockMovement{
		ID:           uuid.New(),
		StockItemID:  item.ID,
		BarID:        item.BarID,
		Date:         at,
		Quantity:     delta,
		Action:       action,
		EmployeeID:   actorID,
		EmployeeName: actorName,
		Notes:        notes,
	}
}

// StockFilter narrows a bar's stock list. Filtering happens in memory.
type StockFilter struct {
	Search       string
	Category     string
	LowStockOnly bool
	OutOfStock   bool
}

func (f StockFilter) Match(item *StockItem) bool {
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	if f.LowStockOnly && !item.LowStock() {
		return false
	}
	if f.OutOfStock && !item.OutOfStock() {
		return false
	}
	return item.Matches(f.Search)
}
