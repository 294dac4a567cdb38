package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderPaidCash   OrderStatus = "paid-cash"
	OrderPaidMobile OrderStatus = "paid-mobile"
	OrderCancelled  OrderStatus = "cancelled"
)

// IsPaid groups both payment methods.
func (s OrderStatus) IsPaid() bool {
	return s == OrderPaidCash || s == OrderPaidMobile
}

// IsTerminal is true for every status except pending.
func (s OrderStatus) IsTerminal() bool {
	return s != OrderPending
}

// CanTransition encodes the one-directional table: pending moves to a terminal
// status, terminal statuses never move again.
func (s OrderStatus) CanTransition(to OrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch to {
	case OrderPaidCash, OrderPaidMobile, OrderCancelled:
		return true
	}
	return false
}

// OrderLine is a snapshot of a stock item at order time, not a live reference.
type OrderLine struct {
	ItemID    uuid.UUID       `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Category  string          `json:"category"`
	Unit      string          `json:"unit"`
}

func (l OrderLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Seller struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Customer struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type Order struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key;" json:"id"`
	BarID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"bar_id"`
	Items       []OrderLine     `gorm:"type:text;serializer:json" json:"items"`
	Seller      Seller          `gorm:"embedded;embeddedPrefix:seller_" json:"seller"`
	Customer    *Customer       `gorm:"type:text;serializer:json" json:"customer"`
	TableNumber *string         `gorm:"type:varchar(20)" json:"table_number"`
	Notes       string          `gorm:"type:text" json:"notes"`
	Total       decimal.Decimal `gorm:"type:numeric(12,2)" json:"total"`
	Status      OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	PaidAt      *time.Time      `json:"paid_at,omitempty"`

	Movements []StockMovement `gorm:"-" json:"movements,omitempty"`
}

// OrderTotal sums unitPrice * quantity over lines.
func OrderTotal(lines []OrderLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// OrderFilter is the order history predicate; Status accepts "all", "paid"
// (both payment methods) or any concrete status.
type OrderFilter struct {
	Search string
	Status string
}

func (f OrderFilter) Match(o *Order) bool {
	switch f.Status {
	case "", "all":
	case "paid":
		if !o.Status.IsPaid() {
			return false
		}
	default:
		if string(o.Status) != f.Status {
			return false
		}
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	if search == "" {
		return true
	}
	if o.Customer != nil && strings.Contains(strings.ToLower(o.Customer.Name), search) {
		return true
	}
	if o.TableNumber != nil && strings.Contains(strings.ToLower(*o.TableNumber), search) {
		return true
	}
	return strings.Contains(strings.ToLower(o.Seller.Name), search)
}
