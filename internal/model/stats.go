package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductSales is one product line of a monthly snapshot.
type ProductSales struct {
	Name     string          `json:"name"`
	Sales    decimal.Decimal `json:"sales"`
	Quantity int             `json:"quantity"`
}

// SalesSnapshot is a precomputed month of sales; Month is "YYYY-MM".
type SalesSnapshot struct {
	BarID     uuid.UUID       `gorm:"type:uuid;primaryKey" json:"bar_id"`
	Month     string          `gorm:"type:varchar(7);primaryKey" json:"month"`
	Total     decimal.Decimal `gorm:"type:numeric(12,2)" json:"total"`
	Products  []ProductSales  `gorm:"type:text;serializer:json" json:"products"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (SalesSnapshot) TableName() string {
	return "sales_snapshots"
}
