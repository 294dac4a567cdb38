package repository

import (
	"context"
	"time"

	"go-bar-manager/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MovementRepository interface {
	FindByItem(ctx context.Context, itemID uuid.UUID) ([]model.StockMovement, error)
	FindByOrder(ctx context.Context, orderID uuid.UUID) ([]model.StockMovement, error)
	GetStockMovement(ctx context.Context, barID uuid.UUID, startDate, endDate time.Time) ([]StockMovementData, error)
	GetDashboardStats(ctx context.Context, barID uuid.UUID) (*DashboardStats, error)
}

// StockMovementData is one day of the movement chart
type StockMovementData struct {
	Date     string `json:"date"`
	Inbound  int    `json:"inbound"`
	Outbound int    `json:"outbound"`
}

// DashboardStats is the stock overview of one bar
type DashboardStats struct {
	TotalProducts  int64           `json:"total_products"`
	LowStockCount  int64           `json:"low_stock_count"`
	AlcoholCount   int64           `json:"alcohol_count"`
	TotalValuation decimal.Decimal `json:"total_valuation"`
}

type movementRepo struct {
	db *gorm.DB
}

func NewMovementRepo(db *gorm.DB) MovementRepository {
	return &movementRepo{db}
}

func (r *movementRepo) FindByItem(ctx context.Context, itemID uuid.UUID) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := r.db.WithContext(ctx).Where("stock_item_id = ?", itemID).Order("date DESC, seq DESC").Find(&movements).Error
	return movements, err
}

func (r *movementRepo) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).Order("date ASC, seq ASC").Find(&movements).Error
	return movements, err
}

// GetStockMovement buckets movements per calendar day. Days are computed in Go
// so the result does not depend on the SQL dialect's date functions.
func (r *movementRepo) GetStockMovement(ctx context.Context, barID uuid.UUID, startDate, endDate time.Time) ([]StockMovementData, error) {
	var movements []model.StockMovement
	err := r.db.WithContext(ctx).
		Where("bar_id = ? AND date BETWEEN ? AND ?", barID, startDate, endDate).
		Order("date ASC").
		Find(&movements).Error
	if err != nil {
		return nil, err
	}

	results := []StockMovementData{}
	index := map[string]int{}
	for _, m := range movements {
		day := m.Date.In(startDate.Location()).Format("2006-01-02")
		i, ok := index[day]
		if !ok {
			i = len(results)
			index[day] = i
			results = append(results, StockMovementData{Date: day})
		}
		if m.Quantity >= 0 {
			results[i].Inbound += m.Quantity
		} else {
			results[i].Outbound -= m.Quantity
		}
	}
	return results, nil
}

func (r *movementRepo) GetDashboardStats(ctx context.Context, barID uuid.UUID) (*DashboardStats, error) {
	var stats DashboardStats
	db := r.db.WithContext(ctx)
	scope := func() *gorm.DB {
		return db.Model(&model.StockItem{}).Where("bar_id = ?", barID)
	}

	if err := scope().Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := scope().Where("quantity <= min_threshold").Count(&stats.LowStockCount).Error; err != nil {
		return nil, err
	}
	if err := scope().Where("category = ?", "alcool").Count(&stats.AlcoholCount).Error; err != nil {
		return nil, err
	}
	if err := scope().Select("COALESCE(SUM(quantity * selling_price), 0)").Row().Scan(&stats.TotalValuation); err != nil {
		return nil, err
	}
	return &stats, nil
}
