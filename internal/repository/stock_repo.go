package repository

import (
	"context"

	"go-bar-manager/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockRepository interface {
	Create(tx *gorm.DB, item *model.StockItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error)
	FindWithHistory(ctx context.Context, id uuid.UUID) (*model.StockItem, error)
	FindByBar(ctx context.Context, barID uuid.UUID) ([]model.StockItem, error)
	FindByBarAndName(ctx context.Context, barID uuid.UUID, name string) (*model.StockItem, error)
	FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.StockItem, error)
	UpdateDetails(tx *gorm.DB, item *model.StockItem) error
	ApplyMovement(tx *gorm.DB, movement *model.StockMovement, updatedBy string) error
	Delete(tx *gorm.DB, id uuid.UUID) error
}

type stockRepo struct {
	db *gorm.DB
}

func NewStockRepo(db *gorm.DB) StockRepository {
	return &stockRepo{db}
}

func (r *stockRepo) Create(tx *gorm.DB, item *model.StockItem) error {
	return tx.Omit("History").Create(item).Error
}

func (r *stockRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// FindWithHistory preloads the movements, newest first
func (r *stockRepo) FindWithHistory(ctx context.Context, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	err := r.db.WithContext(ctx).
		Preload("History", func(db *gorm.DB) *gorm.DB {
			return db.Order("date DESC, seq DESC")
		}).
		First(&item, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

func (r *stockRepo) FindByBar(ctx context.Context, barID uuid.UUID) ([]model.StockItem, error) {
	var items []model.StockItem
	err := r.db.WithContext(ctx).Where("bar_id = ?", barID).Order("name ASC").Find(&items).Error
	return items, err
}

func (r *stockRepo) FindByBarAndName(ctx context.Context, barID uuid.UUID, name string) (*model.StockItem, error) {
	var item model.StockItem
	if err := r.db.WithContext(ctx).Where("bar_id = ? AND LOWER(name) = LOWER(?)", barID, name).First(&item).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// FindForUpdate reads the item through tx and holds its row lock until tx
// ends, so concurrent movements on the item wait for the caller.
func (r *stockRepo) FindForUpdate(tx *gorm.DB, id uuid.UUID) (*model.StockItem, error) {
	var item model.StockItem
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&item, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// UpdateDetails rewrites descriptive fields. Quantity is never written here.
func (r *stockRepo) UpdateDetails(tx *gorm.DB, item *model.StockItem) error {
	return tx.Model(item).
		Select("name", "category", "unit", "min_threshold", "supplier", "cost_price",
			"selling_price", "expiry_date", "updated_by").
		Updates(item).Error
}

// ApplyMovement adds the signed delta in one conditional UPDATE and appends
// the movement with the item's next sequence number. Returns ErrConflict when
// the delta would take quantity below zero.
func (r *stockRepo) ApplyMovement(tx *gorm.DB, movement *model.StockMovement, updatedBy string) error {
	updates := map[string]interface{}{
		"quantity":   gorm.Expr("quantity + ?", movement.Quantity),
		"updated_by": updatedBy,
		"updated_at": movement.Date,
	}
	if movement.Action == model.ActionEntry {
		updates["last_restock_date"] = movement.Date
	}

	result := tx.Model(&model.StockItem{}).
		Where("id = ? AND quantity + ? >= 0", movement.StockItemID, movement.Quantity).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConflict
	}

	// the UPDATE above holds the item row, so seq cannot race
	var last int64
	err := tx.Model(&model.StockMovement{}).
		Where("stock_item_id = ?", movement.StockItemID).
		Select("COALESCE(MAX(seq), 0)").
		Scan(&last).Error
	if err != nil {
		return err
	}
	movement.Seq = last + 1
	return tx.Create(movement).Error
}

// Delete is a hard delete of the item and its history
func (r *stockRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	if err := tx.Where("stock_item_id = ?", id).Delete(&model.StockMovement{}).Error; err != nil {
		return err
	}
	return tx.Delete(&model.StockItem{}, "id = ?", id).Error
}
