package repository

import (
	"context"

	"go-bar-manager/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BarRepository interface {
	Create(tx *gorm.DB, bar *model.Bar) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Bar, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Bar, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Bar, error)
	UpdateDetails(ctx context.Context, bar *model.Bar) error
	AddStaff(tx *gorm.DB, barID, employeeID uuid.UUID) error
	RemoveStaff(tx *gorm.DB, barID, employeeID uuid.UUID) error
	AddProduct(tx *gorm.DB, barID, itemID uuid.UUID) error
	RemoveProduct(tx *gorm.DB, barID, itemID uuid.UUID) error
}

type barRepo struct {
	db *gorm.DB
}

func NewBarRepo(db *gorm.DB) BarRepository {
	return &barRepo{db}
}

func (r *barRepo) Create(tx *gorm.DB, bar *model.Bar) error {
	return tx.Create(bar).Error
}

func (r *barRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Bar, error) {
	var bar model.Bar
	if err := r.db.WithContext(ctx).First(&bar, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &bar, nil
}

func (r *barRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Bar, error) {
	var bars []model.Bar
	if len(ids) == 0 {
		return bars, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at ASC").Find(&bars).Error
	return bars, err
}

func (r *barRepo) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Bar, error) {
	var bars []model.Bar
	err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at ASC").Find(&bars).Error
	return bars, err
}

// UpdateDetails rewrites the descriptive fields; staff and products are left alone
func (r *barRepo) UpdateDetails(ctx context.Context, bar *model.Bar) error {
	return r.db.WithContext(ctx).Model(bar).
		Select("name", "address", "city", "postal_code", "phone", "updated_by").
		Updates(bar).Error
}

func (r *barRepo) AddStaff(tx *gorm.DB, barID, employeeID uuid.UUID) error {
	return r.mutate(tx, barID, "staff", func(b *model.Bar) {
		b.AddStaff(employeeID)
	})
}

func (r *barRepo) RemoveStaff(tx *gorm.DB, barID, employeeID uuid.UUID) error {
	return r.mutate(tx, barID, "staff", func(b *model.Bar) {
		b.RemoveStaff(employeeID)
	})
}

func (r *barRepo) AddProduct(tx *gorm.DB, barID, itemID uuid.UUID) error {
	return r.mutate(tx, barID, "products", func(b *model.Bar) {
		b.AddProduct(itemID)
	})
}

func (r *barRepo) RemoveProduct(tx *gorm.DB, barID, itemID uuid.UUID) error {
	return r.mutate(tx, barID, "products", func(b *model.Bar) {
		b.RemoveProduct(itemID)
	})
}

// mutate reads the bar inside tx and writes back a single list column.
// Going through Updates keeps the column's json serializer in play.
func (r *barRepo) mutate(tx *gorm.DB, barID uuid.UUID, column string, fn func(*model.Bar)) error {
	var bar model.Bar
	if err := tx.First(&bar, "id = ?", barID).Error; err != nil {
		return translate(err)
	}
	fn(&bar)
	return tx.Model(&bar).Select(column).Updates(&bar).Error
}
