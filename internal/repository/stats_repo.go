package repository

import (
	"context"

	"go-bar-manager/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StatsRepository interface {
	FindByBar(ctx context.Context, barID uuid.UUID) ([]model.SalesSnapshot, error)
	FindByMonth(ctx context.Context, barID uuid.UUID, month string) (*model.SalesSnapshot, error)
	Upsert(ctx context.Context, snapshot *model.SalesSnapshot) error
}

type statsRepo struct {
	db *gorm.DB
}

func NewStatsRepo(db *gorm.DB) StatsRepository {
	return &statsRepo{db}
}

// FindByBar returns the snapshots in month order
func (r *statsRepo) FindByBar(ctx context.Context, barID uuid.UUID) ([]model.SalesSnapshot, error) {
	var snapshots []model.SalesSnapshot
	err := r.db.WithContext(ctx).Where("bar_id = ?", barID).Order("month ASC").Find(&snapshots).Error
	return snapshots, err
}

func (r *statsRepo) FindByMonth(ctx context.Context, barID uuid.UUID, month string) (*model.SalesSnapshot, error) {
	var snapshot model.SalesSnapshot
	if err := r.db.WithContext(ctx).First(&snapshot, "bar_id = ? AND month = ?", barID, month).Error; err != nil {
		return nil, translate(err)
	}
	return &snapshot, nil
}

// Upsert is used by the seeding command only
func (r *statsRepo) Upsert(ctx context.Context, snapshot *model.SalesSnapshot) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "bar_id"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"total", "products", "updated_at"}),
	}).Create(snapshot).Error
}
