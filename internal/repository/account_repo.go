package repository

import (
	"context"

	"go-bar-manager/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type AccountRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
	Create(tx *gorm.DB, account *model.Account) error
	AddBar(tx *gorm.DB, accountID, barID uuid.UUID) error
}

type accountRepo struct {
	db *gorm.DB
}

func NewAccountRepo(db *gorm.DB) AccountRepository {
	return &accountRepo{db}
}

func (r *accountRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	var account model.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &account, nil
}

func (r *accountRepo) Create(tx *gorm.DB, account *model.Account) error {
	return tx.Create(account).Error
}

// AddBar appends barID to the account's bar list inside tx
func (r *accountRepo) AddBar(tx *gorm.DB, accountID, barID uuid.UUID) error {
	var account model.Account
	if err := tx.First(&account, "id = ?", accountID).Error; err != nil {
		return translate(err)
	}
	account.AddBar(barID)
	return tx.Model(&account).Select("bars").Updates(&account).Error
}
