package repository

import (
	"context"
	"time"

	"go-bar-manager/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CredentialRepository interface {
	FindByEmail(ctx context.Context, email string) (*model.Credential, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Credential, error)
	Create(tx *gorm.DB, credential *model.Credential) error
	UpdateEmail(tx *gorm.DB, id uuid.UUID, email string) error
	UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error
	UpdateTokenVersion(ctx context.Context, id uuid.UUID, version string) error
	SetActive(tx *gorm.DB, id uuid.UUID, active bool) error
	TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	TouchSeen(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(tx *gorm.DB, id uuid.UUID) error
}

type credentialRepo struct {
	db *gorm.DB
}

func NewCredentialRepo(db *gorm.DB) CredentialRepository {
	return &credentialRepo{db}
}

func (r *credentialRepo) FindByEmail(ctx context.Context, email string) (*model.Credential, error) {
	var credential model.Credential
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&credential).Error; err != nil {
		return nil, translate(err)
	}
	return &credential, nil
}

func (r *credentialRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Credential, error) {
	var credential model.Credential
	if err := r.db.WithContext(ctx).First(&credential, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &credential, nil
}

// Create receives tx so a profile and its credential commit together
func (r *credentialRepo) Create(tx *gorm.DB, credential *model.Credential) error {
	return tx.Create(credential).Error
}

func (r *credentialRepo) UpdateEmail(tx *gorm.DB, id uuid.UUID, email string) error {
	return tx.Model(&model.Credential{}).Where("id = ?", id).Update("email", email).Error
}

func (r *credentialRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hashedPassword string) error {
	return r.db.WithContext(ctx).Model(&model.Credential{}).Where("id = ?", id).Update("password", hashedPassword).Error
}

func (r *credentialRepo) UpdateTokenVersion(ctx context.Context, id uuid.UUID, version string) error {
	return r.db.WithContext(ctx).Model(&model.Credential{}).Where("id = ?", id).Update("token_version", version).Error
}

func (r *credentialRepo) SetActive(tx *gorm.DB, id uuid.UUID, active bool) error {
	return tx.Model(&model.Credential{}).Where("id = ?", id).Update("is_active", active).Error
}

func (r *credentialRepo) TouchLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Credential{}).Where("id = ?", id).Update("last_login_at", at).Error
}

func (r *credentialRepo) TouchSeen(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.Credential{}).Where("id = ?", id).Update("last_seen_at", at).Error
}

func (r *credentialRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.Credential{}, "id = ?", id).Error
}
