package repository

import (
	"context"

	"go-bar-manager/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EmployeeRepository interface {
	Create(tx *gorm.DB, employee *model.Employee) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Employee, error)
	FindByAuthID(ctx context.Context, authID uuid.UUID) (*model.Employee, error)
	FindByBar(ctx context.Context, barID uuid.UUID) ([]model.Employee, error)
	Update(tx *gorm.DB, employee *model.Employee) error
	Delete(tx *gorm.DB, id uuid.UUID) error
}

type employeeRepo struct {
	db *gorm.DB
}

func NewEmployeeRepo(db *gorm.DB) EmployeeRepository {
	return &employeeRepo{db}
}

func (r *employeeRepo) Create(tx *gorm.DB, employee *model.Employee) error {
	return tx.Create(employee).Error
}

func (r *employeeRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Employee, error) {
	var employee model.Employee
	if err := r.db.WithContext(ctx).First(&employee, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &employee, nil
}

func (r *employeeRepo) FindByAuthID(ctx context.Context, authID uuid.UUID) (*model.Employee, error) {
	var employee model.Employee
	if err := r.db.WithContext(ctx).First(&employee, "auth_id = ?", authID).Error; err != nil {
		return nil, translate(err)
	}
	return &employee, nil
}

func (r *employeeRepo) FindByBar(ctx context.Context, barID uuid.UUID) ([]model.Employee, error) {
	var employees []model.Employee
	err := r.db.WithContext(ctx).Where("bar_id = ?", barID).Order("created_at DESC").Find(&employees).Error
	return employees, err
}

func (r *employeeRepo) Update(tx *gorm.DB, employee *model.Employee) error {
	return tx.Model(employee).
		Select("first_name", "last_name", "phone", "email", "address", "city", "position", "contract_type",
			"permissions", "status", "hire_date", "salary", "updated_by").
		Updates(employee).Error
}

func (r *employeeRepo) Delete(tx *gorm.DB, id uuid.UUID) error {
	return tx.Delete(&model.Employee{}, "id = ?", id).Error
}
