package repository

import (
	"errors"

	"go-bar-manager/internal/model"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a specific record is not found.
	ErrNotFound = errors.New("requested record not found")

	// ErrConflict is returned when a conditional update matched no row
	// (stock would go negative, status already changed).
	ErrConflict = errors.New("conditional update matched no row")
)

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// AutoMigrate creates or updates every table the repositories use.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Credential{},
		&model.Account{},
		&model.Bar{},
		&model.Employee{},
		&model.StockItem{},
		&model.StockMovement{},
		&model.Order{},
		&model.SalesSnapshot{},
	)
}
