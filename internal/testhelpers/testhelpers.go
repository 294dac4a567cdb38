package testhelpers

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go-bar-manager/internal/model"
	"go-bar-manager/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a private in-memory SQLite database with every table migrated.
// A single connection keeps transactions and plain reads on the same database.
func SetupTestDB(tb testing.TB) *gorm.DB {
	tb.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		tb.Fatalf("Failed to open database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := repository.AutoMigrate(db); err != nil {
		tb.Fatalf("Failed to migrate: %v", err)
	}

	tb.Cleanup(func() {
		_ = sqlDB.Close()
	})
	return db
}

// Fixture is an owner with one bar, the usual starting point of service tests
type Fixture struct {
	Owner      *model.Account
	Credential *model.Credential
	Bar        *model.Bar
}

// SeedOwnerWithBar inserts an owner credential "0600000000@<domain>" with
// password "secret123", its account and one bar.
func SeedOwnerWithBar(tb testing.TB, db *gorm.DB, domain string) *Fixture {
	tb.Helper()

	credential := &model.Credential{Email: "0600000000@" + domain, IsActive: true}
	if err := credential.SetPassword("secret123"); err != nil {
		tb.Fatalf("Failed to hash password: %v", err)
	}
	if err := db.Create(credential).Error; err != nil {
		tb.Fatalf("Failed to create credential: %v", err)
	}

	owner := &model.Account{
		BaseModel: model.BaseModel{ID: credential.ID},
		Phone:     "0600000000",
		Username:  "patron",
		Role:      model.RoleOwner,
	}
	bar := &model.Bar{
		OwnerID: owner.ID,
		Name:    "Le Comptoir",
		Address: "1 rue du Port",
		City:    "Douala",
		Phone:   "0611111111",
	}
	if err := db.Create(bar).Error; err != nil {
		tb.Fatalf("Failed to create bar: %v", err)
	}
	owner.AddBar(bar.ID)
	if err := db.Create(owner).Error; err != nil {
		tb.Fatalf("Failed to create account: %v", err)
	}

	return &Fixture{Owner: owner, Credential: credential, Bar: bar}
}

// SeedItem inserts a stock item directly, bypassing the ledger
func SeedItem(tb testing.TB, db *gorm.DB, barID uuid.UUID, name string, quantity int, price string) *model.StockItem {
	tb.Helper()

	item := &model.StockItem{
		BarID:           barID,
		Name:            name,
		Category:        "boisson",
		Quantity:        quantity,
		InitialQuantity: quantity,
		Unit:            "bouteille",
		MinThreshold:    5,
		SellingPrice:    decimal.RequireFromString(price),
		CostPrice:       decimal.Zero,
	}
	if err := db.Omit("History").Create(item).Error; err != nil {
		tb.Fatalf("Failed to create stock item: %v", err)
	}
	return item
}

// Quantity re-reads the stored quantity of an item
func Quantity(tb testing.TB, db *gorm.DB, itemID uuid.UUID) int {
	tb.Helper()

	var item model.StockItem
	if err := db.WithContext(context.Background()).First(&item, "id = ?", itemID).Error; err != nil {
		tb.Fatalf("Failed to reload item: %v", err)
	}
	return item.Quantity
}

// FixedClock returns a clock frozen at t
func FixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
