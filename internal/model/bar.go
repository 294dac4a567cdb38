package model

import "github.com/google/uuid"

// Bar is the tenant owning stock, staff and orders.
type Bar struct {
	BaseModel
	OwnerID    uuid.UUID `gorm:"type:uuid;not null;index" json:"owner_id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	Address    string    `gorm:"type:varchar(255)" json:"address"`
	City       string    `gorm:"type:varchar(100)" json:"city"`
	PostalCode string    `gorm:"type:varchar(20)" json:"postal_code"`
	Phone      string    `gorm:"type:varchar(20)" json:"phone"`
	Staff      []string  `gorm:"type:text;serializer:json" json:"staff"`
	Products   []string  `gorm:"type:text;serializer:json" json:"products"`
}

// IsOwnedBy compares the bar owner with the acting profile.
func (b *Bar) IsOwnedBy(accountID uuid.UUID) bool {
	return b.OwnerID == accountID
}

func (b *Bar) AddStaff(employeeID uuid.UUID) {
	b.Staff = appendUnique(b.Staff, employeeID.String())
}

func (b *Bar) RemoveStaff(employeeID uuid.UUID) {
	b.Staff = removeID(b.Staff, employeeID.String())
}

func (b *Bar) AddProduct(itemID uuid.UUID) {
	b.Products = appendUnique(b.Products, itemID.String())
}

func (b *Bar) RemoveProduct(itemID uuid.UUID) {
	b.Products = removeID(b.Products, itemID.String())
}
