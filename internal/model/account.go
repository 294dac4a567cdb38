package model

import "github.com/google/uuid"

// Role tells owners from staff.
type Role string

const (
	RoleOwner Role = "owner"
	RoleStaff Role = "staff"
)

// Account is the owner profile stored in `users`. Its ID is the credential ID.
type Account struct {
	BaseModel
	Phone    string   `gorm:"type:varchar(20);index" json:"phone"`
	Username string   `gorm:"type:varchar(100)" json:"username"`
	Role     Role     `gorm:"type:varchar(20);not null" json:"role"`
	Bars     []string `gorm:"type:text;serializer:json" json:"bars"`
}

func (Account) TableName() string {
	return "users"
}

// HasBar reports whether the account owns barID.
func (a *Account) HasBar(barID uuid.UUID) bool {
	for _, id := range a.Bars {
		if id == barID.String() {
			return true
		}
	}
	return false
}

// AddBar records barID on the account, ignoring duplicates.
func (a *Account) AddBar(barID uuid.UUID) {
	a.Bars = appendUnique(a.Bars, barID.String())
}
