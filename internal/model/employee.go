package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EmployeeStatus string

const (
	EmployeeActive   EmployeeStatus = "active"
	EmployeeInactive EmployeeStatus = "inactive"
	EmployeeOnLeave  EmployeeStatus = "on_leave"
)

// Positions offered by the staff form
var Positions = []string{"serveur", "barman", "cuisinier", "gerant", "comptable", "autre"}

// ContractTypes offered by the staff form
var ContractTypes = []string{"CDI", "CDD", "interim", "saisonnier"}

// Employee is a staff member of one bar. AuthID points at its login credential.
type Employee struct {
	BaseModel
	BarID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"bar_id"`
	AuthID       *uuid.UUID      `gorm:"type:uuid;index" json:"auth_id,omitempty"`
	FirstName    string          `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName     string          `gorm:"type:varchar(100);not null" json:"last_name"`
	Phone        string          `gorm:"type:varchar(20)" json:"phone"`
	Email        string          `gorm:"type:varchar(255)" json:"email"`
	Address      string          `gorm:"type:varchar(255)" json:"address"`
	City         string          `gorm:"type:varchar(100)" json:"city"`
	Position     string          `gorm:"type:varchar(50)" json:"position"`
	ContractType string          `gorm:"type:varchar(20)" json:"contract_type,omitempty"`
	Permissions  []Permission    `gorm:"type:text;serializer:json" json:"permissions"`
	Status       EmployeeStatus  `gorm:"type:varchar(20);default:'active'" json:"status"`
	HireDate     time.Time       `json:"hire_date"`
	Salary       decimal.Decimal `gorm:"type:numeric(12,2)" json:"salary"`
}

// FullName joins first and last name for seller labels.
func (e *Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

// IsActive is false for inactive and on-leave staff.
func (e *Employee) IsActive() bool {
	return e.Status == "" || e.Status == EmployeeActive
}

func (e *Employee) HasPermission(p Permission) bool {
	for _, granted := range e.Permissions {
		if granted == p {
			return true
		}
	}
	return false
}

// Matches is the staff list search over full name, phone and position.
func (e *Employee) Matches(search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return true
	}
	return strings.Contains(strings.ToLower(e.FullName()), search) ||
		strings.Contains(e.Phone, search) ||
		strings.Contains(strings.ToLower(e.Position), search)
}
