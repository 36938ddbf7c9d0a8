package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleDriver   UserRole = "driver"
	RoleSupplier UserRole = "supplier"
	RoleAdmin    UserRole = "admin"
)

// Valid reports whether r is one of the known roles
func (r UserRole) Valid() bool {
	switch r {
	case RoleCustomer, RoleDriver, RoleSupplier, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	FirstName    string    `json:"firstName" gorm:"not null"`
	LastName     string    `json:"lastName"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	Phone        string    `json:"phone" gorm:"index"`
	Image        string    `json:"image"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         UserRole  `json:"role" gorm:"not null;default:'customer';index"`
	IsVerified   bool      `json:"isVerified" gorm:"not null;default:false"`
	IsSuspended  bool      `json:"isSuspended" gorm:"not null;default:false"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicUserColumns are the user fields exposed when a user is embedded in another document
var PublicUserColumns = []string{"id", "first_name", "last_name", "email", "image"}
