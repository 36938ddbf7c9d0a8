package models

import "time"

// ApplicationStatus is the review state of a driver application
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Blocking reports whether an application in this state prevents the user from applying again
func (s ApplicationStatus) Blocking() bool {
	return s == ApplicationPending || s == ApplicationApproved
}

// Document is an uploaded file referenced by its blob-storage id
type Document struct {
	PublicID string `json:"public_id"`
	URL      string `json:"url"`
}

// DriverApplication is a request to become a driver, reviewed by an admin
type DriverApplication struct {
	ID                uint              `json:"id" gorm:"primaryKey"`
	UserID            uint              `json:"userId" gorm:"not null;index"`
	User              *User             `json:"user,omitempty" gorm:"foreignKey:UserID"`
	FirstName         string            `json:"firstName" gorm:"not null"`
	LastName          string            `json:"lastName"`
	Email             string            `json:"email" gorm:"index"`
	Phone             string            `json:"phone"`
	Address           string            `json:"address"`
	City              string            `json:"city"`
	State             string            `json:"state"`
	ZipCode           string            `json:"zipCode"`
	LicenseExpiryDate string            `json:"licenseExpiryDate"`
	YearsOfExperience int               `json:"yearsOfExperience"`
	DocumentURL       []Document        `json:"documentUrl" gorm:"serializer:json"`
	Status            ApplicationStatus `json:"status" gorm:"not null;default:'pending';index"`
	IsSuspended       bool              `json:"isSuspended" gorm:"not null;default:false"`
	SuspendedUntil    *time.Time        `json:"suspendedUntil"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}
