// Package services holds the domain operations behind the HTTP handlers.
// Every operation receives the caller explicitly; nothing is read from
// request-scoped state.
package services

import (
	"context"
	"errors"
	"fmt"

	"grocery-marketplace-api/apperror"
	"grocery-marketplace-api/models"

	"gorm.io/gorm"
)

// Identity is an authenticated caller, as established by the auth middleware.
type Identity struct {
	UserID uint
	Email  string
	Role   models.UserRole
}

// Applicant is who a unified driver registration is for: either LoggedIn
// or Guest.
type Applicant interface {
	applicant()
}

// LoggedIn applies on behalf of an existing, authenticated account.
type LoggedIn struct {
	Identity Identity
}

// Guest registers a new customer account together with the application.
type Guest struct{}

func (LoggedIn) applicant() {}
func (Guest) applicant()    {}

func findUserByEmail(ctx context.Context, db *gorm.DB, email string) (*models.User, error) {
	var user models.User
	err := db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Account does not exist")
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}
