package services

import (
	"context"
	"testing"

	"grocery-marketplace-api/apperror"
	"grocery-marketplace-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeIssuer struct{}

func (fakeIssuer) Issue(id Identity) (string, error) {
	return "token-for-" + id.Email, nil
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, fakeIssuer{}, zap.NewNop())
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{FirstName: "Sam", Email: "sam@x.com", Password: "secret123"})
	require.NoError(t, err)
	assert.Equal(t, "token-for-sam@x.com", res.Token)
	assert.Equal(t, models.RoleCustomer, res.User.Role)

	_, err = svc.Register(ctx, RegisterInput{FirstName: "Sam", Email: "sam@x.com", Password: "secret123"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	_, err = svc.Register(ctx, RegisterInput{FirstName: "Eve", Email: "eve@x.com", Password: "secret123", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)

	login, err := svc.Login(ctx, "sam@x.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)

	_, err = svc.Login(ctx, "sam@x.com", "wrong")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	_, err = svc.Login(ctx, "nobody@x.com", "secret123")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestUserService_SuspendedUserCannotLogin(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, fakeIssuer{}, zap.NewNop())
	user := seedUser(t, db, "sam@x.com", models.RoleCustomer)

	got, err := svc.ToggleSuspension(context.Background(), user.ID)
	require.NoError(t, err)
	assert.True(t, got.IsSuspended)

	_, err = svc.Login(context.Background(), "sam@x.com", "secret123")
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	admin := seedUser(t, db, "root@x.com", models.RoleAdmin)
	_, err = svc.ToggleSuspension(context.Background(), admin.ID)
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestUserService_ListByRole(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db, fakeIssuer{}, zap.NewNop())
	seedUser(t, db, "a@x.com", models.RoleCustomer)
	seedUser(t, db, "b@x.com", models.RoleCustomer)
	seedUser(t, db, "s@x.com", models.RoleSupplier)

	page, err := svc.List(context.Background(), models.RoleCustomer, 1, 1)
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)
	assert.Equal(t, Meta{Page: 1, Limit: 1, Total: 2, TotalPage: 2}, page.Meta)
}
