package services

import (
	"context"
	"testing"

	"grocery-marketplace-api/apperror"
	"grocery-marketplace-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	db := newTestDB(t)
	svc := NewCatalogService(db)
	ctx := context.Background()
	supplier := seedUser(t, db, "s@x.com", models.RoleSupplier)
	who := Identity{UserID: supplier.ID, Email: supplier.Email, Role: supplier.Role}

	fruit, err := svc.CreateCategory(ctx, CategoryInput{Name: "Fruit", Region: "north"})
	require.NoError(t, err)
	_, err = svc.CreateCategory(ctx, CategoryInput{Name: "Fruit", Region: "south"})
	assert.ErrorIs(t, err, apperror.ErrConflict)

	apple, err := svc.CreateProduct(ctx, who, ProductInput{CategoryID: fruit.ID, Name: "Green Apple", Price: 1.5, Stock: 10})
	require.NoError(t, err)
	assert.Equal(t, supplier.ID, apple.SupplierID)
	assert.True(t, apple.IsActive)

	pear, err := svc.CreateProduct(ctx, who, ProductInput{CategoryID: fruit.ID, Name: "Pear", Price: 2, Stock: 3})
	require.NoError(t, err)
	require.NoError(t, db.Model(pear).Update("is_active", false).Error)

	_, err = svc.CreateProduct(ctx, who, ProductInput{CategoryID: 999, Name: "Ghost", Price: 1})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	page, err := svc.ListProducts(ctx, ProductQuery{Search: "APPLE"})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Fruit", page.Data[0].Category.Name)

	_, err = svc.CreateProduct(ctx, who, ProductInput{CategoryID: fruit.ID, Name: "100% Juice", Price: 3, Stock: 5})
	require.NoError(t, err)
	for search, want := range map[string]int64{"%": 1, "0% j": 1, "_": 0, "a%e": 0} {
		got, err := svc.ListProducts(ctx, ProductQuery{Search: search})
		require.NoError(t, err)
		assert.Equal(t, want, got.Meta.Total, "search %q", search)
	}

	all, err := svc.ListProducts(ctx, ProductQuery{CategoryID: fruit.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, all.Meta.Total, "inactive products are hidden")

	got, err := svc.GetProduct(ctx, apple.ID)
	require.NoError(t, err)
	assert.Equal(t, "Green Apple", got.Name)
	_, err = svc.GetProduct(ctx, 999)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	cart := NewCartService(db)
	_, err = cart.Add(ctx, Identity{UserID: supplier.ID, Email: supplier.Email}, pear.ID, 1)
	assert.ErrorIs(t, err, apperror.ErrBadRequest, "inactive products cannot be added")
}
