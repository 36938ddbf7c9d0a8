package services

import (
	"context"
	"testing"

	"grocery-marketplace-api/apperror"
	"grocery-marketplace-api/models"
	"grocery-marketplace-api/statemachine"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestReviews_OnlyDeliveredOrdersCanBeReviewed(t *testing.T) {
	f := newOrderFixture(t)
	svc := NewReviewService(f.db)
	ctx := context.Background()
	order := f.place(t, models.PaymentCOD)
	in := ReviewInput{OrderID: order.ID, ProductID: f.apples.ID, Rating: 5, Comment: "Crisp"}

	_, err := svc.Create(ctx, f.customer, in)
	require.ErrorIs(t, err, apperror.ErrBadRequest)
	assert.Equal(t, "You cannot review this product", apperror.Message(err))

	for _, to := range []models.OrderStatus{models.OrderProcessing, models.OrderShipped, models.OrderDelivered} {
		_, err := f.svc.UpdateStatus(ctx, order.ID, to, statemachine.ActorAdmin, f.admin, "")
		require.NoError(t, err)
	}

	review, err := svc.Create(ctx, f.customer, in)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewPending, review.Status)

	_, err = svc.Create(ctx, f.customer, in)
	assert.ErrorIs(t, err, apperror.ErrBadRequest, "one review per order and product")

	stranger := seedUser(t, f.db, "x@x.com", models.RoleCustomer)
	_, err = svc.Create(ctx, Identity{UserID: stranger.ID, Email: stranger.Email}, ReviewInput{OrderID: order.ID, ProductID: f.pears.ID, Rating: 4})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)

	_, err = svc.Create(ctx, Identity{Email: "ghost@x.com"}, in)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = svc.Create(ctx, f.customer, ReviewInput{OrderID: order.ID, ProductID: f.pears.ID, Rating: 6})
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
}

func TestReviews_ConcurrentDuplicateIsRejected(t *testing.T) {
	f := newOrderFixture(t)
	svc := NewReviewService(f.db)
	ctx := context.Background()
	order := f.place(t, models.PaymentCOD)
	for _, to := range []models.OrderStatus{models.OrderProcessing, models.OrderShipped, models.OrderDelivered} {
		_, err := f.svc.UpdateStatus(ctx, order.ID, to, statemachine.ActorAdmin, f.admin, "")
		require.NoError(t, err)
	}

	// Another request lands its review between the duplicate check and the insert.
	beforeCreate(t, f.db, "reviews", func(tx *gorm.DB) {
		require.NoError(t, tx.Create(&models.Review{
			UserID: f.customer.UserID, OrderID: order.ID, ProductID: f.apples.ID, Rating: 3, Status: models.ReviewPending,
		}).Error)
	})

	_, err := svc.Create(ctx, f.customer, ReviewInput{OrderID: order.ID, ProductID: f.apples.ID, Rating: 5})
	require.ErrorIs(t, err, apperror.ErrBadRequest)
	assert.Equal(t, "You have already reviewed this product", apperror.Message(err))
}

func TestReviews_ModerationControlsVisibility(t *testing.T) {
	db := newTestDB(t)
	svc := NewReviewService(db)
	ctx := context.Background()
	review := &models.Review{UserID: 1, OrderID: 1, ProductID: 7, Rating: 4, Status: models.ReviewPending}
	require.NoError(t, db.Create(review).Error)

	visible, err := svc.ForProduct(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, visible)

	_, err = svc.Moderate(ctx, review.ID, models.ReviewApproved)
	require.NoError(t, err)

	visible, err = svc.ForProduct(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	_, err = svc.Moderate(ctx, review.ID, models.ReviewPending)
	assert.ErrorIs(t, err, apperror.ErrBadRequest)
	_, err = svc.Moderate(ctx, 999, models.ReviewRejected)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
