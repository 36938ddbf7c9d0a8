package services

import (
	"context"
	"errors"
	"fmt"

	"grocery-marketplace-api/apperror"
	"grocery-marketplace-api/models"

	"gorm.io/gorm"
)

type ReviewInput struct {
	OrderID   uint
	ProductID uint
	Rating    int
	Comment   string
}

type ReviewService struct {
	db *gorm.DB
}

func NewReviewService(db *gorm.DB) *ReviewService {
	return &ReviewService{db: db}
}

// Create records a review for a product the caller received. Reviews start
// pending until an admin moderates them.
func (s *ReviewService) Create(ctx context.Context, id Identity, in ReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperror.BadRequest("Rating must be between 1 and 5")
	}
	db := s.db.WithContext(ctx)
	user, err := findUserByEmail(ctx, db, id.Email)
	if err != nil {
		return nil, err
	}

	var bought int64
	err = db.Model(&models.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.id = ? AND orders.user_id = ? AND orders.order_status = ? AND order_items.product_id = ?",
			in.OrderID, user.ID, models.OrderDelivered, in.ProductID).
		Count(&bought).Error
	if err != nil {
		return nil, fmt.Errorf("check delivered order: %w", err)
	}
	if bought == 0 {
		return nil, apperror.BadRequest("You cannot review this product")
	}

	var dup int64
	if err := db.Model(&models.Review{}).
		Where("user_id = ? AND order_id = ? AND product_id = ?", user.ID, in.OrderID, in.ProductID).
		Count(&dup).Error; err != nil {
		return nil, fmt.Errorf("check existing review: %w", err)
	}
	if dup > 0 {
		return nil, apperror.BadRequest("You have already reviewed this product")
	}

	review := &models.Review{
		UserID:    user.ID,
		OrderID:   in.OrderID,
		ProductID: in.ProductID,
		Rating:    in.Rating,
		Comment:   in.Comment,
		Status:    models.ReviewPending,
	}
	if err := db.Create(review).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.BadRequest("You have already reviewed this product")
		}
		return nil, fmt.Errorf("create review: %w", err)
	}
	return review, nil
}

// ForProduct lists the approved reviews of a product.
func (s *ReviewService) ForProduct(ctx context.Context, productID uint) ([]models.Review, error) {
	reviews := []models.Review{}
	err := s.db.WithContext(ctx).
		Where("product_id = ? AND status = ?", productID, models.ReviewApproved).
		Order("created_at desc").
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

func (s *ReviewService) Moderate(ctx context.Context, reviewID uint, status models.ReviewStatus) (*models.Review, error) {
	if status != models.ReviewApproved && status != models.ReviewRejected {
		return nil, apperror.BadRequest("Invalid status. Must be: approved or rejected")
	}
	db := s.db.WithContext(ctx)
	var review models.Review
	if err := db.First(&review, reviewID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Review not found")
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	if err := db.Model(&review).Update("status", status).Error; err != nil {
		return nil, fmt.Errorf("moderate review: %w", err)
	}
	review.Status = status
	return &review, nil
}
