package services

import (
	"context"
	"errors"
	"fmt"

	"grocery-marketplace-api/apperror"
	"grocery-marketplace-api/models"

	"gorm.io/gorm"
)

type WishlistService struct {
	db *gorm.DB
}

func NewWishlistService(db *gorm.DB) *WishlistService {
	return &WishlistService{db: db}
}

func (s *WishlistService) Add(ctx context.Context, id Identity, productID uint) (*models.WishlistItem, error) {
	db := s.db.WithContext(ctx)
	user, err := findUserByEmail(ctx, db, id.Email)
	if err != nil {
		return nil, err
	}
	product, err := findProduct(db, productID)
	if err != nil {
		return nil, err
	}

	var count int64
	if err := db.Model(&models.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", user.ID, product.ID).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check wishlist: %w", err)
	}
	if count > 0 {
		return nil, apperror.Conflict("Product is already in your wishlist")
	}

	item := &models.WishlistItem{UserID: user.ID, ProductID: product.ID}
	if err := db.Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("Product is already in your wishlist")
		}
		return nil, fmt.Errorf("add to wishlist: %w", err)
	}
	item.Product = product
	return item, nil
}

func (s *WishlistService) Mine(ctx context.Context, id Identity) ([]models.WishlistItem, error) {
	db := s.db.WithContext(ctx)
	user, err := findUserByEmail(ctx, db, id.Email)
	if err != nil {
		return nil, err
	}
	items := []models.WishlistItem{}
	if err := s.db.WithContext(ctx).Preload("Product").
		Where("user_id = ?", user.ID).
		Order("created_at desc").
		Find(&items).Error; err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	return items, nil
}
