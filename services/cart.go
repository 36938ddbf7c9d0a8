package services

import (
	"context"
	"errors"
	"fmt"

	"grocery-marketplace-api/apperror"
	"grocery-marketplace-api/models"

	"gorm.io/gorm"
)

type CartService struct {
	db *gorm.DB
}

func NewCartService(db *gorm.DB) *CartService {
	return &CartService{db: db}
}

// Add puts a product in the caller's cart, merging with an existing line.
func (s *CartService) Add(ctx context.Context, id Identity, productID uint, qty int) (*models.CartItem, error) {
	if qty < 1 {
		return nil, apperror.BadRequest("Quantity must be at least 1")
	}
	db := s.db.WithContext(ctx)
	user, err := findUserByEmail(ctx, db, id.Email)
	if err != nil {
		return nil, err
	}
	product, err := findProduct(db, productID)
	if err != nil {
		return nil, err
	}
	if !product.IsActive {
		return nil, apperror.BadRequest("Product is not available")
	}

	var item models.CartItem
	err = db.Where("user_id = ? AND product_id = ?", user.ID, product.ID).First(&item).Error
	switch {
	case err == nil:
		item.Quantity += qty
		if err := db.Model(&item).Update("quantity", item.Quantity).Error; err != nil {
			return nil, fmt.Errorf("update cart line: %w", err)
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{UserID: user.ID, ProductID: product.ID, Quantity: qty}
		if err := db.Create(&item).Error; err != nil {
			return nil, fmt.Errorf("create cart line: %w", err)
		}
	default:
		return nil, fmt.Errorf("get cart line: %w", err)
	}
	item.Product = product
	return &item, nil
}

// Mine returns the caller's cart lines with their products.
func (s *CartService) Mine(ctx context.Context, id Identity, page, limit int) (*Page[models.CartItem], error) {
	db := s.db.WithContext(ctx)
	user, err := findUserByEmail(ctx, db, id.Email)
	if err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit)

	var total int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", user.ID).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count cart: %w", err)
	}
	items := []models.CartItem{}
	err = s.db.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", user.ID).
		Order("created_at desc").Order("id desc").
		Offset(offset(page, limit)).Limit(limit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	return &Page[models.CartItem]{Data: items, Meta: newMeta(page, limit, total)}, nil
}

func (s *CartService) Increase(ctx context.Context, id Identity, productID uint, qty int) (*models.CartItem, error) {
	if qty < 1 {
		return nil, apperror.BadRequest("Quantity must be at least 1")
	}
	db := s.db.WithContext(ctx)
	item, err := s.line(ctx, db, id, productID)
	if err != nil {
		return nil, err
	}
	if err := db.Model(item).Update("quantity", gorm.Expr("quantity + ?", qty)).Error; err != nil {
		return nil, fmt.Errorf("increase cart line: %w", err)
	}
	item.Quantity += qty
	return item, nil
}

// Decrease lowers a line's quantity; a line never drops below 1.
func (s *CartService) Decrease(ctx context.Context, id Identity, productID uint, qty int) (*models.CartItem, error) {
	if qty < 1 {
		return nil, apperror.BadRequest("Quantity must be at least 1")
	}
	db := s.db.WithContext(ctx)
	item, err := s.line(ctx, db, id, productID)
	if err != nil {
		return nil, err
	}
	res := db.Model(&models.CartItem{}).
		Where("id = ? AND quantity - ? >= 1", item.ID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return nil, fmt.Errorf("decrease cart line: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, apperror.BadRequest("Quantity cannot be less than 1")
	}
	item.Quantity -= qty
	return item, nil
}

func (s *CartService) Remove(ctx context.Context, id Identity, productID uint) error {
	db := s.db.WithContext(ctx)
	item, err := s.line(ctx, db, id, productID)
	if err != nil {
		return err
	}
	if err := db.Delete(item).Error; err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	return nil
}

func (s *CartService) line(ctx context.Context, db *gorm.DB, id Identity, productID uint) (*models.CartItem, error) {
	user, err := findUserByEmail(ctx, db, id.Email)
	if err != nil {
		return nil, err
	}
	var item models.CartItem
	err = db.Where("user_id = ? AND product_id = ?", user.ID, productID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Product is not in your cart")
		}
		return nil, fmt.Errorf("get cart line: %w", err)
	}
	return &item, nil
}
