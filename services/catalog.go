package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"grocery-marketplace-api/apperror"
	"grocery-marketplace-api/models"

	"gorm.io/gorm"
)

type CategoryInput struct {
	Name   string
	Region string
}

type ProductInput struct {
	CategoryID  uint
	Name        string
	Description string
	Price       float64
	Stock       int
}

type ProductQuery struct {
	CategoryID uint
	Search     string
	Page       int
	Limit      int
}

type CatalogService struct {
	db *gorm.DB
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{db: db}
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*models.Category, error) {
	db := s.db.WithContext(ctx)
	var count int64
	if err := db.Model(&models.Category{}).Where("name = ?", in.Name).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check category: %w", err)
	}
	if count > 0 {
		return nil, apperror.Conflict("Category %q already exists", in.Name)
	}
	category := &models.Category{Name: in.Name, Region: in.Region}
	if err := db.Create(category).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.Conflict("Category %q already exists", in.Name)
		}
		return nil, fmt.Errorf("create category: %w", err)
	}
	return category, nil
}

// CreateProduct lists a new product owned by the calling supplier.
func (s *CatalogService) CreateProduct(ctx context.Context, id Identity, in ProductInput) (*models.Product, error) {
	db := s.db.WithContext(ctx)
	var category models.Category
	if err := db.First(&category, in.CategoryID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Category not found")
		}
		return nil, fmt.Errorf("get category: %w", err)
	}

	product := &models.Product{
		SupplierID:  id.UserID,
		CategoryID:  category.ID,
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    true,
	}
	if err := db.Create(product).Error; err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	product.Category = &category
	return product, nil
}

// ListProducts pages through active products.
func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) (*Page[models.Product], error) {
	page, limit := normalizePage(q.Page, q.Limit)
	filter := func(db *gorm.DB) *gorm.DB {
		db = db.Where("is_active = ?", true)
		if q.CategoryID != 0 {
			db = db.Where("category_id = ?", q.CategoryID)
		}
		if search := strings.TrimSpace(q.Search); search != "" {
			db = db.Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(search))
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	products := []models.Product{}
	err := s.db.WithContext(ctx).Scopes(filter).
		Preload("Category").
		Order("created_at desc").Order("id desc").
		Offset(offset(page, limit)).Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return &Page[models.Product]{Data: products, Meta: newMeta(page, limit, total)}, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	return findProduct(s.db.WithContext(ctx).Preload("Category"), id)
}

func findProduct(db *gorm.DB, id uint) (*models.Product, error) {
	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Product not found")
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return &product, nil
}
