package services

import (
	"context"
	"errors"
	"fmt"

	"grocery-marketplace-api/apperror"
	"grocery-marketplace-api/models"

	"gorm.io/gorm"
)

type WholesaleInput struct {
	Type            models.WholesaleType
	CaseItems       []models.WholesaleCaseItem
	PalletItems     []models.Pallet
	FastMovingItems []models.FastMovingItem
}

type WholesaleService struct {
	db *gorm.DB
}

func NewWholesaleService(db *gorm.DB) *WholesaleService {
	return &WholesaleService{db: db}
}

// Add creates a wholesale entry. Only the item list matching the type is
// kept, and every product it references must exist.
func (s *WholesaleService) Add(ctx context.Context, in WholesaleInput) (*models.Wholesale, error) {
	entry := &models.Wholesale{Type: in.Type, IsActive: true}
	var productIDs []uint

	switch in.Type {
	case models.WholesaleCase:
		if len(in.CaseItems) == 0 {
			return nil, apperror.BadRequest("caseItems are required for type case")
		}
		entry.CaseItems = in.CaseItems
		for _, it := range in.CaseItems {
			productIDs = append(productIDs, it.ProductID)
		}
	case models.WholesalePallet:
		if len(in.PalletItems) == 0 {
			return nil, apperror.BadRequest("palletItems are required for type pallet")
		}
		entry.PalletItems = in.PalletItems
		for _, pallet := range in.PalletItems {
			if len(pallet.Items) == 0 {
				return nil, apperror.BadRequest("Pallet '%s' has no items", pallet.PalletName)
			}
			for _, it := range pallet.Items {
				productIDs = append(productIDs, it.ProductID)
			}
		}
	case models.WholesaleFastMoving:
		if len(in.FastMovingItems) == 0 {
			return nil, apperror.BadRequest("fastMovingItems are required for type fastMoving")
		}
		entry.FastMovingItems = in.FastMovingItems
		for _, it := range in.FastMovingItems {
			productIDs = append(productIDs, it.ProductID)
		}
	default:
		return nil, apperror.BadRequest("Invalid wholesale type. Must be: case, pallet or fastMoving")
	}

	db := s.db.WithContext(ctx)
	unique := distinct(productIDs)
	var found int64
	if err := db.Model(&models.Product{}).Where("id IN ?", unique).Count(&found).Error; err != nil {
		return nil, fmt.Errorf("check wholesale products: %w", err)
	}
	if found != int64(len(unique)) {
		return nil, apperror.NotFound("One or more products not found")
	}

	if err := db.Create(entry).Error; err != nil {
		return nil, fmt.Errorf("create wholesale entry: %w", err)
	}
	return entry, nil
}

// List returns active entries, optionally of one type.
func (s *WholesaleService) List(ctx context.Context, typ models.WholesaleType) ([]models.Wholesale, error) {
	q := s.db.WithContext(ctx).Where("is_active = ?", true)
	if typ != "" {
		q = q.Where("type = ?", typ)
	}
	entries := []models.Wholesale{}
	if err := q.Order("created_at desc").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list wholesale: %w", err)
	}
	return entries, nil
}

func (s *WholesaleService) Get(ctx context.Context, id uint) (*models.Wholesale, error) {
	var entry models.Wholesale
	if err := s.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Wholesale entry not found")
		}
		return nil, fmt.Errorf("get wholesale: %w", err)
	}
	return &entry, nil
}

func distinct(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
