package models

import "time"

type WholesaleType string

const (
	WholesaleCase       WholesaleType = "case"
	WholesalePallet     WholesaleType = "pallet"
	WholesaleFastMoving WholesaleType = "fastMoving"
)

type WholesaleCaseItem struct {
	ProductID        uint    `json:"productId" binding:"required"`
	CaseQuantity     int     `json:"caseQuantity" binding:"required,min=1"`
	UnitsPerCase     int     `json:"unitsPerCase" binding:"required,min=1"`
	BaseCasePrice    float64 `json:"baseCasePrice" binding:"required,gt=0"`
	SellingCasePrice float64 `json:"sellingCasePrice" binding:"required,gt=0"`
	DiscountPercent  float64 `json:"discountPercent" binding:"min=0,max=100"`
	IsActive         bool    `json:"isActive"`
}

type PalletItem struct {
	ProductID    uint `json:"productId" binding:"required"`
	CaseQuantity int  `json:"caseQuantity" binding:"required,min=1"`
}

type Pallet struct {
	PalletName      string       `json:"palletName" binding:"required"`
	Items           []PalletItem `json:"items" binding:"required,min=1,dive"`
	TotalCases      int          `json:"totalCases" binding:"required,min=1"`
	PalletPrice     float64      `json:"palletPrice" binding:"required,gt=0"`
	EstimatedWeight float64      `json:"estimatedWeight"`
	IsMixed         bool         `json:"isMixed"`
	IsActive        bool         `json:"isActive"`
}

type FastMovingItem struct {
	ProductID uint `json:"productId" binding:"required"`
}

// Wholesale is a wholesale catalog entry; which item list is populated depends on Type
type Wholesale struct {
	ID              uint                `json:"id" gorm:"primaryKey"`
	Type            WholesaleType       `json:"type" gorm:"not null;index"`
	CaseItems       []WholesaleCaseItem `json:"caseItems,omitempty" gorm:"serializer:json"`
	PalletItems     []Pallet            `json:"palletItems,omitempty" gorm:"serializer:json"`
	FastMovingItems []FastMovingItem    `json:"fastMovingItems,omitempty" gorm:"serializer:json"`
	IsActive        bool                `json:"isActive" gorm:"not null;default:true"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}
