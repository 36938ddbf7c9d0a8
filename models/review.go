package models

import "time"

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// Review is unique per (user, order, product)
type Review struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	UserID    uint         `json:"userId" gorm:"not null;uniqueIndex:idx_review_user_order_product"`
	OrderID   uint         `json:"orderId" gorm:"not null;uniqueIndex:idx_review_user_order_product"`
	ProductID uint         `json:"productId" gorm:"not null;uniqueIndex:idx_review_user_order_product;index"`
	Rating    int          `json:"rating" gorm:"not null"`
	Comment   string       `json:"comment"`
	Status    ReviewStatus `json:"status" gorm:"not null;default:'pending'"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Counter is a named monotonically increasing sequence
type Counter struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"uniqueIndex;not null"`
	Seq  int64  `json:"seq" gorm:"not null;default:1000"`
}
