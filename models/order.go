package models

import "time"

// OrderStatus represents all possible states of an order
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderDelivered  OrderStatus = "delivered"
	OrderCancelled  OrderStatus = "cancelled"
)

type PaymentType string

const (
	PaymentOnline PaymentType = "online"
	PaymentCOD    PaymentType = "cod"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type Order struct {
	ID              uint                 `json:"id" gorm:"primaryKey"`
	OrderNumber     string               `json:"orderNumber" gorm:"uniqueIndex;not null"`
	UserID          uint                 `json:"userId" gorm:"not null;index"`
	Items           []OrderItem          `json:"items,omitempty" gorm:"foreignKey:OrderID"`
	TotalPrice      float64              `json:"totalPrice"`
	PaymentType     PaymentType          `json:"paymentType" gorm:"not null"`
	PaymentStatus   PaymentStatus        `json:"paymentStatus" gorm:"not null;default:'pending'"`
	OrderStatus     OrderStatus          `json:"orderStatus" gorm:"not null;default:'pending';index"`
	ShippingAddress string               `json:"shippingAddress" gorm:"not null"`
	StatusHistory   []OrderStatusHistory `json:"statusHistory,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt       time.Time            `json:"createdAt" gorm:"index"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

type OrderItem struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	OrderID    uint    `json:"orderId" gorm:"not null;index"`
	ProductID  uint    `json:"productId" gorm:"not null;index"`
	SupplierID uint    `json:"supplierId" gorm:"not null;index"`
	Name       string  `json:"name"`                  // snapshot name
	Price      float64 `json:"price" gorm:"not null"` // snapshot price at time of order
	Quantity   int     `json:"quantity" gorm:"not null"`
}

// OrderStatusHistory tracks every status change
type OrderStatusHistory struct {
	ID         uint        `json:"id" gorm:"primaryKey"`
	OrderID    uint        `json:"orderId" gorm:"not null;index"`
	FromStatus OrderStatus `json:"fromStatus"`
	ToStatus   OrderStatus `json:"toStatus" gorm:"not null"`
	ChangedBy  uint        `json:"changedBy"` // user ID who triggered the transition
	Note       string      `json:"note"`
	CreatedAt  time.Time   `json:"createdAt"`
}
