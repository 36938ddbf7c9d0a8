package services

import (
	"context"
	"errors"
	"fmt"

	"grocery-marketplace-api/apperror"
	"grocery-marketplace-api/models"
	"grocery-marketplace-api/statemachine"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OrderLine struct {
	ProductID uint
	Quantity  int
}

type CreateOrderInput struct {
	Items           []OrderLine
	PaymentType     models.PaymentType
	ShippingAddress string
}

type OrderQuery struct {
	Status models.OrderStatus
	Page   int
	Limit  int
}

type OrderService struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewOrderService(db *gorm.DB, log *zap.Logger) *OrderService {
	return &OrderService{db: db, log: log.With(zap.String("service", "orders"))}
}

// Create places an order in one transaction: stock is reserved, prices are
// snapshotted, the order number is drawn from the counter and the ordered
// products leave the cart.
func (s *OrderService) Create(ctx context.Context, id Identity, in CreateOrderInput) (*models.Order, error) {
	if len(in.Items) == 0 {
		return nil, apperror.BadRequest("Order must contain at least one item")
	}
	if in.PaymentType != models.PaymentOnline && in.PaymentType != models.PaymentCOD {
		return nil, apperror.BadRequest("Invalid payment type. Must be: online or cod")
	}
	user, err := findUserByEmail(ctx, s.db, id.Email)
	if err != nil {
		return nil, err
	}

	var order models.Order
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var (
			items      []models.OrderItem
			productIDs []uint
			total      float64
		)
		for _, line := range in.Items {
			if line.Quantity < 1 {
				return apperror.BadRequest("Quantity must be at least 1")
			}
			product, err := findProduct(tx, line.ProductID)
			if err != nil {
				return err
			}
			if !product.IsActive {
				return apperror.BadRequest("Product '%s' is not available", product.Name)
			}

			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", product.ID, line.Quantity).
				Update("stock", gorm.Expr("stock - ?", line.Quantity))
			if res.Error != nil {
				return fmt.Errorf("reserve stock: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return apperror.BadRequest("Insufficient stock for '%s'", product.Name)
			}

			total += product.Price * float64(line.Quantity)
			productIDs = append(productIDs, product.ID)
			items = append(items, models.OrderItem{
				ProductID:  product.ID,
				SupplierID: product.SupplierID,
				Name:       product.Name,
				Price:      product.Price,
				Quantity:   line.Quantity,
			})
		}

		seq, err := NextSequence(tx, orderCounter)
		if err != nil {
			return err
		}
		order = models.Order{
			OrderNumber:     orderNumber(seq),
			UserID:          user.ID,
			Items:           items,
			TotalPrice:      total,
			PaymentType:     in.PaymentType,
			PaymentStatus:   models.PaymentPending,
			OrderStatus:     models.OrderPending,
			ShippingAddress: in.ShippingAddress,
		}
		if err := tx.Create(&order).Error; err != nil {
			return fmt.Errorf("create order: %w", err)
		}

		history := models.OrderStatusHistory{
			OrderID:   order.ID,
			ToStatus:  models.OrderPending,
			ChangedBy: user.ID,
			Note:      "Order placed by customer",
		}
		if err := tx.Create(&history).Error; err != nil {
			return fmt.Errorf("record order history: %w", err)
		}
		order.StatusHistory = []models.OrderStatusHistory{history}

		if err := tx.Where("user_id = ? AND product_id IN ?", user.ID, productIDs).
			Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("clear ordered cart lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order placed",
		zap.String("order_number", order.OrderNumber),
		zap.Uint("user_id", user.ID),
		zap.Float64("total", order.TotalPrice),
	)
	return &order, nil
}

// Mine returns the caller's orders, newest first.
func (s *OrderService) Mine(ctx context.Context, id Identity) ([]models.Order, error) {
	user, err := findUserByEmail(ctx, s.db, id.Email)
	if err != nil {
		return nil, err
	}
	orders := []models.Order{}
	err = s.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", user.ID).
		Order("created_at desc").Order("id desc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list my orders: %w", err)
	}
	return orders, nil
}

// All pages through every order for the admin console.
func (s *OrderService) All(ctx context.Context, q OrderQuery) (*Page[models.Order], error) {
	page, limit := normalizePage(q.Page, q.Limit)
	filter := func(db *gorm.DB) *gorm.DB {
		if q.Status != "" {
			db = db.Where("order_status = ?", q.Status)
		}
		return db
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Order{}).Scopes(filter).Count(&total).Error; err != nil {
		return nil, fmt.Errorf("count orders: %w", err)
	}
	orders := []models.Order{}
	err := s.db.WithContext(ctx).Scopes(filter).
		Preload("Items").
		Order("created_at desc").Order("id desc").
		Offset(offset(page, limit)).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return &Page[models.Order]{Data: orders, Meta: newMeta(page, limit, total)}, nil
}

// ForSupplier returns orders that contain the supplier's products, with
// only that supplier's lines loaded.
func (s *OrderService) ForSupplier(ctx context.Context, id Identity) ([]models.Order, error) {
	orders := []models.Order{}
	err := s.db.WithContext(ctx).
		Preload("Items", "supplier_id = ?", id.UserID).
		Where("id IN (?)", s.db.Model(&models.OrderItem{}).Select("order_id").Where("supplier_id = ?", id.UserID)).
		Order("created_at desc").Order("id desc").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("list supplier orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus moves an order along its lifecycle on behalf of actor and
// appends to its history. Cancelling returns the reserved stock; delivering
// a cash order settles its payment.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID uint, to models.OrderStatus, actor statemachine.Actor, by Identity, note string) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("Order not found")
			}
			return fmt.Errorf("get order: %w", err)
		}
		if err := authorizeOrderActor(&order, actor, by); err != nil {
			return err
		}
		if err := statemachine.Orders.CanTransition(order.OrderStatus, to, actor); err != nil {
			return apperror.BadRequest("%s", err.Error())
		}

		updates := map[string]any{"order_status": to}
		if to == models.OrderDelivered && order.PaymentType == models.PaymentCOD {
			updates["payment_status"] = models.PaymentPaid
		}
		res := tx.Model(&models.Order{}).
			Where("id = ? AND order_status = ?", order.ID, order.OrderStatus).
			Updates(updates)
		if res.Error != nil {
			return fmt.Errorf("update order status: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperror.Conflict("Order was updated by someone else")
		}

		if to == models.OrderCancelled {
			for _, item := range order.Items {
				if err := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).
					Update("stock", gorm.Expr("stock + ?", item.Quantity)).Error; err != nil {
					return fmt.Errorf("restock product %d: %w", item.ProductID, err)
				}
			}
		}

		if err := tx.Create(&models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: order.OrderStatus,
			ToStatus:   to,
			ChangedBy:  by.UserID,
			Note:       note,
		}).Error; err != nil {
			return fmt.Errorf("record order history: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("order status changed",
		zap.Uint("order_id", order.ID),
		zap.String("from", string(order.OrderStatus)),
		zap.String("to", string(to)),
		zap.String("actor", string(actor)),
	)
	return s.get(ctx, order.ID)
}

// Cancel is the customer's own cancellation of a pending order.
func (s *OrderService) Cancel(ctx context.Context, orderID uint, by Identity) (*models.Order, error) {
	return s.UpdateStatus(ctx, orderID, models.OrderCancelled, statemachine.ActorCustomer, by, "Cancelled by customer")
}

// MarkPaid records a successful online payment.
func (s *OrderService) MarkPaid(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	switch {
	case order.PaymentType != models.PaymentOnline:
		return nil, apperror.BadRequest("Only online orders can be marked as paid")
	case order.PaymentStatus == models.PaymentPaid:
		return nil, apperror.BadRequest("Order is already paid")
	case order.OrderStatus == models.OrderCancelled:
		return nil, apperror.BadRequest("Cancelled orders cannot be paid")
	}
	if err := s.db.WithContext(ctx).Model(order).Update("payment_status", models.PaymentPaid).Error; err != nil {
		return nil, fmt.Errorf("mark order paid: %w", err)
	}
	order.PaymentStatus = models.PaymentPaid
	return order, nil
}

func (s *OrderService) get(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		First(&order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("Order not found")
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return &order, nil
}

func authorizeOrderActor(order *models.Order, actor statemachine.Actor, by Identity) error {
	switch actor {
	case statemachine.ActorCustomer:
		if order.UserID != by.UserID {
			return apperror.Forbidden("This order does not belong to you")
		}
	case statemachine.ActorSupplier:
		for _, item := range order.Items {
			if item.SupplierID == by.UserID {
				return nil
			}
		}
		return apperror.Forbidden("This order does not contain your products")
	}
	return nil
}
