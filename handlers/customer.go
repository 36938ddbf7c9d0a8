package handlers

import (
	"context"

	"grocery-marketplace-api/models"
	"grocery-marketplace-api/response"
	"grocery-marketplace-api/services"

	"github.com/gin-gonic/gin"
)

type CartRequest struct {
	ProductID uint `json:"productId" binding:"required"`
	Quantity  int  `json:"quantity" binding:"omitempty,min=1"`
}

type QuantityRequest struct {
	Quantity int `json:"quantity" binding:"omitempty,min=1"`
}

type WishlistRequest struct {
	ProductID uint `json:"productId" binding:"required"`
}

type PlaceOrderRequest struct {
	Items []struct {
		ProductID uint `json:"productId" binding:"required"`
		Quantity  int  `json:"quantity" binding:"required,min=1"`
	} `json:"items" binding:"required,min=1,dive"`
	PaymentType     models.PaymentType `json:"paymentType" binding:"required,oneof=online cod"`
	ShippingAddress string             `json:"shippingAddress" binding:"required"`
}

type ReviewRequest struct {
	OrderID   uint   `json:"orderId" binding:"required"`
	ProductID uint   `json:"productId" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment"`
}

// ── Cart ───────────────────────────────────────────────────────

func (h *Handler) AddToCart(c *gin.Context) {
	var req CartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	item, err := h.Cart.Add(c.Request.Context(), identity(c), req.ProductID, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Product added to cart", item)
}

func (h *Handler) GetCart(c *gin.Context) {
	page, err := h.Cart.Mine(c.Request.Context(), identity(c), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, "Cart retrieved", page.Data, page.Meta)
}

func (h *Handler) IncreaseCartItem(c *gin.Context) {
	h.adjustCart(c, h.Cart.Increase)
}

func (h *Handler) DecreaseCartItem(c *gin.Context) {
	h.adjustCart(c, h.Cart.Decrease)
}

type cartAdjuster func(ctx context.Context, id services.Identity, productID uint, qty int) (*models.CartItem, error)

func (h *Handler) adjustCart(c *gin.Context, adjust cartAdjuster) {
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}
	var req QuantityRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	item, err := adjust(c.Request.Context(), identity(c), productID, req.Quantity)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Cart updated", item)
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	productID, ok := paramID(c, "productId")
	if !ok {
		return
	}
	if err := h.Cart.Remove(c.Request.Context(), identity(c), productID); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Product removed from cart", nil)
}

// ── Wishlist ───────────────────────────────────────────────────

func (h *Handler) AddToWishlist(c *gin.Context) {
	var req WishlistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	item, err := h.Wishlist.Add(c.Request.Context(), identity(c), req.ProductID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Product added to wishlist", item)
}

func (h *Handler) GetWishlist(c *gin.Context) {
	items, err := h.Wishlist.Mine(c.Request.Context(), identity(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Wishlist retrieved", items)
}

// ── Orders ─────────────────────────────────────────────────────

// PlaceOrder creates a new order from the requested products
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	lines := make([]services.OrderLine, len(req.Items))
	for i, it := range req.Items {
		lines[i] = services.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	order, err := h.Orders.Create(c.Request.Context(), identity(c), services.CreateOrderInput{
		Items:           lines,
		PaymentType:     req.PaymentType,
		ShippingAddress: req.ShippingAddress,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Order placed successfully", order)
}

// GetMyOrders returns all orders of the logged-in customer
func (h *Handler) GetMyOrders(c *gin.Context) {
	orders, err := h.Orders.Mine(c.Request.Context(), identity(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Orders retrieved", orders)
}

// CancelOrder lets a customer cancel their own pending order
func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.Cancel(c.Request.Context(), id, identity(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order cancelled", order)
}

// ── Reviews ────────────────────────────────────────────────────

func (h *Handler) CreateReview(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	review, err := h.Reviews.Create(c.Request.Context(), identity(c), services.ReviewInput{
		OrderID:   req.OrderID,
		ProductID: req.ProductID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Review submitted", review)
}
