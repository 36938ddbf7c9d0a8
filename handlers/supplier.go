package handlers

import (
	"grocery-marketplace-api/response"
	"grocery-marketplace-api/services"
	"grocery-marketplace-api/statemachine"

	"github.com/gin-gonic/gin"
)

type ProductRequest struct {
	CategoryID  uint    `json:"categoryId" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Stock       int     `json:"stock" binding:"gte=0"`
}

// CreateProduct lists a product owned by the calling supplier
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	product, err := h.Catalog.CreateProduct(c.Request.Context(), identity(c), services.ProductInput{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Product created", product)
}

// GetSupplierOrders returns orders containing the supplier's products
func (h *Handler) GetSupplierOrders(c *gin.Context) {
	orders, err := h.Orders.ForSupplier(c.Request.Context(), identity(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Orders retrieved", orders)
}

// SupplierUpdateOrderStatus advances an order the supplier is part of
func (h *Handler) SupplierUpdateOrderStatus(c *gin.Context) {
	h.updateOrderStatus(c, statemachine.ActorSupplier)
}
