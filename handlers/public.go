package handlers

import (
	"net/http"

	"grocery-marketplace-api/models"
	"grocery-marketplace-api/response"
	"grocery-marketplace-api/services"
	"grocery-marketplace-api/statemachine"

	"github.com/gin-gonic/gin"
)

// ListProducts returns active products, filtered by category or name
func (h *Handler) ListProducts(c *gin.Context) {
	page, err := h.Catalog.ListProducts(c.Request.Context(), services.ProductQuery{
		CategoryID: uint(queryInt(c, "categoryId")),
		Search:     c.Query("search"),
		Page:       queryInt(c, "page"),
		Limit:      queryInt(c, "limit"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, "Products retrieved", page.Data, page.Meta)
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	product, err := h.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Product retrieved", product)
}

func (h *Handler) GetProductReviews(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	reviews, err := h.Reviews.ForProduct(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Reviews retrieved", reviews)
}

func (h *Handler) ListWholesale(c *gin.Context) {
	entries, err := h.Wholesale.List(c.Request.Context(), models.WholesaleType(c.Query("type")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Wholesale entries retrieved", entries)
}

func (h *Handler) GetWholesale(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	entry, err := h.Wholesale.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Wholesale entry retrieved", entry)
}

// RevenueCharts returns twelve monthly points of revenue or order counts
func (h *Handler) RevenueCharts(c *gin.Context) {
	kind := services.ChartKind(c.DefaultQuery("type", string(services.ChartRevenue)))
	points, err := h.Dashboard.Charts(c.Request.Context(), kind, queryInt(c, "year"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Chart data retrieved", points)
}

// GetStateMachineInfo returns both lifecycles for informational purposes
func GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, response.Body{
		Success: true,
		Message: "Lifecycle state machines",
		Data: gin.H{
			"orders":             statemachine.Orders.Transitions(),
			"driverApplications": statemachine.Applications.Transitions(),
			"terminalStates": gin.H{
				"orders":             []models.OrderStatus{models.OrderDelivered, models.OrderCancelled},
				"driverApplications": []models.ApplicationStatus{models.ApplicationApproved, models.ApplicationRejected},
			},
		},
	})
}
