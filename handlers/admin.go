package handlers

import (
	"grocery-marketplace-api/models"
	"grocery-marketplace-api/response"
	"grocery-marketplace-api/services"
	"grocery-marketplace-api/statemachine"

	"github.com/gin-gonic/gin"
)

type UpdateApplicationStatusRequest struct {
	Status models.ApplicationStatus `json:"status" binding:"required"`
}

type SuspendRequest struct {
	SuspensionDays *int `json:"suspensionDays" binding:"omitempty,gte=0"`
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

type ModerateReviewRequest struct {
	Status models.ReviewStatus `json:"status" binding:"required,oneof=approved rejected"`
}

type CategoryRequest struct {
	Name   string `json:"name" binding:"required"`
	Region string `json:"region" binding:"required"`
}

type WholesaleRequest struct {
	Type            models.WholesaleType       `json:"type" binding:"required,oneof=case pallet fastMoving"`
	CaseItems       []models.WholesaleCaseItem `json:"caseItems" binding:"omitempty,dive"`
	PalletItems     []models.Pallet            `json:"palletItems" binding:"omitempty,dive"`
	FastMovingItems []models.FastMovingItem    `json:"fastMovingItems" binding:"omitempty,dive"`
}

// ── Driver applications ────────────────────────────────────────

// ListDriverApplications pages through applications with optional status and search filters
func (h *Handler) ListDriverApplications(c *gin.Context) {
	page, err := h.Drivers.List(c.Request.Context(), services.ApplicationQuery{
		Status: models.ApplicationStatus(c.Query("status")),
		Search: c.Query("search"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, "Driver applications retrieved", page.Data, page.Meta)
}

func (h *Handler) GetDriverApplication(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	app, err := h.Drivers.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Driver application retrieved", app)
}

// UpdateDriverStatus approves or rejects a pending application
func (h *Handler) UpdateDriverStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateApplicationStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	app, err := h.Drivers.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Driver application "+string(app.Status), app)
}

func (h *Handler) ToggleDriverSuspension(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req SuspendRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	app, err := h.Drivers.ToggleSuspension(c.Request.Context(), id, req.SuspensionDays)
	if err != nil {
		response.Error(c, err)
		return
	}
	msg := "Driver unsuspended"
	if app.IsSuspended {
		msg = "Driver suspended"
	}
	response.OK(c, msg, app)
}

// DeleteDriverApplication removes the application and the applicant's account
func (h *Handler) DeleteDriverApplication(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.Drivers.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Driver deleted successfully", nil)
}

// ── Users ──────────────────────────────────────────────────────

func (h *Handler) ListUsers(c *gin.Context) {
	page, err := h.Users.List(c.Request.Context(), models.UserRole(c.Query("role")), queryInt(c, "page"), queryInt(c, "limit"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, "Users retrieved", page.Data, page.Meta)
}

func (h *Handler) ToggleUserSuspension(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	user, err := h.Users.ToggleSuspension(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "User suspension updated", user)
}

// ── Orders ─────────────────────────────────────────────────────

func (h *Handler) ListOrders(c *gin.Context) {
	page, err := h.Orders.All(c.Request.Context(), services.OrderQuery{
		Status: models.OrderStatus(c.Query("status")),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paged(c, "Orders retrieved", page.Data, page.Meta)
}

// AdminUpdateOrderStatus moves any order along the lifecycle as admin
func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	h.updateOrderStatus(c, statemachine.ActorAdmin)
}

func (h *Handler) MarkOrderPaid(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.MarkPaid(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order marked as paid", order)
}

func (h *Handler) updateOrderStatus(c *gin.Context, actor statemachine.Actor) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	order, err := h.Orders.UpdateStatus(c.Request.Context(), id, req.Status, actor, identity(c), req.Note)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Order status updated to "+string(order.OrderStatus), order)
}

// ── Catalog & moderation ───────────────────────────────────────

func (h *Handler) ModerateReview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req ModerateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	review, err := h.Reviews.Moderate(c.Request.Context(), id, req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Review "+string(review.Status), review)
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	category, err := h.Catalog.CreateCategory(c.Request.Context(), services.CategoryInput{Name: req.Name, Region: req.Region})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Category created", category)
}

func (h *Handler) CreateWholesale(c *gin.Context) {
	var req WholesaleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindError(c, err)
		return
	}
	entry, err := h.Wholesale.Add(c.Request.Context(), services.WholesaleInput{
		Type:            req.Type,
		CaseItems:       req.CaseItems,
		PalletItems:     req.PalletItems,
		FastMovingItems: req.FastMovingItems,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Wholesale entry created", entry)
}

// ── Dashboard ──────────────────────────────────────────────────

func (h *Handler) Analytics(c *gin.Context) {
	stats, err := h.Dashboard.Analytics(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Analytics retrieved", stats)
}

func (h *Handler) RegionalSales(c *gin.Context) {
	sales, err := h.Dashboard.RegionalSales(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Regional sales retrieved", sales)
}
