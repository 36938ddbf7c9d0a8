package routes

import (
	"grocery-marketplace-api/handlers"
	"grocery-marketplace-api/middleware"
	"grocery-marketplace-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *handlers.Handler, jwt *middleware.JWT) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", h.Register)
		public.POST("/auth/login", h.Login)

		// Catalog
		public.GET("/products", h.ListProducts)
		public.GET("/products/:id", h.GetProduct)
		public.GET("/products/:id/reviews", h.GetProductReviews)
		public.GET("/wholesale", h.ListWholesale)
		public.GET("/wholesale/:id", h.GetWholesale)
		public.GET("/dashboard/revenue-charts", h.RevenueCharts)

		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Driver onboarding ──────────────────────────────────────────
	drivers := r.Group("/api/drivers")
	{
		// Guests register an account together with the application
		drivers.POST("/register", jwt.OptionalAuth(), h.RegisterDriver)
		drivers.POST("/join", jwt.AuthRequired(), h.JoinAsDriver)
		drivers.GET("/me", jwt.AuthRequired(), h.GetMyApplication)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(jwt.AuthRequired())
	{
		auth.GET("/profile", h.GetProfile)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/api")
	customer.Use(jwt.AuthRequired(), middleware.RoleRequired(models.RoleCustomer))
	{
		customer.POST("/cart", h.AddToCart)
		customer.GET("/cart", h.GetCart)
		customer.PATCH("/cart/:productId/increase", h.IncreaseCartItem)
		customer.PATCH("/cart/:productId/decrease", h.DecreaseCartItem)
		customer.DELETE("/cart/:productId", h.RemoveCartItem)

		customer.POST("/wishlist", h.AddToWishlist)
		customer.GET("/wishlist", h.GetWishlist)

		customer.POST("/orders/create", h.PlaceOrder)
		customer.GET("/orders/my-orders", h.GetMyOrders)
		customer.PATCH("/orders/:id/cancel", h.CancelOrder)

		customer.POST("/reviews", h.CreateReview)
	}

	// ── Supplier routes ────────────────────────────────────────────
	supplier := r.Group("/api/supplier")
	supplier.Use(jwt.AuthRequired(), middleware.RoleRequired(models.RoleSupplier))
	{
		supplier.POST("/products", h.CreateProduct)
		supplier.GET("/orders", h.GetSupplierOrders)
		supplier.PATCH("/orders/:id/status", h.SupplierUpdateOrderStatus)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(jwt.AuthRequired(), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/drivers", h.ListDriverApplications)
		admin.GET("/drivers/:id", h.GetDriverApplication)
		admin.PATCH("/drivers/:id/status", h.UpdateDriverStatus)
		admin.PATCH("/drivers/:id/suspend", h.ToggleDriverSuspension)
		admin.DELETE("/drivers/:id", h.DeleteDriverApplication)

		admin.GET("/users", h.ListUsers)
		admin.PATCH("/users/:id/suspend", h.ToggleUserSuspension)

		admin.GET("/orders", h.ListOrders)
		admin.PATCH("/orders/:id/status", h.AdminUpdateOrderStatus)
		admin.PATCH("/orders/:id/paid", h.MarkOrderPaid)

		admin.PATCH("/reviews/:id", h.ModerateReview)
		admin.POST("/categories", h.CreateCategory)
		admin.POST("/wholesale", h.CreateWholesale)
	}

	// ── Admin dashboard ────────────────────────────────────────────
	dashboard := r.Group("/api/dashboard")
	dashboard.Use(jwt.AuthRequired(), middleware.RoleRequired(models.RoleAdmin))
	{
		dashboard.GET("/analytics", h.Analytics)
		dashboard.GET("/regional-sales", h.RegionalSales)
	}
}
