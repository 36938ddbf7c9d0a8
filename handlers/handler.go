// Package handlers is the HTTP boundary: it binds and validates requests,
// builds the caller's identity and hands off to the services.
package handlers

import (
	"strconv"

	"grocery-marketplace-api/apperror"
	"grocery-marketplace-api/middleware"
	"grocery-marketplace-api/response"
	"grocery-marketplace-api/services"

	"github.com/gin-gonic/gin"
)

// Handler groups the services the endpoints call into.
type Handler struct {
	Users     *services.UserService
	Drivers   *services.DriverApplicationService
	Catalog   *services.CatalogService
	Cart      *services.CartService
	Wishlist  *services.WishlistService
	Orders    *services.OrderService
	Reviews   *services.ReviewService
	Wholesale *services.WholesaleService
	Dashboard *services.DashboardService
}

// paramID parses a positive numeric path parameter, answering 400 otherwise
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		response.Error(c, apperror.BadRequest("Invalid %s", name))
		return 0, false
	}
	return uint(id), true
}

func queryInt(c *gin.Context, name string) int {
	n, _ := strconv.Atoi(c.Query(name))
	return n
}

// identity returns the caller set by AuthRequired; routes using it are
// always behind that middleware.
func identity(c *gin.Context) services.Identity {
	id, _ := middleware.IdentityFrom(c)
	return id
}

// bindOptionalJSON binds a JSON body when one was sent
func bindOptionalJSON(c *gin.Context, req any) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	if err := c.ShouldBindJSON(req); err != nil {
		response.BindError(c, err)
		return false
	}
	return true
}
