// Package response writes the unified JSON envelope used by every endpoint.
package response

import (
	"errors"
	"net/http"

	"grocery-marketplace-api/apperror"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Body is the envelope: {success, message, data, meta}.
type Body struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Meta    any    `json:"meta,omitempty"`
}

func OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Body{Success: true, Message: message, Data: data})
}

func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Body{Success: true, Message: message, Data: data})
}

// Paged sends one page of a listing with its pagination meta.
func Paged(c *gin.Context, message string, data, meta any) {
	c.JSON(http.StatusOK, Body{Success: true, Message: message, Data: data, Meta: meta})
}

// Error maps err to its HTTP status. Unclassified errors are logged and
// answered with a generic message.
func Error(c *gin.Context, err error) {
	status := apperror.StatusCode(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		if log, ok := c.Get(LoggerKey); ok {
			log.(*zap.Logger).Error("request failed", zap.Error(err))
		}
	}
	c.JSON(status, Body{Success: false, Message: apperror.Message(err)})
}

// BindError answers a request that failed binding or validation.
func BindError(c *gin.Context, err error) {
	msg := err.Error()
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		msg = fe.Field() + " failed on the '" + fe.Tag() + "' rule"
	}
	c.JSON(http.StatusBadRequest, Body{Success: false, Message: msg})
}

// Abort stops the chain with an error envelope; for middleware.
func Abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, Body{Success: false, Message: message})
}

// LoggerKey is where the request logger middleware stores the
// request-scoped *zap.Logger.
const LoggerKey = "logger"
