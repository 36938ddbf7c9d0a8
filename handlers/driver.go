package handlers

import (
	"grocery-marketplace-api/middleware"
	"grocery-marketplace-api/response"
	"grocery-marketplace-api/services"
	"grocery-marketplace-api/storage"

	"github.com/gin-gonic/gin"
)

// documentsField is the multipart field carrying driver documents
const documentsField = "documents"

type DriverApplicationRequest struct {
	FirstName         string `form:"firstName" binding:"required"`
	LastName          string `form:"lastName"`
	Email             string `form:"email" binding:"required,email"`
	Phone             string `form:"phone" binding:"required"`
	Password          string `form:"password" binding:"omitempty,min=6"`
	Address           string `form:"address" binding:"required"`
	City              string `form:"city"`
	State             string `form:"state"`
	ZipCode           string `form:"zipCode"`
	LicenseExpiryDate string `form:"licenseExpiryDate" binding:"required"`
	YearsOfExperience int    `form:"yearsOfExperience" binding:"gte=0"`
}

func (r DriverApplicationRequest) input() services.ApplicationInput {
	return services.ApplicationInput{
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		Email:             r.Email,
		Phone:             r.Phone,
		Password:          r.Password,
		Address:           r.Address,
		City:              r.City,
		State:             r.State,
		ZipCode:           r.ZipCode,
		LicenseExpiryDate: r.LicenseExpiryDate,
		YearsOfExperience: r.YearsOfExperience,
	}
}

// documentFiles collects the uploaded documents; a non-multipart request has none
func documentFiles(c *gin.Context) []storage.File {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	headers := form.File[documentsField]
	if len(headers) == 0 {
		headers = form.File[documentsField+"[]"]
	}
	files := make([]storage.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, storage.FromMultipart(fh))
	}
	return files
}

// JoinAsDriver files a driver application for the logged-in user
func (h *Handler) JoinAsDriver(c *gin.Context) {
	var req DriverApplicationRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BindError(c, err)
		return
	}
	app, err := h.Drivers.Submit(c.Request.Context(), identity(c), req.input(), documentFiles(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Driver request submitted successfully", app)
}

// RegisterDriver applies as a driver, creating the account for guests
func (h *Handler) RegisterDriver(c *gin.Context) {
	var req DriverApplicationRequest
	if err := c.ShouldBind(&req); err != nil {
		response.BindError(c, err)
		return
	}

	var applicant services.Applicant = services.Guest{}
	if id, ok := middleware.IdentityFrom(c); ok {
		applicant = services.LoggedIn{Identity: id}
	}

	result, err := h.Drivers.SubmitUnified(c.Request.Context(), applicant, req.input(), documentFiles(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Driver registration submitted successfully", result)
}

// GetMyApplication returns the caller's latest driver application
func (h *Handler) GetMyApplication(c *gin.Context) {
	app, err := h.Drivers.GetMine(c.Request.Context(), identity(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Driver application retrieved", app)
}
