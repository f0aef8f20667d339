package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/internal/app/repository"
	"github.com/carelink/carelink-backend/internal/app/service"
	apperrors "github.com/carelink/carelink-backend/internal/errors"
	"github.com/gin-gonic/gin"
)

type StaffController struct {
	staffService service.StaffService
}

func NewStaffController(staffService service.StaffService) *StaffController {
	return &StaffController{staffService: staffService}
}

type CreateStaffRequest struct {
	Name        string   `json:"name" binding:"required"`
	Email       string   `json:"email" binding:"required,email"`
	StaffType   string   `json:"staff_type" binding:"required"`
	Department  string   `json:"department"`
	Permission  string   `json:"permission"`
	Specialties []string `json:"specialties"`
}

type UpdateStaffRequest struct {
	Name        *string  `json:"name"`
	Department  *string  `json:"department"`
	StaffType   *string  `json:"staff_type"`
	Permission  *string  `json:"permission"`
	Specialties []string `json:"specialties"`
	Active      *bool    `json:"active"`
}

// Create handles POST /api/admin/staff
func (ctl *StaffController) Create(c *gin.Context) {
	var req CreateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid staff payload")
		return
	}

	staff, err := ctl.staffService.Create(service.CreateStaffInput{
		Name:        req.Name,
		Email:       req.Email,
		StaffType:   model.StaffType(req.StaffType),
		Department:  req.Department,
		Permission:  model.PermissionLevel(req.Permission),
		Specialties: req.Specialties,
	})
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, staff)
}

// List handles GET /api/admin/staff
func (ctl *StaffController) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	filter := repository.StaffFilter{
		StaffType:  model.StaffType(c.Query("staff_type")),
		Department: c.Query("department"),
		ActiveOnly: c.Query("active") == "true",
	}

	staff, total, err := ctl.staffService.List(filter, page, pageSize)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"staff":     staff,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// Get handles GET /api/admin/staff/:id
func (ctl *StaffController) Get(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid staff id")
		return
	}

	staff, err := ctl.staffService.GetByID(uint(id))
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, staff)
}

// Update handles PUT /api/admin/staff/:id
func (ctl *StaffController) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid staff id")
		return
	}

	var req UpdateStaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid staff payload")
		return
	}

	input := service.UpdateStaffInput{
		Name:        req.Name,
		Department:  req.Department,
		Specialties: req.Specialties,
		Active:      req.Active,
	}
	if req.StaffType != nil {
		staffType := model.StaffType(*req.StaffType)
		input.StaffType = &staffType
	}
	if req.Permission != nil {
		permission := model.PermissionLevel(*req.Permission)
		input.Permission = &permission
	}

	staff, err := ctl.staffService.Update(uint(id), input)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, staff)
}

// Deactivate handles DELETE /api/admin/staff/:id
func (ctl *StaffController) Deactivate(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid staff id")
		return
	}

	if err := ctl.staffService.Deactivate(uint(id)); err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Staff member deactivated"})
}

func (ctl *StaffController) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStaffNotFound):
		apperrors.NotFound(c, apperrors.StaffNotFound, "Staff member not found")
	case errors.Is(err, service.ErrStaffEmailExists):
		apperrors.Conflict(c, apperrors.StaffEmailExists, "A staff member with this email already exists")
	case errors.Is(err, service.ErrInvalidStaffKind):
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Unknown staff type")
	case errors.Is(err, service.ErrInvalidPermission):
		apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Unknown permission level")
	default:
		apperrors.InternalError(c, "")
	}
}
