package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/carelink/carelink-backend/internal/app/service"
	apperrors "github.com/carelink/carelink-backend/internal/errors"
	"github.com/carelink/carelink-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type AppointmentController struct {
	appointmentService service.AppointmentService
}

func NewAppointmentController(appointmentService service.AppointmentService) *AppointmentController {
	return &AppointmentController{appointmentService: appointmentService}
}

type BookAppointmentRequest struct {
	StaffID      uint      `json:"staff_id" binding:"required"`
	ScheduledAt  time.Time `json:"scheduled_at" binding:"required"`
	DurationMins int       `json:"duration_mins"`
	Reason       string    `json:"reason" binding:"max=500"`
}

// Book handles POST /api/appointments
func (ctl *AppointmentController) Book(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req BookAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid appointment payload")
		return
	}

	appointment, err := ctl.appointmentService.Book(userID, req.StaffID, req.ScheduledAt, req.DurationMins, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrAppointmentInPast):
			apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "Appointments must be in the future")
		case errors.Is(err, service.ErrPatientNotFound):
			apperrors.NotFound(c, apperrors.PatientNotFound, "Patient profile not found")
		case errors.Is(err, service.ErrStaffNotFound):
			apperrors.NotFound(c, apperrors.StaffNotFound, "Staff member not found")
		default:
			apperrors.InternalError(c, "")
		}
		return
	}
	c.JSON(http.StatusCreated, appointment)
}

// List handles GET /api/appointments
func (ctl *AppointmentController) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	appointments, total, err := ctl.appointmentService.ListForPatient(userID, page, pageSize)
	if err != nil {
		if errors.Is(err, service.ErrPatientNotFound) {
			apperrors.NotFound(c, apperrors.PatientNotFound, "Patient profile not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"appointments": appointments,
		"total":        total,
		"page":         page,
		"page_size":    pageSize,
	})
}

// Cancel handles DELETE /api/appointments/:id
func (ctl *AppointmentController) Cancel(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid appointment id")
		return
	}

	if err := ctl.appointmentService.Cancel(uint(id), userID); err != nil {
		switch {
		case errors.Is(err, service.ErrAppointmentNotFound):
			apperrors.NotFound(c, apperrors.AppointmentNotFound, "Appointment not found")
		case errors.Is(err, service.ErrInvalidStatusChange):
			apperrors.Conflict(c, apperrors.AppointmentCancelled, "Only scheduled appointments can be cancelled")
		default:
			apperrors.InternalError(c, "")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Appointment cancelled"})
}

// StaffSchedule handles GET /api/admin/staff/:id/schedule
func (ctl *AppointmentController) StaffSchedule(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid staff id")
		return
	}

	day := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Date must be YYYY-MM-DD")
			return
		}
		day = parsed
	}

	appointments, err := ctl.appointmentService.StaffSchedule(uint(id), day)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appointments, "total": len(appointments)})
}
