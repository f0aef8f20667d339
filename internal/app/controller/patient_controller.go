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

type PatientController struct {
	patientService service.PatientService
}

func NewPatientController(patientService service.PatientService) *PatientController {
	return &PatientController{patientService: patientService}
}

type UpdatePatientRequest struct {
	DateOfBirth   *time.Time `json:"date_of_birth"`
	Gender        *string    `json:"gender" binding:"omitempty,oneof=female male other"`
	BloodType     *string    `json:"blood_type" binding:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Allergies     []string   `json:"allergies"`
	Conditions    []string   `json:"conditions"`
	Medications   []string   `json:"medications"`
	EmergencyName *string    `json:"emergency_name"`
	EmergencyTel  *string    `json:"emergency_tel"`
}

type RecordMetricRequest struct {
	MetricType string     `json:"metric_type" binding:"required"`
	Value      float64    `json:"value" binding:"required"`
	Note       string     `json:"note" binding:"max=500"`
	MeasuredAt *time.Time `json:"measured_at"`
}

// GetProfile handles GET /api/patients/me
func (ctl *PatientController) GetProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	patient, err := ctl.patientService.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, service.ErrPatientNotFound) {
			apperrors.NotFound(c, apperrors.PatientNotFound, "Patient profile not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, patient)
}

// UpdateProfile handles PUT /api/patients/me
func (ctl *PatientController) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid profile payload")
		return
	}

	patient, err := ctl.patientService.UpdateProfile(userID, service.UpdatePatientInput{
		DateOfBirth:   req.DateOfBirth,
		Gender:        req.Gender,
		BloodType:     req.BloodType,
		Allergies:     req.Allergies,
		Conditions:    req.Conditions,
		Medications:   req.Medications,
		EmergencyName: req.EmergencyName,
		EmergencyTel:  req.EmergencyTel,
	})
	if err != nil {
		if errors.Is(err, service.ErrPatientNotFound) {
			apperrors.NotFound(c, apperrors.PatientNotFound, "Patient profile not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, patient)
}

// RecordMetric handles POST /api/patients/me/metrics
func (ctl *PatientController) RecordMetric(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	var req RecordMetricRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid metric payload")
		return
	}

	measuredAt := time.Time{}
	if req.MeasuredAt != nil {
		measuredAt = *req.MeasuredAt
	}

	metric, err := ctl.patientService.RecordMetric(userID, req.MetricType, req.Value, req.Note, measuredAt)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidMetricType):
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Unknown metric type")
		case errors.Is(err, service.ErrPatientNotFound):
			apperrors.NotFound(c, apperrors.PatientNotFound, "Patient profile not found")
		default:
			apperrors.InternalError(c, "")
		}
		return
	}
	c.JSON(http.StatusCreated, metric)
}

// ListMetrics handles GET /api/patients/me/metrics
func (ctl *PatientController) ListMetrics(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	metrics, err := ctl.patientService.ListMetrics(userID, c.Query("type"), limit)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidMetricType):
			apperrors.BadRequest(c, apperrors.ValidationInvalidFormat, "Unknown metric type")
		case errors.Is(err, service.ErrPatientNotFound):
			apperrors.NotFound(c, apperrors.PatientNotFound, "Patient profile not found")
		default:
			apperrors.InternalError(c, "")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"metrics": metrics, "total": len(metrics)})
}

// List handles GET /api/admin/patients
func (ctl *PatientController) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	patients, total, err := ctl.patientService.List(page, pageSize)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"patients":  patients,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
