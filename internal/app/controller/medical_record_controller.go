package controller

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/internal/app/service"
	apperrors "github.com/carelink/carelink-backend/internal/errors"
	"github.com/carelink/carelink-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type MedicalRecordController struct {
	recordService service.MedicalRecordService
}

func NewMedicalRecordController(recordService service.MedicalRecordService) *MedicalRecordController {
	return &MedicalRecordController{recordService: recordService}
}

type UpdateRecordSummaryRequest struct {
	Allergies          []string `json:"allergies"`
	CurrentMedications []string `json:"current_medications"`
	MedicalHistory     []string `json:"medical_history"`
}

type TreatmentRequest struct {
	Type        model.MedicalOperationType `json:"type" binding:"required"`
	Date        *time.Time                 `json:"date"`
	PerformedBy string                     `json:"performed_by"`
	Notes       string                     `json:"notes" binding:"required"`
	Outcome     string                     `json:"outcome"`
}

func (req *TreatmentRequest) input() service.TreatmentInput {
	input := service.TreatmentInput{
		Type:        req.Type,
		PerformedBy: req.PerformedBy,
		Notes:       req.Notes,
		Outcome:     req.Outcome,
	}
	if req.Date != nil {
		input.Date = *req.Date
	}
	return input
}

func (ctl *MedicalRecordController) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPatientNotFound):
		apperrors.NotFound(c, apperrors.PatientNotFound, "Patient not found")
	case errors.Is(err, service.ErrTreatmentNotFound):
		apperrors.NotFound(c, apperrors.TreatmentNotFound, "Treatment not found")
	case errors.Is(err, service.ErrInvalidOperationType):
		apperrors.BadRequest(c, apperrors.RecordInvalidOperation, "Unknown operation type")
	case errors.Is(err, service.ErrPermissionTooNarrow):
		apperrors.RespondWithError(c, http.StatusForbidden, apperrors.RecordPermissionDenied, "Your permission level does not allow this operation")
	default:
		apperrors.InternalError(c, "")
	}
}

func patientIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("patientId"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid patient id")
		return 0, false
	}
	return uint(id), true
}

// Get handles GET /api/medical-records/:patientId
func (ctl *MedicalRecordController) Get(c *gin.Context) {
	patientID, ok := patientIDParam(c)
	if !ok {
		return
	}

	record, err := ctl.recordService.GetForPatient(patientID)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// UpdateSummary handles PUT /api/medical-records/:patientId
func (ctl *MedicalRecordController) UpdateSummary(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	patientID, ok := patientIDParam(c)
	if !ok {
		return
	}

	var req UpdateRecordSummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid record payload")
		return
	}

	record, err := ctl.recordService.UpdateSummary(userID, patientID, service.RecordSummaryInput{
		Allergies:          req.Allergies,
		CurrentMedications: req.CurrentMedications,
		MedicalHistory:     req.MedicalHistory,
	})
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// AddTreatment handles POST /api/medical-records/:patientId/treatments
func (ctl *MedicalRecordController) AddTreatment(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	patientID, ok := patientIDParam(c)
	if !ok {
		return
	}

	var req TreatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid treatment payload")
		return
	}

	treatment, err := ctl.recordService.AddTreatment(userID, patientID, req.input())
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, treatment)
}

// UpdateTreatment handles PUT /api/medical-records/:patientId/treatments/:treatmentId
func (ctl *MedicalRecordController) UpdateTreatment(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	patientID, ok := patientIDParam(c)
	if !ok {
		return
	}
	treatmentID, err := strconv.ParseUint(c.Param("treatmentId"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid treatment id")
		return
	}

	var req TreatmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid treatment payload")
		return
	}

	treatment, err := ctl.recordService.UpdateTreatment(userID, patientID, uint(treatmentID), req.input())
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, treatment)
}

// DeleteTreatment handles DELETE /api/medical-records/:patientId/treatments/:treatmentId
func (ctl *MedicalRecordController) DeleteTreatment(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}
	patientID, ok := patientIDParam(c)
	if !ok {
		return
	}
	treatmentID, err := strconv.ParseUint(c.Param("treatmentId"), 10, 32)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid treatment id")
		return
	}

	if err := ctl.recordService.DeleteTreatment(userID, patientID, uint(treatmentID)); err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
