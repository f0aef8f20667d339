package controller

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/carelink/carelink-backend/internal/app/model"
	apperrors "github.com/carelink/carelink-backend/internal/errors"
	"github.com/carelink/carelink-backend/internal/middleware"
	"github.com/carelink/carelink-backend/internal/verification"
	ws "github.com/carelink/carelink-backend/internal/websocket"
	"github.com/carelink/carelink-backend/pkg/logger"
	"github.com/gin-gonic/gin"
)

// EvidenceStore removes stored evidence files once they are retracted
type EvidenceStore interface {
	ObjectKey(fileURL string) (string, bool)
	DeleteObject(ctx context.Context, key string) error
}

// VerificationController exposes the wizard over REST plus a
// websocket stream of state snapshots
type VerificationController struct {
	manager  *verification.Manager
	hub      *ws.Hub
	evidence EvidenceStore
}

func NewVerificationController(manager *verification.Manager, hub *ws.Hub, evidence EvidenceStore) *VerificationController {
	return &VerificationController{manager: manager, hub: hub, evidence: evidence}
}

type SelectRoleRequest struct {
	Role model.Role `json:"role" binding:"required"`
}

type SelectStaffTypeRequest struct {
	StaffType model.StaffType `json:"staffType" binding:"required"`
}

type RecordUploadRequest struct {
	FileName      string `json:"fileName" binding:"required"`
	FileURL       string `json:"fileUrl" binding:"required,url"`
	ContentID     string `json:"contentId" binding:"required"`
	FileSizeBytes int64  `json:"fileSizeBytes" binding:"required,gt=0"`
	FileType      string `json:"fileType" binding:"required"`
	ResourceKind  string `json:"resourceKind" binding:"required"`
}

type SetOTPDigitRequest struct {
	Digit string `json:"digit"`
}

func subjectIDFrom(c *gin.Context) (string, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return "", false
	}
	return strconv.FormatUint(uint64(userID), 10), true
}

// withSession loads the caller's session, runs fn against it, and
// releases the reference afterwards
func (ctl *VerificationController) withSession(c *gin.Context, fn func(session *verification.Session) error) {
	subjectID, ok := subjectIDFrom(c)
	if !ok {
		return
	}

	session := ctl.manager.Acquire(subjectID)
	defer ctl.manager.Release(subjectID)

	if _, err := session.Load(c.Request.Context()); err != nil {
		apperrors.InternalError(c, "Could not load the verification record")
		return
	}

	if err := fn(session); err != nil {
		ctl.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, session.State())
}

func (ctl *VerificationController) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, verification.ErrInvalidRole):
		apperrors.BadRequest(c, apperrors.VerificationInvalidRole, "Unknown role")
	case errors.Is(err, verification.ErrInvalidStaffType), errors.Is(err, verification.ErrStaffTypeNotOpen):
		apperrors.BadRequest(c, apperrors.VerificationInvalidStaffType, "Invalid staff type selection")
	case errors.Is(err, verification.ErrInvalidItem):
		apperrors.BadRequest(c, apperrors.VerificationInvalidItem, "Unknown verification item")
	case errors.Is(err, verification.ErrInvalidOTPIndex):
		apperrors.BadRequest(c, apperrors.VerificationInvalidOTPIndex, "OTP position is out of range")
	case errors.Is(err, model.ErrInvalidFileType):
		apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "This file type is not accepted")
	case errors.Is(err, model.ErrFileTooLarge):
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, "Files may not exceed 10 MiB")
	case errors.Is(err, verification.ErrNotEligible):
		apperrors.Conflict(c, apperrors.VerificationNotEligible, "The verification is not ready to be submitted")
	case errors.Is(err, verification.ErrAlreadyCompleted):
		apperrors.Conflict(c, apperrors.VerificationAlreadyCompleted, "The verification is already completed")
	default:
		apperrors.InternalError(c, "Could not save the verification change")
	}
}

// GetState handles GET /api/verification
func (ctl *VerificationController) GetState(c *gin.Context) {
	ctl.withSession(c, func(session *verification.Session) error {
		return nil
	})
}

// SelectRole handles POST /api/verification/role
func (ctl *VerificationController) SelectRole(c *gin.Context) {
	var req SelectRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Role is required")
		return
	}
	ctl.withSession(c, func(session *verification.Session) error {
		return session.SelectRole(c.Request.Context(), req.Role)
	})
}

// SelectStaffType handles POST /api/verification/staff-type
func (ctl *VerificationController) SelectStaffType(c *gin.Context) {
	var req SelectStaffTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Staff type is required")
		return
	}
	ctl.withSession(c, func(session *verification.Session) error {
		return session.SelectStaffType(c.Request.Context(), req.StaffType)
	})
}

// ToggleItem handles POST /api/verification/items/:item/toggle
func (ctl *VerificationController) ToggleItem(c *gin.Context) {
	item := model.VerificationItem(c.Param("item"))
	ctl.withSession(c, func(session *verification.Session) error {
		prior := session.State().UploadedFiles[item]
		if err := session.ToggleItem(c.Request.Context(), item); err != nil {
			return err
		}
		ctl.purgeEvidence(c.Request.Context(), prior)
		return nil
	})
}

// purgeEvidence deletes a retracted file from object storage. Best
// effort: the record no longer references the file either way.
func (ctl *VerificationController) purgeEvidence(ctx context.Context, file model.VerificationFile) {
	if ctl.evidence == nil || file.FileURL == "" {
		return
	}
	key, ok := ctl.evidence.ObjectKey(file.FileURL)
	if !ok {
		return
	}
	if err := ctl.evidence.DeleteObject(ctx, key); err != nil {
		logger.Warn("Failed to delete retracted evidence file", map[string]interface{}{
			"key": key,
		})
	}
}

// RecordUpload handles POST /api/verification/items/:item/upload
func (ctl *VerificationController) RecordUpload(c *gin.Context) {
	item := model.VerificationItem(c.Param("item"))

	var req RecordUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid upload descriptor")
		return
	}

	ctl.withSession(c, func(session *verification.Session) error {
		return session.RecordFileUpload(c.Request.Context(), item, model.VerificationFile{
			FileName:      req.FileName,
			FileURL:       req.FileURL,
			ContentID:     req.ContentID,
			FileSizeBytes: req.FileSizeBytes,
			FileType:      req.FileType,
			ResourceKind:  req.ResourceKind,
			UploadedAt:    time.Now(),
		})
	})
}

// SetOTPDigit handles PUT /api/verification/otp/:index
func (ctl *VerificationController) SetOTPDigit(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		apperrors.BadRequest(c, apperrors.VerificationInvalidOTPIndex, "OTP position must be a number")
		return
	}

	var req SetOTPDigitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid OTP payload")
		return
	}

	ctl.withSession(c, func(session *verification.Session) error {
		return session.SetOTPDigit(c.Request.Context(), index, req.Digit)
	})
}

// Submit handles POST /api/verification/submit
func (ctl *VerificationController) Submit(c *gin.Context) {
	ctl.withSession(c, func(session *verification.Session) error {
		return session.Submit(c.Request.Context())
	})
}

// Reset handles POST /api/verification/reset
func (ctl *VerificationController) Reset(c *gin.Context) {
	subjectID, ok := subjectIDFrom(c)
	if !ok {
		return
	}

	session := ctl.manager.Acquire(subjectID)
	defer ctl.manager.Release(subjectID)

	session.Reset()
	c.JSON(http.StatusOK, session.State())
}

// Stream handles GET /api/verification/ws. It holds a session open
// for the life of the connection, forwards every state change, and
// emits a one-time completion frame.
func (ctl *VerificationController) Stream(c *gin.Context) {
	subjectID, ok := subjectIDFrom(c)
	if !ok {
		return
	}

	session := ctl.manager.Acquire(subjectID)

	if _, err := session.Load(c.Request.Context()); err != nil {
		ctl.manager.Release(subjectID)
		apperrors.InternalError(c, "Could not load the verification record")
		return
	}
	if err := session.Subscribe(c.Request.Context()); err != nil {
		ctl.manager.Release(subjectID)
		apperrors.InternalError(c, "Could not open the verification stream")
		return
	}

	removeListener := session.AddListener(func(state verification.State) {
		ctl.hub.SendToSubject(subjectID, ws.Message{
			Type:    ws.MessageVerificationState,
			Payload: state,
		})
	})

	done := make(chan struct{})
	go func() {
		select {
		case <-session.Completed():
			ctl.hub.SendToSubject(subjectID, ws.Message{Type: ws.MessageVerificationCompleted})
		case <-done:
		}
	}()

	err := ws.ServeWS(ctl.hub, c.Writer, c.Request, subjectID, func() {
		close(done)
		removeListener()
		ctl.manager.Release(subjectID)
	})
	if err != nil {
		close(done)
		removeListener()
		ctl.manager.Release(subjectID)
		return
	}

	// Send the current state as the opening frame
	ctl.hub.SendToSubject(subjectID, ws.Message{
		Type:    ws.MessageVerificationState,
		Payload: session.State(),
	})
}
