package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/internal/app/service"
	apperrors "github.com/carelink/carelink-backend/internal/errors"
	"github.com/carelink/carelink-backend/internal/middleware"
	ws "github.com/carelink/carelink-backend/internal/websocket"
	"github.com/gin-gonic/gin"
)

// ReviewController is the admin side of the verification flow
type ReviewController struct {
	reviewService service.ReviewService
	hub           *ws.Hub
}

func NewReviewController(reviewService service.ReviewService, hub *ws.Hub) *ReviewController {
	return &ReviewController{reviewService: reviewService, hub: hub}
}

type ReviewRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

// List handles GET /api/admin/verifications
func (ctl *ReviewController) List(c *gin.Context) {
	summaries, err := ctl.reviewService.List(c.Request.Context())
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"verifications": summaries, "total": len(summaries)})
}

// Get handles GET /api/admin/verifications/:subject
func (ctl *ReviewController) Get(c *gin.Context) {
	record, err := ctl.reviewService.Get(c.Request.Context(), c.Param("subject"))
	if err != nil {
		if errors.Is(err, service.ErrVerificationNotFound) {
			apperrors.NotFound(c, apperrors.VerificationNotFound, "Verification record not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, record)
}

// Review handles POST /api/admin/verifications/:subject/items/:item
func (ctl *ReviewController) Review(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "The approve flag is required")
		return
	}

	reviewerID, _ := middleware.CurrentUserID(c)
	subjectID := c.Param("subject")
	item := model.VerificationItem(c.Param("item"))

	record, err := ctl.reviewService.Review(
		c.Request.Context(),
		subjectID,
		item,
		*req.Approve,
		strconv.FormatUint(uint64(reviewerID), 10),
	)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrVerificationNotFound):
			apperrors.NotFound(c, apperrors.VerificationNotFound, "Verification record not found")
		case errors.Is(err, service.ErrInvalidReviewItem):
			apperrors.BadRequest(c, apperrors.VerificationInvalidItem, "Unknown verification item")
		default:
			apperrors.InternalError(c, "")
		}
		return
	}

	// Tell any live wizard connection about the decision; the session
	// itself converges through its document subscription
	ctl.hub.SendToSubject(subjectID, ws.Message{
		Type: ws.MessageReviewNotice,
		Payload: gin.H{
			"item":     item,
			"approved": *req.Approve,
		},
	})

	c.JSON(http.StatusOK, record)
}
