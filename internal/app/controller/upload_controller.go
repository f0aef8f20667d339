package controller

import (
	"errors"
	"net/http"

	"github.com/carelink/carelink-backend/internal/app/model"
	apperrors "github.com/carelink/carelink-backend/internal/errors"
	"github.com/carelink/carelink-backend/internal/storage"
	"github.com/gin-gonic/gin"
)

// UploadController hands out presigned URLs so evidence files go
// straight from the browser to object storage
type UploadController struct {
	storage *storage.S3Storage
}

func NewUploadController(s3Storage *storage.S3Storage) *UploadController {
	return &UploadController{storage: s3Storage}
}

type PresignRequest struct {
	Item          model.VerificationItem `json:"item" binding:"required"`
	FileType      string                 `json:"fileType" binding:"required"`
	FileSizeBytes int64                  `json:"fileSizeBytes" binding:"required,gt=0"`
}

// Presign handles POST /api/verification/uploads/presign
func (ctl *UploadController) Presign(c *gin.Context) {
	subjectID, ok := subjectIDFrom(c)
	if !ok {
		return
	}

	var req PresignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid presign payload")
		return
	}
	if !req.Item.Valid() {
		apperrors.BadRequest(c, apperrors.VerificationInvalidItem, "Unknown verification item")
		return
	}

	upload, err := ctl.storage.PresignVerificationUpload(c.Request.Context(), subjectID, req.Item, req.FileType, req.FileSizeBytes)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidFileType):
			apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "This file type is not accepted")
		case errors.Is(err, model.ErrFileTooLarge):
			apperrors.BadRequest(c, apperrors.UploadFileTooLarge, "Files may not exceed 10 MiB")
		default:
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.UploadFailed, "Could not prepare the upload")
		}
		return
	}

	c.JSON(http.StatusOK, upload)
}
