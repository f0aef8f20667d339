package controller

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/carelink/carelink-backend/internal/app/repository"
	"github.com/carelink/carelink-backend/internal/app/service"
	apperrors "github.com/carelink/carelink-backend/internal/errors"
	"github.com/carelink/carelink-backend/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// ExportController produces xlsx exports for the admin panel
type ExportController struct {
	staffService  service.StaffService
	reviewService service.ReviewService
}

func NewExportController(staffService service.StaffService, reviewService service.ReviewService) *ExportController {
	return &ExportController{staffService: staffService, reviewService: reviewService}
}

// StaffRoster handles GET /api/admin/staff/export
func (ctl *ExportController) StaffRoster(c *gin.Context) {
	staff, _, err := ctl.staffService.List(repository.StaffFilter{}, 1, 10000)
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Staff"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "Name", "Email", "Type", "Department", "Permission", "Specialties", "Active", "Created"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}

	for row, member := range staff {
		values := []interface{}{
			member.ID,
			member.Name,
			member.Email,
			string(member.StaffType),
			member.Department,
			string(member.Permission),
			strings.Join(member.Specialties, ", "),
			member.Active,
			member.CreatedAt.Format("2006-01-02"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	ctl.writeWorkbook(c, f, "staff-roster")
}

// Verifications handles GET /api/admin/verifications/export
func (ctl *ExportController) Verifications(c *gin.Context) {
	summaries, err := ctl.reviewService.List(c.Request.Context())
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := "Verifications"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Subject", "Role", "Staff Type", "Step", "Progress", "Completed", "Pending Items", "Last Update"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, header)
	}

	for row, summary := range summaries {
		pending := make([]string, 0, len(summary.PendingItems))
		for _, item := range summary.PendingItems {
			pending = append(pending, string(item))
		}
		values := []interface{}{
			summary.SubjectID,
			string(summary.Role),
			string(summary.StaffType),
			summary.Step,
			summary.Progress,
			summary.IsCompleted,
			strings.Join(pending, ", "),
			summary.UpdatedAt.Format("2006-01-02 15:04"),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, value)
		}
	}

	ctl.writeWorkbook(c, f, "verifications")
}

func (ctl *ExportController) writeWorkbook(c *gin.Context, f *excelize.File, name string) {
	filename := fmt.Sprintf("%s-%s.xlsx", name, time.Now().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")

	if err := f.Write(c.Writer); err != nil {
		logger.Error("Failed to write export", err, map[string]interface{}{
			"export": name,
		})
	}
	c.Status(http.StatusOK)
}
