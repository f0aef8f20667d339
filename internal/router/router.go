package router

import (
	"net/http"
	"time"

	"github.com/carelink/carelink-backend/config"
	"github.com/carelink/carelink-backend/internal/app/controller"
	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

// Controllers bundles everything the router mounts
type Controllers struct {
	Auth         *controller.AuthController
	Verification *controller.VerificationController
	Review       *controller.ReviewController
	Upload       *controller.UploadController
	Patient      *controller.PatientController
	Record       *controller.MedicalRecordController
	Staff        *controller.StaffController
	Appointment  *controller.AppointmentController
	Export       *controller.ExportController
}

func Setup(cfg *config.Config, ctl Controllers) *gin.Engine {
	gin.SetMode(cfg.Server.GinMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.LoggingMiddleware())
	r.Use(corsMiddleware(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	api := r.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/register", ctl.Auth.Register)
		auth.POST("/login", ctl.Auth.Login)
		auth.POST("/refresh", ctl.Auth.Refresh)
		auth.POST("/logout", ctl.Auth.Logout)
	}

	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(cfg.JWT.Secret))

	verificationRoutes := authed.Group("/verification")
	{
		verificationRoutes.GET("", ctl.Verification.GetState)
		verificationRoutes.GET("/ws", ctl.Verification.Stream)
		verificationRoutes.POST("/role", ctl.Verification.SelectRole)
		verificationRoutes.POST("/staff-type", ctl.Verification.SelectStaffType)
		verificationRoutes.POST("/items/:item/toggle", ctl.Verification.ToggleItem)
		verificationRoutes.POST("/items/:item/upload", ctl.Verification.RecordUpload)
		verificationRoutes.PUT("/otp/:index", ctl.Verification.SetOTPDigit)
		verificationRoutes.POST("/submit", ctl.Verification.Submit)
		verificationRoutes.POST("/reset", ctl.Verification.Reset)
		verificationRoutes.POST("/uploads/presign", ctl.Upload.Presign)
	}

	patients := authed.Group("/patients")
	{
		patients.GET("/me", ctl.Patient.GetProfile)
		patients.PUT("/me", ctl.Patient.UpdateProfile)
		patients.POST("/me/metrics", ctl.Patient.RecordMetric)
		patients.GET("/me/metrics", ctl.Patient.ListMetrics)
	}

	records := authed.Group("/medical-records")
	records.Use(middleware.RequireRole(string(model.RoleMedicalStaff), string(model.RoleAdmin)))
	{
		records.GET("/:patientId", ctl.Record.Get)
		records.PUT("/:patientId", ctl.Record.UpdateSummary)
		records.POST("/:patientId/treatments", ctl.Record.AddTreatment)
		records.PUT("/:patientId/treatments/:treatmentId", ctl.Record.UpdateTreatment)
		records.DELETE("/:patientId/treatments/:treatmentId", ctl.Record.DeleteTreatment)
	}

	appointments := authed.Group("/appointments")
	{
		appointments.POST("", ctl.Appointment.Book)
		appointments.GET("", ctl.Appointment.List)
		appointments.DELETE("/:id", ctl.Appointment.Cancel)
	}

	admin := authed.Group("/admin")
	admin.Use(middleware.RequireRole(string(model.RoleAdmin)))
	{
		admin.GET("/verifications", ctl.Review.List)
		admin.GET("/verifications/export", ctl.Export.Verifications)
		admin.GET("/verifications/:subject", ctl.Review.Get)
		admin.POST("/verifications/:subject/items/:item", ctl.Review.Review)

		admin.POST("/staff", ctl.Staff.Create)
		admin.GET("/staff", ctl.Staff.List)
		admin.GET("/staff/export", ctl.Export.StaffRoster)
		admin.GET("/staff/:id", ctl.Staff.Get)
		admin.PUT("/staff/:id", ctl.Staff.Update)
		admin.DELETE("/staff/:id", ctl.Staff.Deactivate)
		admin.GET("/staff/:id/schedule", ctl.Appointment.StaffSchedule)

		admin.GET("/patients", ctl.Patient.List)
	}

	return r
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && allowed[origin] {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
