package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carelink/carelink-backend/config"
	"github.com/carelink/carelink-backend/internal/app/controller"
	"github.com/carelink/carelink-backend/internal/app/repository"
	"github.com/carelink/carelink-backend/internal/app/service"
	"github.com/carelink/carelink-backend/internal/db"
	"github.com/carelink/carelink-backend/internal/docstore"
	"github.com/carelink/carelink-backend/internal/router"
	"github.com/carelink/carelink-backend/internal/scheduler"
	"github.com/carelink/carelink-backend/internal/storage"
	"github.com/carelink/carelink-backend/internal/verification"
	ws "github.com/carelink/carelink-backend/internal/websocket"
	"github.com/carelink/carelink-backend/pkg/logger"
	"github.com/carelink/carelink-backend/pkg/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err, nil)
	}

	logFormat := "json"
	logLevel := "info"
	if cfg.Server.Environment == "development" {
		logFormat = "console"
		logLevel = "debug"
	}
	logger.Initialize(logger.Config{
		Level:       logLevel,
		Format:      logFormat,
		EnableColor: logFormat == "console",
	})

	if err := db.Init(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err, nil)
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(db.GetDB()); err != nil {
		logger.Fatal("Failed to run migrations", err, nil)
	}

	if err := redis.Init(&cfg.Redis); err != nil {
		logger.Fatal("Failed to initialize Redis", err, nil)
	}
	defer func() { _ = redis.Close() }()

	// Document store for verification records, fanned out over Redis
	store := docstore.New(db.GetDB(), docstore.NewRedisNotifier(redis.GetClient()))
	manager := verification.NewManager(store)

	hub := ws.NewHub()
	go hub.Run()

	s3Storage, err := storage.NewS3Storage(context.Background(), &cfg.S3)
	if err != nil {
		logger.Fatal("Failed to initialize object storage", err, nil)
	}

	userRepo := repository.NewUserRepository(db.GetDB())
	patientRepo := repository.NewPatientRepository(db.GetDB())
	staffRepo := repository.NewStaffRepository(db.GetDB())
	recordRepo := repository.NewMedicalRecordRepository(db.GetDB())
	appointmentRepo := repository.NewAppointmentRepository(db.GetDB())

	authService := service.NewAuthService(userRepo, patientRepo, &cfg.JWT, &cfg.Security)
	reviewService := service.NewReviewService(store)
	patientService := service.NewPatientService(patientRepo)
	staffService := service.NewStaffService(staffRepo)
	recordService := service.NewMedicalRecordService(recordRepo, patientRepo, staffRepo)
	appointmentService := service.NewAppointmentService(appointmentRepo, patientRepo, staffRepo)

	reminder := scheduler.NewReviewReminderScheduler(reviewService, hub, &cfg.Verification)
	if err := reminder.Start(); err != nil {
		logger.Fatal("Failed to start reminder scheduler", err, nil)
	}
	defer reminder.Stop()

	engine := router.Setup(cfg, router.Controllers{
		Auth:         controller.NewAuthController(authService),
		Verification: controller.NewVerificationController(manager, hub, s3Storage),
		Review:       controller.NewReviewController(reviewService, hub),
		Upload:       controller.NewUploadController(s3Storage),
		Patient:      controller.NewPatientController(patientService),
		Record:       controller.NewMedicalRecordController(recordService),
		Staff:        controller.NewStaffController(staffService),
		Appointment:  controller.NewAppointmentController(appointmentService),
		Export:       controller.NewExportController(staffService, reviewService),
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("Server starting", map[string]interface{}{
			"port":        cfg.Server.Port,
			"environment": cfg.Server.Environment,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", err, nil)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server shutdown failed", err, nil)
	}
	logger.Info("Server stopped", nil)
}
