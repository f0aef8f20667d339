package db

import (
	"fmt"

	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/internal/docstore"
	"github.com/carelink/carelink-backend/pkg/logger"
	"gorm.io/gorm"
)

// Migrate runs auto-migration for all models
func Migrate(database *gorm.DB) error {
	logger.Info("Running database migrations", nil)

	if err := database.AutoMigrate(
		&model.User{},
		&model.Patient{},
		&model.HealthMetric{},
		&model.MedicalStaff{},
		&model.MedicalRecord{},
		&model.Treatment{},
		&model.Appointment{},
	); err != nil {
		logger.Error("Database migration failed", err, nil)
		return fmt.Errorf("migration failed: %w", err)
	}

	if err := docstore.Migrate(database); err != nil {
		logger.Error("Document store migration failed", err, nil)
		return fmt.Errorf("document store migration failed: %w", err)
	}

	logger.Info("Database migrations completed", nil)
	return nil
}
