package db

import (
	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/internal/docstore"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for tests
func SetupTestDB() (*gorm.DB, error) {
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := database.AutoMigrate(
		&model.User{},
		&model.Patient{},
		&model.HealthMetric{},
		&model.MedicalStaff{},
		&model.MedicalRecord{},
		&model.Treatment{},
		&model.Appointment{},
	); err != nil {
		return nil, err
	}

	if err := docstore.Migrate(database); err != nil {
		return nil, err
	}

	return database, nil
}
