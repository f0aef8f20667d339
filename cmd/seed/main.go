package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/carelink/carelink-backend/config"
	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/internal/app/repository"
	"github.com/carelink/carelink-backend/internal/db"
	"github.com/carelink/carelink-backend/pkg/logger"
	"github.com/carelink/carelink-backend/pkg/util"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func main() {
	rosterPath := flag.String("roster", "", "optional xlsx staff roster to import (columns: name, email, type, department, permission)")
	adminEmail := flag.String("admin-email", "admin@carelink.local", "email for the seeded admin account")
	adminPassword := flag.String("admin-password", "changeme123", "password for the seeded admin account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", err, nil)
	}

	if err := db.Init(&cfg.Database); err != nil {
		logger.Fatal("Failed to initialize database", err, nil)
	}
	defer func() { _ = db.Close() }()

	if err := db.Migrate(db.GetDB()); err != nil {
		logger.Fatal("Failed to run migrations", err, nil)
	}

	if err := seedAdmin(db.GetDB(), *adminEmail, *adminPassword); err != nil {
		logger.Fatal("Failed to seed admin account", err, nil)
	}

	if *rosterPath != "" {
		count, err := importRoster(db.GetDB(), *rosterPath)
		if err != nil {
			logger.Fatal("Failed to import staff roster", err, map[string]interface{}{
				"path": *rosterPath,
			})
		}
		logger.Info("Staff roster imported", map[string]interface{}{
			"path":  *rosterPath,
			"count": count,
		})
	} else {
		if err := seedSampleStaff(db.GetDB()); err != nil {
			logger.Fatal("Failed to seed sample staff", err, nil)
		}
	}

	logger.Info("Seeding complete", nil)
}

func seedAdmin(database *gorm.DB, email, password string) error {
	userRepo := repository.NewUserRepository(database)

	if _, err := userRepo.FindByEmail(email); err == nil {
		logger.Info("Admin account already exists", map[string]interface{}{"email": email})
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         "Administrator",
		Role:         string(model.RoleAdmin),
	}
	if err := userRepo.Create(admin); err != nil {
		return err
	}
	logger.Info("Admin account created", map[string]interface{}{"email": email})
	return nil
}

func importRoster(database *gorm.DB, path string) (int, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return 0, err
	}
	if len(rows) < 2 {
		return 0, fmt.Errorf("roster %s has no data rows", path)
	}

	staffRepo := repository.NewStaffRepository(database)
	imported := 0

	// Row 0 is the header
	for i, row := range rows[1:] {
		if len(row) < 3 {
			logger.Warn("Skipping short roster row", map[string]interface{}{"row": i + 2})
			continue
		}

		staffType := model.StaffType(row[2])
		if !staffType.Valid() {
			logger.Warn("Skipping roster row with unknown staff type", map[string]interface{}{
				"row":  i + 2,
				"type": row[2],
			})
			continue
		}

		member := &model.MedicalStaff{
			Name:      row[0],
			Email:     row[1],
			StaffType: staffType,
			Active:    true,
		}
		if len(row) > 3 {
			member.Department = row[3]
		}
		member.Permission = model.PermissionReadOnly
		if len(row) > 4 {
			permission := model.PermissionLevel(row[4])
			if permission.Valid() {
				member.Permission = permission
			}
		}

		if _, err := staffRepo.FindByEmail(member.Email); err == nil {
			continue
		}
		if err := staffRepo.Create(member); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func seedSampleStaff(database *gorm.DB) error {
	staffRepo := repository.NewStaffRepository(database)

	samples := []model.MedicalStaff{
		{Name: "Dr. Amelia Hart", Email: "amelia.hart@carelink.local", StaffType: model.StaffTypeSurgeon, Department: "Cardiology", Permission: model.PermissionSurgicalAccess, Specialties: []string{"cardiac surgery"}, Active: true},
		{Name: "Noah Reyes", Email: "noah.reyes@carelink.local", StaffType: model.StaffTypeNurse, Department: "Emergency", Permission: model.PermissionReadWrite, Active: true},
		{Name: "Dr. Priya Natarajan", Email: "priya.natarajan@carelink.local", StaffType: model.StaffTypeRadiologist, Department: "Imaging", Permission: model.PermissionFullAccess, Active: true},
	}

	for i := range samples {
		if _, err := staffRepo.FindByEmail(samples[i].Email); err == nil {
			continue
		}
		if err := staffRepo.Create(&samples[i]); err != nil {
			return err
		}
	}
	logger.Info("Sample staff seeded", map[string]interface{}{"count": len(samples)})
	return nil
}
