package repository

import (
	"time"

	"github.com/carelink/carelink-backend/internal/app/model"
	"gorm.io/gorm"
)

type AppointmentRepository interface {
	Create(appointment *model.Appointment) error
	FindByID(id uint) (*model.Appointment, error)
	ListByPatient(patientID uint, offset, limit int) ([]model.Appointment, int64, error)
	ListByStaff(staffID uint, from, to time.Time) ([]model.Appointment, error)
	UpdateStatus(id uint, status model.AppointmentStatus) error
}

type appointmentRepository struct {
	db *gorm.DB
}

func NewAppointmentRepository(db *gorm.DB) AppointmentRepository {
	return &appointmentRepository{db: db}
}

func (r *appointmentRepository) Create(appointment *model.Appointment) error {
	return r.db.Create(appointment).Error
}

func (r *appointmentRepository) FindByID(id uint) (*model.Appointment, error) {
	var appointment model.Appointment
	err := r.db.Preload("Patient").Preload("Patient.User").Preload("Staff").
		First(&appointment, id).Error
	if err != nil {
		return nil, err
	}
	return &appointment, nil
}

func (r *appointmentRepository) ListByPatient(patientID uint, offset, limit int) ([]model.Appointment, int64, error) {
	query := r.db.Model(&model.Appointment{}).Where("patient_id = ?", patientID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var appointments []model.Appointment
	err := query.Preload("Staff").
		Order("scheduled_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&appointments).Error
	if err != nil {
		return nil, 0, err
	}
	return appointments, total, nil
}

func (r *appointmentRepository) ListByStaff(staffID uint, from, to time.Time) ([]model.Appointment, error) {
	var appointments []model.Appointment
	err := r.db.Preload("Patient").Preload("Patient.User").
		Where("staff_id = ? AND scheduled_at >= ? AND scheduled_at < ?", staffID, from, to).
		Order("scheduled_at ASC").
		Find(&appointments).Error
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (r *appointmentRepository) UpdateStatus(id uint, status model.AppointmentStatus) error {
	return r.db.Model(&model.Appointment{}).Where("id = ?", id).Update("status", status).Error
}
