package service

import (
	"errors"
	"time"

	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/internal/app/repository"
	"gorm.io/gorm"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrAppointmentInPast   = errors.New("appointment time is in the past")
	ErrInvalidStatusChange = errors.New("invalid appointment status change")
)

type AppointmentService interface {
	Book(patientUserID, staffID uint, scheduledAt time.Time, durationMins int, reason string) (*model.Appointment, error)
	GetByID(id uint) (*model.Appointment, error)
	ListForPatient(patientUserID uint, page, pageSize int) ([]model.Appointment, int64, error)
	StaffSchedule(staffID uint, day time.Time) ([]model.Appointment, error)
	Cancel(id uint, patientUserID uint) error
}

type appointmentService struct {
	appointmentRepo repository.AppointmentRepository
	patientRepo     repository.PatientRepository
	staffRepo       repository.StaffRepository
}

func NewAppointmentService(
	appointmentRepo repository.AppointmentRepository,
	patientRepo repository.PatientRepository,
	staffRepo repository.StaffRepository,
) AppointmentService {
	return &appointmentService{
		appointmentRepo: appointmentRepo,
		patientRepo:     patientRepo,
		staffRepo:       staffRepo,
	}
}

func (s *appointmentService) Book(patientUserID, staffID uint, scheduledAt time.Time, durationMins int, reason string) (*model.Appointment, error) {
	if scheduledAt.Before(time.Now()) {
		return nil, ErrAppointmentInPast
	}

	patient, err := s.patientRepo.FindByUserID(patientUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	staff, err := s.staffRepo.FindByID(staffID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStaffNotFound
		}
		return nil, err
	}
	if !staff.Active {
		return nil, ErrStaffNotFound
	}

	if durationMins <= 0 {
		durationMins = 30
	}

	appointment := &model.Appointment{
		PatientID:    patient.ID,
		StaffID:      staff.ID,
		ScheduledAt:  scheduledAt,
		DurationMins: durationMins,
		Reason:       reason,
		Status:       model.AppointmentScheduled,
	}
	if err := s.appointmentRepo.Create(appointment); err != nil {
		return nil, err
	}
	return appointment, nil
}

func (s *appointmentService) GetByID(id uint) (*model.Appointment, error) {
	appointment, err := s.appointmentRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	return appointment, nil
}

func (s *appointmentService) ListForPatient(patientUserID uint, page, pageSize int) ([]model.Appointment, int64, error) {
	patient, err := s.patientRepo.FindByUserID(patientUserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrPatientNotFound
		}
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.appointmentRepo.ListByPatient(patient.ID, (page-1)*pageSize, pageSize)
}

func (s *appointmentService) StaffSchedule(staffID uint, day time.Time) ([]model.Appointment, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)
	return s.appointmentRepo.ListByStaff(staffID, start, end)
}

func (s *appointmentService) Cancel(id uint, patientUserID uint) error {
	appointment, err := s.GetByID(id)
	if err != nil {
		return err
	}

	patient, err := s.patientRepo.FindByUserID(patientUserID)
	if err != nil || appointment.PatientID != patient.ID {
		return ErrAppointmentNotFound
	}

	if appointment.Status != model.AppointmentScheduled {
		return ErrInvalidStatusChange
	}
	return s.appointmentRepo.UpdateStatus(id, model.AppointmentCanceled)
}
