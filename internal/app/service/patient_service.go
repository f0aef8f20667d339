package service

import (
	"errors"
	"time"

	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/internal/app/repository"
	"gorm.io/gorm"
)

var (
	ErrPatientNotFound   = errors.New("patient not found")
	ErrInvalidMetricType = errors.New("invalid metric type")
)

var allowedMetricTypes = map[string]string{
	"blood_pressure": "mmHg",
	"heart_rate":     "bpm",
	"weight":         "kg",
	"glucose":        "mg/dL",
	"temperature":    "°C",
}

type UpdatePatientInput struct {
	DateOfBirth   *time.Time
	Gender        *string
	BloodType     *string
	Allergies     []string
	Conditions    []string
	Medications   []string
	EmergencyName *string
	EmergencyTel  *string
}

type PatientService interface {
	GetByUserID(userID uint) (*model.Patient, error)
	GetByID(id uint) (*model.Patient, error)
	List(page, pageSize int) ([]model.Patient, int64, error)
	UpdateProfile(userID uint, input UpdatePatientInput) (*model.Patient, error)
	RecordMetric(userID uint, metricType string, value float64, note string, measuredAt time.Time) (*model.HealthMetric, error)
	ListMetrics(userID uint, metricType string, limit int) ([]model.HealthMetric, error)
}

type patientService struct {
	patientRepo repository.PatientRepository
}

func NewPatientService(patientRepo repository.PatientRepository) PatientService {
	return &patientService{patientRepo: patientRepo}
}

func (s *patientService) GetByUserID(userID uint) (*model.Patient, error) {
	patient, err := s.patientRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return patient, nil
}

func (s *patientService) GetByID(id uint) (*model.Patient, error) {
	patient, err := s.patientRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return patient, nil
}

func (s *patientService) List(page, pageSize int) ([]model.Patient, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return s.patientRepo.List((page-1)*pageSize, pageSize)
}

func (s *patientService) UpdateProfile(userID uint, input UpdatePatientInput) (*model.Patient, error) {
	patient, err := s.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	if input.DateOfBirth != nil {
		patient.DateOfBirth = input.DateOfBirth
	}
	if input.Gender != nil {
		patient.Gender = *input.Gender
	}
	if input.BloodType != nil {
		patient.BloodType = *input.BloodType
	}
	if input.Allergies != nil {
		patient.Allergies = input.Allergies
	}
	if input.Conditions != nil {
		patient.Conditions = input.Conditions
	}
	if input.Medications != nil {
		patient.Medications = input.Medications
	}
	if input.EmergencyName != nil {
		patient.EmergencyName = *input.EmergencyName
	}
	if input.EmergencyTel != nil {
		patient.EmergencyTel = *input.EmergencyTel
	}

	if err := s.patientRepo.Update(patient); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *patientService) RecordMetric(userID uint, metricType string, value float64, note string, measuredAt time.Time) (*model.HealthMetric, error) {
	unit, ok := allowedMetricTypes[metricType]
	if !ok {
		return nil, ErrInvalidMetricType
	}

	patient, err := s.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	if measuredAt.IsZero() {
		measuredAt = time.Now()
	}

	metric := &model.HealthMetric{
		PatientID:  patient.ID,
		MetricType: metricType,
		Value:      value,
		Unit:       unit,
		Note:       note,
		MeasuredAt: measuredAt,
	}
	if err := s.patientRepo.AddHealthMetric(metric); err != nil {
		return nil, err
	}
	return metric, nil
}

func (s *patientService) ListMetrics(userID uint, metricType string, limit int) ([]model.HealthMetric, error) {
	if metricType != "" {
		if _, ok := allowedMetricTypes[metricType]; !ok {
			return nil, ErrInvalidMetricType
		}
	}

	patient, err := s.GetByUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.patientRepo.ListHealthMetrics(patient.ID, metricType, limit)
}
