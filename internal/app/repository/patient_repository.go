package repository

import (
	"github.com/carelink/carelink-backend/internal/app/model"
	"gorm.io/gorm"
)

type PatientRepository interface {
	Create(patient *model.Patient) error
	FindByID(id uint) (*model.Patient, error)
	FindByUserID(userID uint) (*model.Patient, error)
	Update(patient *model.Patient) error
	List(offset, limit int) ([]model.Patient, int64, error)
	AddHealthMetric(metric *model.HealthMetric) error
	ListHealthMetrics(patientID uint, metricType string, limit int) ([]model.HealthMetric, error)
}

type patientRepository struct {
	db *gorm.DB
}

func NewPatientRepository(db *gorm.DB) PatientRepository {
	return &patientRepository{db: db}
}

func (r *patientRepository) Create(patient *model.Patient) error {
	return r.db.Create(patient).Error
}

func (r *patientRepository) FindByID(id uint) (*model.Patient, error) {
	var patient model.Patient
	if err := r.db.Preload("User").First(&patient, id).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) FindByUserID(userID uint) (*model.Patient, error) {
	var patient model.Patient
	if err := r.db.Preload("User").Where("user_id = ?", userID).First(&patient).Error; err != nil {
		return nil, err
	}
	return &patient, nil
}

func (r *patientRepository) Update(patient *model.Patient) error {
	return r.db.Save(patient).Error
}

func (r *patientRepository) List(offset, limit int) ([]model.Patient, int64, error) {
	var patients []model.Patient
	var total int64

	if err := r.db.Model(&model.Patient{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.Preload("User").
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&patients).Error
	if err != nil {
		return nil, 0, err
	}
	return patients, total, nil
}

func (r *patientRepository) AddHealthMetric(metric *model.HealthMetric) error {
	return r.db.Create(metric).Error
}

func (r *patientRepository) ListHealthMetrics(patientID uint, metricType string, limit int) ([]model.HealthMetric, error) {
	query := r.db.Where("patient_id = ?", patientID)
	if metricType != "" {
		query = query.Where("metric_type = ?", metricType)
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var metrics []model.HealthMetric
	if err := query.Order("measured_at DESC").Limit(limit).Find(&metrics).Error; err != nil {
		return nil, err
	}
	return metrics, nil
}
