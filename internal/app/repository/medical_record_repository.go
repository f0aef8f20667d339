package repository

import (
	"github.com/carelink/carelink-backend/internal/app/model"
	"gorm.io/gorm"
)

type MedicalRecordRepository interface {
	Create(record *model.MedicalRecord) error
	FindByPatientID(patientID uint) (*model.MedicalRecord, error)
	Update(record *model.MedicalRecord) error
	AddTreatment(treatment *model.Treatment) error
	FindTreatment(id uint) (*model.Treatment, error)
	UpdateTreatment(treatment *model.Treatment) error
	DeleteTreatment(id uint) error
}

type medicalRecordRepository struct {
	db *gorm.DB
}

func NewMedicalRecordRepository(db *gorm.DB) MedicalRecordRepository {
	return &medicalRecordRepository{db: db}
}

func (r *medicalRecordRepository) Create(record *model.MedicalRecord) error {
	return r.db.Create(record).Error
}

func (r *medicalRecordRepository) FindByPatientID(patientID uint) (*model.MedicalRecord, error) {
	var record model.MedicalRecord
	err := r.db.
		Preload("Treatments", func(db *gorm.DB) *gorm.DB {
			return db.Order("date DESC")
		}).
		Where("patient_id = ?", patientID).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *medicalRecordRepository) Update(record *model.MedicalRecord) error {
	// Treatments are written through their own methods; saving them as
	// an association here would resurrect deleted rows
	return r.db.Omit("Treatments", "Patient").Save(record).Error
}

func (r *medicalRecordRepository) AddTreatment(treatment *model.Treatment) error {
	return r.db.Create(treatment).Error
}

func (r *medicalRecordRepository) FindTreatment(id uint) (*model.Treatment, error) {
	var treatment model.Treatment
	if err := r.db.First(&treatment, id).Error; err != nil {
		return nil, err
	}
	return &treatment, nil
}

func (r *medicalRecordRepository) UpdateTreatment(treatment *model.Treatment) error {
	return r.db.Save(treatment).Error
}

func (r *medicalRecordRepository) DeleteTreatment(id uint) error {
	return r.db.Delete(&model.Treatment{}, id).Error
}
