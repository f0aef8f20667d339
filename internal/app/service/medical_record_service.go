package service

import (
	"errors"
	"time"

	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/internal/app/repository"
	"github.com/carelink/carelink-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrTreatmentNotFound    = errors.New("treatment not found")
	ErrInvalidOperationType = errors.New("unknown operation type")
)

type TreatmentInput struct {
	Type        model.MedicalOperationType
	Date        time.Time
	PerformedBy string
	Notes       string
	Outcome     string
}

type RecordSummaryInput struct {
	Allergies          []string
	CurrentMedications []string
	MedicalHistory     []string
}

// MedicalRecordService manages patient dossiers. Every write resolves
// the acting user against the staff roster and checks the permission
// the operation type requires.
type MedicalRecordService interface {
	GetForPatient(patientID uint) (*model.MedicalRecord, error)
	UpdateSummary(actorUserID, patientID uint, input RecordSummaryInput) (*model.MedicalRecord, error)
	AddTreatment(actorUserID, patientID uint, input TreatmentInput) (*model.Treatment, error)
	UpdateTreatment(actorUserID, patientID, treatmentID uint, input TreatmentInput) (*model.Treatment, error)
	DeleteTreatment(actorUserID, patientID, treatmentID uint) error
}

type medicalRecordService struct {
	recordRepo  repository.MedicalRecordRepository
	patientRepo repository.PatientRepository
	staffRepo   repository.StaffRepository
}

func NewMedicalRecordService(recordRepo repository.MedicalRecordRepository, patientRepo repository.PatientRepository, staffRepo repository.StaffRepository) MedicalRecordService {
	return &medicalRecordService{
		recordRepo:  recordRepo,
		patientRepo: patientRepo,
		staffRepo:   staffRepo,
	}
}

// GetForPatient returns the patient's record, creating an empty one on
// first access
func (s *medicalRecordService) GetForPatient(patientID uint) (*model.MedicalRecord, error) {
	record, err := s.recordRepo.FindByPatientID(patientID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := s.patientRepo.FindByID(patientID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	record = &model.MedicalRecord{PatientID: patientID}
	if err := s.recordRepo.Create(record); err != nil {
		return nil, err
	}
	record.Treatments = []model.Treatment{}
	return record, nil
}

func (s *medicalRecordService) UpdateSummary(actorUserID, patientID uint, input RecordSummaryInput) (*model.MedicalRecord, error) {
	staff, err := s.actingStaff(actorUserID)
	if err != nil {
		return nil, err
	}
	if !staff.CanWriteRecords() {
		return nil, ErrPermissionTooNarrow
	}

	record, err := s.GetForPatient(patientID)
	if err != nil {
		return nil, err
	}

	record.Allergies = input.Allergies
	record.CurrentMedications = input.CurrentMedications
	record.MedicalHistory = input.MedicalHistory
	record.LastUpdatedBy = staff.Name
	if err := s.recordRepo.Update(record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *medicalRecordService) AddTreatment(actorUserID, patientID uint, input TreatmentInput) (*model.Treatment, error) {
	if !input.Type.Valid() {
		return nil, ErrInvalidOperationType
	}

	staff, err := s.actingStaff(actorUserID)
	if err != nil {
		return nil, err
	}
	if !staff.CanPerformOperation(input.Type) {
		return nil, ErrPermissionTooNarrow
	}

	record, err := s.GetForPatient(patientID)
	if err != nil {
		return nil, err
	}

	treatment := &model.Treatment{
		MedicalRecordID: record.ID,
		Type:            input.Type,
		Date:            input.Date,
		PerformedBy:     input.PerformedBy,
		Notes:           input.Notes,
		Outcome:         input.Outcome,
	}
	if treatment.Date.IsZero() {
		treatment.Date = time.Now()
	}
	if treatment.PerformedBy == "" {
		treatment.PerformedBy = staff.Name
	}

	if err := s.recordRepo.AddTreatment(treatment); err != nil {
		return nil, err
	}
	if err := s.touchRecord(record, staff.Name); err != nil {
		return nil, err
	}

	logger.Info("Treatment recorded", map[string]interface{}{
		"patient_id": patientID,
		"type":       string(input.Type),
		"staff_id":   staff.ID,
	})
	return treatment, nil
}

func (s *medicalRecordService) UpdateTreatment(actorUserID, patientID, treatmentID uint, input TreatmentInput) (*model.Treatment, error) {
	if !input.Type.Valid() {
		return nil, ErrInvalidOperationType
	}

	staff, err := s.actingStaff(actorUserID)
	if err != nil {
		return nil, err
	}
	if !staff.CanPerformOperation(input.Type) {
		return nil, ErrPermissionTooNarrow
	}

	record, treatment, err := s.treatmentOnRecord(patientID, treatmentID)
	if err != nil {
		return nil, err
	}

	treatment.Type = input.Type
	if !input.Date.IsZero() {
		treatment.Date = input.Date
	}
	if input.PerformedBy != "" {
		treatment.PerformedBy = input.PerformedBy
	}
	treatment.Notes = input.Notes
	treatment.Outcome = input.Outcome

	if err := s.recordRepo.UpdateTreatment(treatment); err != nil {
		return nil, err
	}
	if err := s.touchRecord(record, staff.Name); err != nil {
		return nil, err
	}
	return treatment, nil
}

func (s *medicalRecordService) DeleteTreatment(actorUserID, patientID, treatmentID uint) error {
	staff, err := s.actingStaff(actorUserID)
	if err != nil {
		return err
	}
	if !staff.CanDeleteTreatments() {
		return ErrPermissionTooNarrow
	}

	record, treatment, err := s.treatmentOnRecord(patientID, treatmentID)
	if err != nil {
		return err
	}

	if err := s.recordRepo.DeleteTreatment(treatment.ID); err != nil {
		return err
	}
	return s.touchRecord(record, staff.Name)
}

// actingStaff resolves a user to their active roster entry. Users off
// the roster cannot write to records.
func (s *medicalRecordService) actingStaff(userID uint) (*model.MedicalStaff, error) {
	staff, err := s.staffRepo.FindByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPermissionTooNarrow
		}
		return nil, err
	}
	return staff, nil
}

func (s *medicalRecordService) treatmentOnRecord(patientID, treatmentID uint) (*model.MedicalRecord, *model.Treatment, error) {
	record, err := s.recordRepo.FindByPatientID(patientID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrTreatmentNotFound
		}
		return nil, nil, err
	}

	treatment, err := s.recordRepo.FindTreatment(treatmentID)
	if err != nil || treatment.MedicalRecordID != record.ID {
		return nil, nil, ErrTreatmentNotFound
	}
	return record, treatment, nil
}

func (s *medicalRecordService) touchRecord(record *model.MedicalRecord, staffName string) error {
	record.LastUpdatedBy = staffName
	return s.recordRepo.Update(record)
}
