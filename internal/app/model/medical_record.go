package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// MedicalOperationType classifies a clinical act recorded on a
// patient's medical record
type MedicalOperationType string

const (
	OperationConsultation      MedicalOperationType = "consultation"
	OperationMinorSurgery      MedicalOperationType = "minor_surgery"
	OperationMajorSurgery      MedicalOperationType = "major_surgery"
	OperationDiagnosticImaging MedicalOperationType = "diagnostic_imaging"
	OperationLabTest           MedicalOperationType = "lab_test"
	OperationPrescription      MedicalOperationType = "prescription"
	OperationEmergencyCare     MedicalOperationType = "emergency_care"
	OperationAnesthesia        MedicalOperationType = "anesthesia"
)

func (o MedicalOperationType) Valid() bool {
	_, ok := operationPermissions[o]
	return ok
}

// operationPermissions maps each operation type to the weakest
// permission level allowed to perform it
var operationPermissions = map[MedicalOperationType]PermissionLevel{
	OperationConsultation:      PermissionReadWrite,
	OperationPrescription:      PermissionReadWrite,
	OperationLabTest:           PermissionReadWrite,
	OperationDiagnosticImaging: PermissionFullAccess,
	OperationEmergencyCare:     PermissionFullAccess,
	OperationMinorSurgery:      PermissionFullAccess,
	OperationMajorSurgery:      PermissionSurgicalAccess,
	OperationAnesthesia:        PermissionSurgicalAccess,
}

// RequiredPermission returns the weakest permission level that may
// perform the operation. Unknown operations require the strongest
// level.
func (o MedicalOperationType) RequiredPermission() PermissionLevel {
	if level, ok := operationPermissions[o]; ok {
		return level
	}
	return PermissionSurgicalAccess
}

// MedicalRecord is a patient's clinical dossier: allergy and
// medication lists plus the treatment history. One record per patient,
// created on first access.
type MedicalRecord struct {
	ID                 uint           `gorm:"primarykey" json:"id"`
	PatientID          uint           `gorm:"not null;uniqueIndex" json:"patient_id"`
	Patient            *Patient       `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Allergies          pq.StringArray `gorm:"type:text[]" json:"allergies"`
	CurrentMedications pq.StringArray `gorm:"type:text[]" json:"current_medications"`
	MedicalHistory     pq.StringArray `gorm:"type:text[]" json:"medical_history"`
	Treatments         []Treatment    `gorm:"foreignKey:MedicalRecordID" json:"treatments"`
	LastUpdatedBy      string         `gorm:"size:100" json:"last_updated_by"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

// Treatment is one clinical act on a medical record
type Treatment struct {
	ID              uint                 `gorm:"primarykey" json:"id"`
	MedicalRecordID uint                 `gorm:"not null;index" json:"medical_record_id"`
	Type            MedicalOperationType `gorm:"size:30;not null" json:"type"`
	Date            time.Time            `gorm:"not null" json:"date"`
	PerformedBy     string               `gorm:"size:100;not null" json:"performed_by"`
	Notes           string               `gorm:"type:text" json:"notes"`
	Outcome         string               `gorm:"type:text" json:"outcome"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}
