package model

import (
	"time"

	"gorm.io/gorm"
)

// AppointmentStatus tracks an appointment through its lifecycle
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCanceled  AppointmentStatus = "canceled"
	AppointmentNoShow    AppointmentStatus = "no_show"
)

// Appointment links a patient to a staff member at a scheduled time
type Appointment struct {
	ID           uint              `gorm:"primarykey" json:"id"`
	PatientID    uint              `gorm:"not null;index" json:"patient_id"`
	Patient      *Patient          `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	StaffID      uint              `gorm:"not null;index" json:"staff_id"`
	Staff        *MedicalStaff     `gorm:"foreignKey:StaffID" json:"staff,omitempty"`
	ScheduledAt  time.Time         `gorm:"not null;index" json:"scheduled_at"`
	DurationMins int               `gorm:"not null;default:30" json:"duration_mins"`
	Reason       string            `gorm:"size:500" json:"reason"`
	Status       AppointmentStatus `gorm:"size:20;not null;default:'scheduled'" json:"status"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
	DeletedAt    gorm.DeletedAt    `gorm:"index" json:"-"`
}
