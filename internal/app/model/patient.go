package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Patient is the clinical profile linked to a user account
type Patient struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	UserID        uint           `gorm:"not null;uniqueIndex" json:"user_id"`
	User          *User          `gorm:"foreignKey:UserID" json:"user,omitempty"`
	DateOfBirth   *time.Time     `json:"date_of_birth,omitempty"`
	Gender        string         `gorm:"size:20" json:"gender"`
	BloodType     string         `gorm:"size:5" json:"blood_type"`
	Allergies     pq.StringArray `gorm:"type:text[]" json:"allergies"`
	Conditions    pq.StringArray `gorm:"type:text[]" json:"conditions"`
	Medications   pq.StringArray `gorm:"type:text[]" json:"medications"`
	EmergencyName string         `gorm:"size:100" json:"emergency_name"`
	EmergencyTel  string         `gorm:"size:20" json:"emergency_tel"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	HealthMetrics []HealthMetric `gorm:"foreignKey:PatientID" json:"health_metrics,omitempty"`
}
