package model

import "time"

// HealthMetric is a single dated measurement submitted through the
// patient health form
type HealthMetric struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	PatientID  uint      `gorm:"not null;index" json:"patient_id"`
	MetricType string    `gorm:"size:50;not null" json:"metric_type"` // blood_pressure, heart_rate, weight, glucose
	Value      float64   `gorm:"not null" json:"value"`
	Unit       string    `gorm:"size:20;not null" json:"unit"`
	Note       string    `gorm:"size:500" json:"note"`
	MeasuredAt time.Time `gorm:"not null;index" json:"measured_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
