package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// PermissionLevel controls what a staff member may do in the admin
// panel and on clinical records
type PermissionLevel string

const (
	PermissionNone           PermissionLevel = "none"
	PermissionReadOnly       PermissionLevel = "read_only"
	PermissionReadWrite      PermissionLevel = "read_write"
	PermissionFullAccess     PermissionLevel = "full_access"
	PermissionSurgicalAccess PermissionLevel = "surgical_access"
)

func (p PermissionLevel) Valid() bool {
	switch p {
	case PermissionNone, PermissionReadOnly, PermissionReadWrite, PermissionFullAccess, PermissionSurgicalAccess:
		return true
	}
	return false
}

// rank orders permission levels from weakest to strongest
func (p PermissionLevel) rank() int {
	switch p {
	case PermissionReadOnly:
		return 1
	case PermissionReadWrite:
		return 2
	case PermissionFullAccess:
		return 3
	case PermissionSurgicalAccess:
		return 4
	}
	return 0
}

// MedicalStaff is a staff roster entry managed from the admin panel
type MedicalStaff struct {
	ID          uint            `gorm:"primarykey" json:"id"`
	UserID      *uint           `gorm:"uniqueIndex" json:"user_id,omitempty"`
	User        *User           `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	Email       string          `gorm:"size:255;not null;uniqueIndex" json:"email"`
	StaffType   StaffType       `gorm:"size:30;not null" json:"staff_type"`
	Department  string          `gorm:"size:100" json:"department"`
	Permission  PermissionLevel `gorm:"size:30;not null;default:'none'" json:"permission"`
	Specialties pq.StringArray  `gorm:"type:text[]" json:"specialties"`
	Active      bool            `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// HasSurgicalAccess reports whether the staff member may access
// surgical records
func (m *MedicalStaff) HasSurgicalAccess() bool {
	return m.Active && m.Permission == PermissionSurgicalAccess
}

// CanPerformOperation reports whether the staff member may perform
// the given operation type. Inactive staff can do nothing.
func (m *MedicalStaff) CanPerformOperation(operation MedicalOperationType) bool {
	if !m.Active {
		return false
	}
	return m.Permission.rank() >= operation.RequiredPermission().rank()
}

// CanWriteRecords reports whether the staff member may add or edit
// treatments on a medical record
func (m *MedicalStaff) CanWriteRecords() bool {
	return m.Active && m.Permission.rank() >= PermissionReadWrite.rank()
}

// CanDeleteTreatments reports whether the staff member may remove
// treatments from a medical record
func (m *MedicalStaff) CanDeleteTreatments() bool {
	return m.Active && m.Permission.rank() >= PermissionFullAccess.rank()
}
