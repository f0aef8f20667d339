package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperationRequiredPermission(t *testing.T) {
	tests := []struct {
		operation MedicalOperationType
		required  PermissionLevel
	}{
		{OperationConsultation, PermissionReadWrite},
		{OperationPrescription, PermissionReadWrite},
		{OperationLabTest, PermissionReadWrite},
		{OperationDiagnosticImaging, PermissionFullAccess},
		{OperationEmergencyCare, PermissionFullAccess},
		{OperationMinorSurgery, PermissionFullAccess},
		{OperationMajorSurgery, PermissionSurgicalAccess},
		{OperationAnesthesia, PermissionSurgicalAccess},
	}

	for _, tt := range tests {
		t.Run(string(tt.operation), func(t *testing.T) {
			assert.Equal(t, tt.required, tt.operation.RequiredPermission())
			assert.True(t, tt.operation.Valid())
		})
	}

	// Unknown operations require the strongest level
	assert.Equal(t, PermissionSurgicalAccess, MedicalOperationType("exorcism").RequiredPermission())
	assert.False(t, MedicalOperationType("exorcism").Valid())
}

func TestCanPerformOperation(t *testing.T) {
	staff := &MedicalStaff{Permission: PermissionFullAccess, Active: true}

	assert.True(t, staff.CanPerformOperation(OperationConsultation))
	assert.True(t, staff.CanPerformOperation(OperationMinorSurgery))
	assert.False(t, staff.CanPerformOperation(OperationMajorSurgery))
	assert.False(t, staff.CanPerformOperation(OperationAnesthesia))
	assert.False(t, staff.HasSurgicalAccess())

	staff.Permission = PermissionSurgicalAccess
	assert.True(t, staff.HasSurgicalAccess())
	assert.True(t, staff.CanPerformOperation(OperationMajorSurgery))

	staff.Permission = PermissionReadOnly
	assert.False(t, staff.CanPerformOperation(OperationConsultation))

	staff.Permission = PermissionSurgicalAccess
	staff.Active = false
	assert.False(t, staff.HasSurgicalAccess())
	assert.False(t, staff.CanPerformOperation(OperationConsultation))
}

func TestRecordAccessHelpers(t *testing.T) {
	staff := &MedicalStaff{Permission: PermissionReadOnly, Active: true}
	assert.False(t, staff.CanWriteRecords())
	assert.False(t, staff.CanDeleteTreatments())

	staff.Permission = PermissionReadWrite
	assert.True(t, staff.CanWriteRecords())
	assert.False(t, staff.CanDeleteTreatments())

	staff.Permission = PermissionFullAccess
	assert.True(t, staff.CanWriteRecords())
	assert.True(t, staff.CanDeleteTreatments())

	staff.Active = false
	assert.False(t, staff.CanWriteRecords())
	assert.False(t, staff.CanDeleteTreatments())
}
