package verification

import (
	"fmt"
	"testing"

	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/stretchr/testify/assert"
)

func record(role model.Role, step int) *model.VerificationRecord {
	rec := model.NewVerificationRecord()
	rec.Role = role
	rec.Step = step
	return rec
}

func TestComputeProgress_NoRole(t *testing.T) {
	rec := model.NewVerificationRecord()
	assert.Equal(t, 0, ComputeProgress(rec))
}

func TestComputeProgress_Patient(t *testing.T) {
	assert.Equal(t, 33, ComputeProgress(record(model.RolePatient, 1)))
	assert.Equal(t, 66, ComputeProgress(record(model.RolePatient, 2)))
	assert.Equal(t, 100, ComputeProgress(record(model.RolePatient, 3)))
}

func TestComputeProgress_MedicalStaff(t *testing.T) {
	rec := record(model.RoleMedicalStaff, 1)
	assert.Equal(t, 0, ComputeProgress(rec))

	rec.Step = 2
	assert.Equal(t, 20, ComputeProgress(rec))

	// Step 3 without a specialty does not earn the staff-type slice
	rec.Step = 3
	assert.Equal(t, 20, ComputeProgress(rec))

	rec.StaffType = model.StaffTypeDoctor
	assert.Equal(t, 40, ComputeProgress(rec))

	rec.Verifications[model.ItemDiploma] = true
	assert.Equal(t, 60, ComputeProgress(rec))

	rec.Verifications[model.ItemIdentity] = true
	rec.Verifications[model.ItemStructure] = true
	assert.Equal(t, 100, ComputeProgress(rec))
}

func TestComputeProgress_Admin(t *testing.T) {
	rec := record(model.RoleAdmin, 1)
	assert.Equal(t, 0, ComputeProgress(rec))

	rec.Step = 2
	assert.Equal(t, 15, ComputeProgress(rec))

	// Three OTP digits contribute floor(25*3/6) = 12
	rec.OTPValues[0] = "1"
	rec.OTPValues[1] = "2"
	rec.OTPValues[2] = "3"
	assert.Equal(t, 27, ComputeProgress(rec))

	for _, item := range model.VerificationItems {
		rec.Verifications[item] = true
	}
	for i := 3; i < model.OTPLength; i++ {
		rec.OTPValues[i] = "9"
	}
	assert.Equal(t, 100, ComputeProgress(rec))
}

func TestComputeProgress_AlwaysInRange(t *testing.T) {
	roles := []model.Role{"", model.RolePatient, model.RoleMedicalStaff, model.RoleAdmin}
	for _, role := range roles {
		for step := 1; step <= 3; step++ {
			for items := 0; items <= 3; items++ {
				for otp := 0; otp <= model.OTPLength; otp++ {
					rec := record(role, step)
					rec.StaffType = model.StaffTypeNurse
					for i := 0; i < items; i++ {
						rec.Verifications[model.VerificationItems[i]] = true
					}
					for i := 0; i < otp; i++ {
						rec.OTPValues[i] = "7"
					}
					progress := ComputeProgress(rec)
					assert.GreaterOrEqual(t, progress, 0,
						fmt.Sprintf("role=%s step=%d items=%d otp=%d", role, step, items, otp))
					assert.LessOrEqual(t, progress, 100,
						fmt.Sprintf("role=%s step=%d items=%d otp=%d", role, step, items, otp))
				}
			}
		}
	}
}

func TestComputeProgress_MonotonicInItems(t *testing.T) {
	rec := record(model.RoleMedicalStaff, 3)
	rec.StaffType = model.StaffTypeDoctor

	previous := ComputeProgress(rec)
	for _, item := range model.VerificationItems {
		rec.Verifications[item] = true
		current := ComputeProgress(rec)
		assert.GreaterOrEqual(t, current, previous)
		previous = current
	}
}

func TestComputeProgress_MonotonicInOTP(t *testing.T) {
	rec := record(model.RoleAdmin, 2)

	previous := ComputeProgress(rec)
	for i := 0; i < model.OTPLength; i++ {
		rec.OTPValues[i] = "4"
		current := ComputeProgress(rec)
		assert.GreaterOrEqual(t, current, previous)
		previous = current
	}
}

func TestEligibleForCompletion(t *testing.T) {
	assert.False(t, EligibleForCompletion(model.NewVerificationRecord()))

	assert.False(t, EligibleForCompletion(record(model.RolePatient, 2)))
	assert.True(t, EligibleForCompletion(record(model.RolePatient, 3)))

	staff := record(model.RoleMedicalStaff, 3)
	staff.StaffType = model.StaffTypeDoctor
	assert.False(t, EligibleForCompletion(staff))
	for _, item := range model.VerificationItems {
		staff.Verifications[item] = true
	}
	assert.True(t, EligibleForCompletion(staff))

	admin := record(model.RoleAdmin, 3)
	for _, item := range model.VerificationItems {
		admin.Verifications[item] = true
	}
	assert.False(t, EligibleForCompletion(admin))
	for i := 0; i < model.OTPLength; i++ {
		admin.OTPValues[i] = "5"
	}
	assert.True(t, EligibleForCompletion(admin))
}

func TestSanitizeOTPDigit(t *testing.T) {
	assert.Equal(t, "7", sanitizeOTPDigit("7"))
	assert.Equal(t, "2", sanitizeOTPDigit("12"))
	assert.Equal(t, "", sanitizeOTPDigit("x"))
	assert.Equal(t, "", sanitizeOTPDigit("7a"))
	assert.Equal(t, "", sanitizeOTPDigit(""))
}
