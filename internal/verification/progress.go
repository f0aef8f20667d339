package verification

import "github.com/carelink/carelink-backend/internal/app/model"

// ComputeProgress derives the 0-100 completion percentage from a
// record. It is pure and must be called before every persisting write
// that could change its inputs so the stored value never drifts.
func ComputeProgress(rec *model.VerificationRecord) int {
	switch rec.Role {
	case model.RolePatient:
		switch {
		case rec.Step >= 3:
			return 100
		case rec.Step == 2:
			return 66
		default:
			return 33
		}

	case model.RoleMedicalStaff:
		progress := 0
		if rec.Step >= 2 {
			progress += 20
		}
		if rec.Step >= 3 && rec.StaffType != "" {
			progress += 20
		}
		progress += 20 * rec.ApprovedItemCount()
		return clampProgress(progress)

	case model.RoleAdmin:
		progress := 0
		if rec.Step >= 2 {
			progress += 15
		}
		progress += 20 * rec.ApprovedItemCount()
		progress += 25 * rec.FilledOTPCount() / model.OTPLength
		return clampProgress(progress)
	}

	// No role chosen yet
	return 0
}

// EligibleForCompletion reports whether a record may be submitted
func EligibleForCompletion(rec *model.VerificationRecord) bool {
	switch rec.Role {
	case model.RolePatient:
		return rec.Step >= 3
	case model.RoleMedicalStaff:
		return rec.Step >= 3 && rec.StaffType != "" &&
			rec.ApprovedItemCount() == len(model.VerificationItems)
	case model.RoleAdmin:
		return rec.ApprovedItemCount() == len(model.VerificationItems) &&
			rec.FilledOTPCount() == model.OTPLength
	}
	return false
}

func clampProgress(progress int) int {
	if progress > 100 {
		return 100
	}
	if progress < 0 {
		return 0
	}
	return progress
}
