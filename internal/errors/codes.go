package errors

// Error code constants, format: CATEGORY_SPECIFIC_DETAIL.
// The front end maps these codes to localized messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Verification (VERIFICATION_) ====================
	VerificationNotFound         = "VERIFICATION_NOT_FOUND"
	VerificationAlreadyCompleted = "VERIFICATION_ALREADY_COMPLETED"
	VerificationNotEligible      = "VERIFICATION_NOT_ELIGIBLE"
	VerificationInvalidRole      = "VERIFICATION_INVALID_ROLE"
	VerificationInvalidStaffType = "VERIFICATION_INVALID_STAFF_TYPE"
	VerificationInvalidItem      = "VERIFICATION_INVALID_ITEM"
	VerificationInvalidOTPIndex  = "VERIFICATION_INVALID_OTP_INDEX"
	VerificationWriteConflict    = "VERIFICATION_WRITE_CONFLICT"

	// ==================== Uploads (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Patients (PATIENT_) ====================
	PatientNotFound = "PATIENT_NOT_FOUND"

	// ==================== Medical records (RECORD_) ====================
	RecordNotFound         = "RECORD_NOT_FOUND"
	TreatmentNotFound      = "RECORD_TREATMENT_NOT_FOUND"
	RecordInvalidOperation = "RECORD_INVALID_OPERATION_TYPE"
	RecordPermissionDenied = "RECORD_PERMISSION_DENIED"

	// ==================== Staff (STAFF_) ====================
	StaffNotFound    = "STAFF_NOT_FOUND"
	StaffEmailExists = "STAFF_EMAIL_EXISTS"

	// ==================== Appointments (APPOINTMENT_) ====================
	AppointmentNotFound  = "APPOINTMENT_NOT_FOUND"
	AppointmentCancelled = "APPOINTMENT_CANCELLED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
