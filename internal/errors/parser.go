package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is the parsed form of a low-level error
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts database and network errors into user-facing
// codes without leaking internals. context is a short description of
// the operation ("create patient", "update staff member").
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "An internal error occurred"}
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: notFoundMessage(context)}
	}

	// Unique constraint violation (23505)
	if strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "unique constraint") {
		if strings.Contains(errStr, "email") {
			return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "This email address is already in use"}
		}
		return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
	}

	// Foreign key constraint violation (23503)
	if strings.Contains(errStr, "foreign key constraint") {
		if strings.Contains(errStr, "still referenced") {
			return ErrorInfo{Code: ResourceConflict, Message: "The record is referenced by other data and cannot be removed"}
		}
		return ErrorInfo{Code: ResourceNotFound, Message: "A referenced record does not exist"}
	}

	// Not null constraint violation (23502)
	if strings.Contains(errStr, "null value") && strings.Contains(errStr, "not-null constraint") {
		return ErrorInfo{Code: ValidationRequired, Message: "A required field is missing"}
	}

	// Network / connectivity
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "Could not reach an external service. Please try again later",
		}
	}

	return ErrorInfo{Code: InternalServerError, Message: "An internal error occurred. Please try again later"}
}

func notFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "patient"):
		return "Patient not found"
	case strings.Contains(contextLower, "staff"):
		return "Staff member not found"
	case strings.Contains(contextLower, "appointment"):
		return "Appointment not found"
	case strings.Contains(contextLower, "verification"):
		return "Verification record not found"
	case strings.Contains(contextLower, "user"):
		return "User not found"
	}
	return "The requested record was not found"
}

// ParseAndRespond parses an error and writes the response in one call
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
