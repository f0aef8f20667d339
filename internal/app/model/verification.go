package model

import (
	"errors"
	"strings"
	"time"
)

// VerificationsCollection is the document store collection holding one
// verification record per subject
const VerificationsCollection = "verifications"

const (
	// MaxUploadBytes is the upload size ceiling (10 MiB)
	MaxUploadBytes = 10 << 20
	// OTPLength is the number of single-character OTP slots
	OTPLength = 6
)

var (
	ErrInvalidFileType = errors.New("file type is not allowed")
	ErrFileTooLarge    = errors.New("file exceeds the maximum upload size")
)

// Role identifies which verification track a subject is on
type Role string

const (
	RolePatient      Role = "patient"
	RoleMedicalStaff Role = "medicalStaff"
	RoleAdmin        Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleMedicalStaff, RoleAdmin:
		return true
	}
	return false
}

// StaffType is a medical staff specialty, chosen in step 2 of the
// medical staff track
type StaffType string

const (
	StaffTypeDoctor           StaffType = "Doctor"
	StaffTypeNurse            StaffType = "Nurse"
	StaffTypeSurgeon          StaffType = "Surgeon"
	StaffTypeAnesthesiologist StaffType = "Anesthesiologist"
	StaffTypeRadiologist      StaffType = "Radiologist"
	StaffTypeIntern           StaffType = "Intern"
	StaffTypeAdministrator    StaffType = "Administrator"
)

func (s StaffType) Valid() bool {
	switch s {
	case StaffTypeDoctor, StaffTypeNurse, StaffTypeSurgeon, StaffTypeAnesthesiologist,
		StaffTypeRadiologist, StaffTypeIntern, StaffTypeAdministrator:
		return true
	}
	return false
}

// VerificationItem is one of the three required proof categories
type VerificationItem string

const (
	ItemDiploma   VerificationItem = "diploma"
	ItemIdentity  VerificationItem = "identity"
	ItemStructure VerificationItem = "structure"
)

// VerificationItems lists every item in canonical order
var VerificationItems = []VerificationItem{ItemDiploma, ItemIdentity, ItemStructure}

func (i VerificationItem) Valid() bool {
	switch i {
	case ItemDiploma, ItemIdentity, ItemStructure:
		return true
	}
	return false
}

// ReviewStatus is the per-item review state. Uploading evidence sets
// pending; only an administrative review moves it to verified or
// rejected.
type ReviewStatus string

const (
	StatusPending  ReviewStatus = "pending"
	StatusVerified ReviewStatus = "verified"
	StatusRejected ReviewStatus = "rejected"
)

func (s ReviewStatus) Valid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusRejected:
		return true
	}
	return false
}

// VerificationFile describes an uploaded evidence file as reported by
// the asset host
type VerificationFile struct {
	FileName      string    `json:"fileName"`
	FileURL       string    `json:"fileUrl"`
	ContentID     string    `json:"contentId"`
	FileSizeBytes int64     `json:"fileSizeBytes"`
	FileType      string    `json:"fileType"`
	ResourceKind  string    `json:"resourceKind"`
	UploadedAt    time.Time `json:"uploadedAt"`
}

// VerificationStatusItem is the review state of a single item
type VerificationStatusItem struct {
	Status     ReviewStatus `json:"status"`
	VerifiedAt *time.Time   `json:"verifiedAt,omitempty"`
	VerifiedBy string       `json:"verifiedBy,omitempty"`
}

// VerificationRecord is the full per-subject verification document
type VerificationRecord struct {
	Role                 Role                                        `json:"role,omitempty"`
	StaffType            StaffType                                   `json:"staffType,omitempty"`
	Step                 int                                         `json:"step"`
	Verifications        map[VerificationItem]bool                   `json:"verifications"`
	VerificationStatuses map[VerificationItem]VerificationStatusItem `json:"verificationStatuses"`
	UploadedFiles        map[VerificationItem]VerificationFile       `json:"uploadedFiles"`
	OTPValues            []string                                    `json:"otpValues"`
	Progress             int                                         `json:"progress"`
	IsCompleted          bool                                        `json:"isCompleted"`
	CompletedAt          *time.Time                                  `json:"completedAt,omitempty"`
}

// NewVerificationRecord returns the default record for a subject who
// has not started the wizard
func NewVerificationRecord() *VerificationRecord {
	items := make(map[VerificationItem]bool, len(VerificationItems))
	for _, item := range VerificationItems {
		items[item] = false
	}
	return &VerificationRecord{
		Step:                 1,
		Verifications:        items,
		VerificationStatuses: make(map[VerificationItem]VerificationStatusItem),
		UploadedFiles:        make(map[VerificationItem]VerificationFile),
		OTPValues:            make([]string, OTPLength),
	}
}

// Normalize repairs records loaded from storage that predate the
// current shape (missing maps, short OTP slices)
func (r *VerificationRecord) Normalize() {
	if r.Verifications == nil {
		r.Verifications = make(map[VerificationItem]bool, len(VerificationItems))
	}
	for _, item := range VerificationItems {
		if _, ok := r.Verifications[item]; !ok {
			r.Verifications[item] = false
		}
	}
	if r.VerificationStatuses == nil {
		r.VerificationStatuses = make(map[VerificationItem]VerificationStatusItem)
	}
	if r.UploadedFiles == nil {
		r.UploadedFiles = make(map[VerificationItem]VerificationFile)
	}
	for len(r.OTPValues) < OTPLength {
		r.OTPValues = append(r.OTPValues, "")
	}
	if r.Step < 1 {
		r.Step = 1
	}
}

// Clone returns a deep copy of the record
func (r *VerificationRecord) Clone() *VerificationRecord {
	clone := *r
	clone.Verifications = make(map[VerificationItem]bool, len(r.Verifications))
	for item, approved := range r.Verifications {
		clone.Verifications[item] = approved
	}
	clone.VerificationStatuses = make(map[VerificationItem]VerificationStatusItem, len(r.VerificationStatuses))
	for item, status := range r.VerificationStatuses {
		clone.VerificationStatuses[item] = status
	}
	clone.UploadedFiles = make(map[VerificationItem]VerificationFile, len(r.UploadedFiles))
	for item, file := range r.UploadedFiles {
		clone.UploadedFiles[item] = file
	}
	clone.OTPValues = append([]string(nil), r.OTPValues...)
	if r.CompletedAt != nil {
		completedAt := *r.CompletedAt
		clone.CompletedAt = &completedAt
	}
	return &clone
}

// ApprovedItemCount counts verification items flipped to true
func (r *VerificationRecord) ApprovedItemCount() int {
	count := 0
	for _, approved := range r.Verifications {
		if approved {
			count++
		}
	}
	return count
}

// FilledOTPCount counts non-empty OTP slots
func (r *VerificationRecord) FilledOTPCount() int {
	count := 0
	for _, digit := range r.OTPValues {
		if digit != "" {
			count++
		}
	}
	return count
}

var allowedFormats = map[string]bool{
	"pdf":  true,
	"jpg":  true,
	"jpeg": true,
	"png":  true,
	"gif":  true,
	"webp": true,
}

// ValidateUpload checks an asset host descriptor against the allowed
// formats and the size ceiling before it may be attached to a record.
// The asset host may deliver PDFs as image resources, so the image
// kind accepts every allowed format; raw is pdf only.
func ValidateUpload(resourceKind, fileType string, sizeBytes int64) error {
	if sizeBytes > MaxUploadBytes {
		return ErrFileTooLarge
	}

	format := strings.ToLower(fileType)
	switch resourceKind {
	case "image":
		if !allowedFormats[format] {
			return ErrInvalidFileType
		}
	case "raw":
		if format != "pdf" {
			return ErrInvalidFileType
		}
	default:
		return ErrInvalidFileType
	}
	return nil
}
