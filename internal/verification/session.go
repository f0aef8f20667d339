package verification

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
	"unicode"

	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/internal/docstore"
	"github.com/carelink/carelink-backend/pkg/logger"
)

var (
	ErrInvalidRole      = errors.New("invalid role")
	ErrInvalidStaffType = errors.New("invalid staff type")
	ErrStaffTypeNotOpen = errors.New("staff type requires the medical staff role")
	ErrInvalidItem      = errors.New("invalid verification item")
	ErrInvalidOTPIndex  = errors.New("otp index out of range")
	ErrNotEligible      = errors.New("verification is not eligible for completion")
	ErrAlreadyCompleted = errors.New("verification is already completed")
)

// State is the wizard-facing snapshot of a session
type State struct {
	IsLoading            bool                                                    `json:"isLoading"`
	IsSaving             bool                                                    `json:"isSaving"`
	Role                 model.Role                                              `json:"role,omitempty"`
	StaffType            model.StaffType                                         `json:"staffType,omitempty"`
	Step                 int                                                     `json:"step"`
	Verifications        map[model.VerificationItem]bool                         `json:"verifications"`
	VerificationStatuses map[model.VerificationItem]model.VerificationStatusItem `json:"verificationStatuses"`
	UploadedFiles        map[model.VerificationItem]model.VerificationFile       `json:"uploadedFiles"`
	OTPValues            []string                                                `json:"otpValues"`
	Progress             int                                                     `json:"progress"`
	IsCompleted          bool                                                    `json:"isCompleted"`
	CompletedAt          *time.Time                                              `json:"completedAt,omitempty"`
}

// Session mirrors one subject's verification record. Mutators apply an
// optimistic local update, then persist through a single-document
// transaction that recomputes progress. On a failed write the local
// optimistic state is left as-is; the next successful sync repairs it.
type Session struct {
	subjectID string
	store     *docstore.Store

	mu        sync.RWMutex
	record    *model.VerificationRecord
	isLoading bool
	isSaving  bool

	// saveMu serializes remote writes so rapid sequential actions
	// cannot race each other into a lost update
	saveMu sync.Mutex

	subMu        sync.Mutex
	unsubscribe  func()
	listeners    map[int]func(State)
	nextListener int

	completedOnce sync.Once
	completed     chan struct{}
}

// NewSession creates a session at wizard defaults. Call Load to
// hydrate it from storage.
func NewSession(subjectID string, store *docstore.Store) *Session {
	return &Session{
		subjectID: subjectID,
		store:     store,
		record:    model.NewVerificationRecord(),
		listeners: make(map[int]func(State)),
		completed: make(chan struct{}),
	}
}

// SubjectID returns the subject this session belongs to
func (s *Session) SubjectID() string {
	return s.subjectID
}

// Load reads the remote record once. A missing record leaves the
// session at defaults. Returns true when the record is already
// completed so the caller can skip the wizard. The loading flag is
// cleared on every exit path.
func (s *Session) Load(ctx context.Context) (alreadyCompleted bool, err error) {
	s.mu.Lock()
	s.isLoading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isLoading = false
		s.mu.Unlock()
		s.notifyListeners()
	}()

	doc, err := s.store.Get(ctx, model.VerificationsCollection, s.subjectID)
	if errors.Is(err, docstore.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		logger.Error("Failed to load verification record", err, map[string]interface{}{
			"subject": s.subjectID,
		})
		return false, err
	}

	record, err := decodeRecord(doc.Data)
	if err != nil {
		logger.Error("Failed to decode verification record", err, map[string]interface{}{
			"subject": s.subjectID,
		})
		return false, err
	}

	// Trust the stored progress cache when present, recompute when the
	// record predates it
	if record.Progress == 0 && record.Role != "" {
		record.Progress = ComputeProgress(record)
	}

	s.mu.Lock()
	s.record = record
	s.mu.Unlock()

	if record.IsCompleted {
		s.signalCompleted()
		return true, nil
	}
	return false, nil
}

// Subscribe opens a push subscription on the record. Every remote
// change overwrites local state wholesale; a completed record emits
// the completion signal once. Idempotent while a subscription is open.
func (s *Session) Subscribe(ctx context.Context) error {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	if s.unsubscribe != nil {
		return nil
	}

	unsubscribe, err := s.store.Subscribe(ctx, model.VerificationsCollection, s.subjectID, func(doc *docstore.Document) {
		s.applySnapshot(doc)
	})
	if err != nil {
		logger.Error("Failed to subscribe to verification record", err, map[string]interface{}{
			"subject": s.subjectID,
		})
		return err
	}

	s.unsubscribe = unsubscribe
	return nil
}

// Unsubscribe disposes the push subscription, if any. Safe to call
// repeatedly.
func (s *Session) Unsubscribe() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// AddListener registers a callback invoked with the new state after
// every local change. The returned function removes it.
func (s *Session) AddListener(fn func(State)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	s.nextListener++
	id := s.nextListener
	s.listeners[id] = fn

	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.listeners, id)
	}
}

// Completed is closed exactly once, the first time the record is seen
// in a completed state
func (s *Session) Completed() <-chan struct{} {
	return s.completed
}

// State returns a deep-copied snapshot of the current local state
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked()
}

// SelectRole sets the role and advances the wizard: medical staff goes
// to the specialty screen (step 2), everyone else straight to the
// confirmation screen (step 3).
func (s *Session) SelectRole(ctx context.Context, role model.Role) error {
	if !role.Valid() {
		return ErrInvalidRole
	}

	step := 3
	if role == model.RoleMedicalStaff {
		step = 2
	}

	s.mu.Lock()
	s.record.Role = role
	s.record.Step = step
	s.record.Progress = ComputeProgress(s.record)
	s.mu.Unlock()
	s.notifyListeners()

	return s.save(ctx, func(remote *model.VerificationRecord) error {
		remote.Role = role
		remote.Step = step
		return nil
	})
}

// SelectStaffType records the specialty and advances to step 3
func (s *Session) SelectStaffType(ctx context.Context, staffType model.StaffType) error {
	if !staffType.Valid() {
		return ErrInvalidStaffType
	}

	s.mu.Lock()
	if s.record.Role != model.RoleMedicalStaff {
		s.mu.Unlock()
		return ErrStaffTypeNotOpen
	}
	s.record.StaffType = staffType
	s.record.Step = 3
	s.record.Progress = ComputeProgress(s.record)
	s.mu.Unlock()
	s.notifyListeners()

	return s.save(ctx, func(remote *model.VerificationRecord) error {
		remote.StaffType = staffType
		remote.Step = 3
		return nil
	})
}

// ToggleItem retracts an item: the flag goes back to false and the
// uploaded file and review status are cleared, requiring re-submission
func (s *Session) ToggleItem(ctx context.Context, item model.VerificationItem) error {
	if !item.Valid() {
		return ErrInvalidItem
	}

	s.mu.Lock()
	retract(s.record, item)
	s.record.Progress = ComputeProgress(s.record)
	s.mu.Unlock()
	s.notifyListeners()

	return s.save(ctx, func(remote *model.VerificationRecord) error {
		retract(remote, item)
		return nil
	})
}

func retract(rec *model.VerificationRecord, item model.VerificationItem) {
	rec.Verifications[item] = false
	delete(rec.UploadedFiles, item)
	delete(rec.VerificationStatuses, item)
}

// RecordFileUpload attaches an uploaded evidence file to an item and
// marks it pending review. Uploading never approves the item itself.
// Invalid descriptors are rejected before any state changes.
func (s *Session) RecordFileUpload(ctx context.Context, item model.VerificationItem, file model.VerificationFile) error {
	if !item.Valid() {
		return ErrInvalidItem
	}
	if err := model.ValidateUpload(file.ResourceKind, file.FileType, file.FileSizeBytes); err != nil {
		return err
	}
	if file.UploadedAt.IsZero() {
		file.UploadedAt = time.Now()
	}

	status := model.VerificationStatusItem{Status: model.StatusPending}

	s.mu.Lock()
	s.record.UploadedFiles[item] = file
	s.record.VerificationStatuses[item] = status
	s.record.Progress = ComputeProgress(s.record)
	s.mu.Unlock()
	s.notifyListeners()

	return s.save(ctx, func(remote *model.VerificationRecord) error {
		remote.UploadedFiles[item] = file
		remote.VerificationStatuses[item] = status
		return nil
	})
}

// SetOTPDigit writes one OTP slot. The digit is sanitized to a single
// numeric character or emptied.
func (s *Session) SetOTPDigit(ctx context.Context, index int, digit string) error {
	if index < 0 || index >= model.OTPLength {
		return ErrInvalidOTPIndex
	}
	sanitized := sanitizeOTPDigit(digit)

	s.mu.Lock()
	s.record.OTPValues[index] = sanitized
	s.record.Progress = ComputeProgress(s.record)
	s.mu.Unlock()
	s.notifyListeners()

	return s.save(ctx, func(remote *model.VerificationRecord) error {
		remote.OTPValues[index] = sanitized
		return nil
	})
}

// Submit completes the wizard. Eligibility is re-checked against the
// remote record inside the transaction, so a stale local view can
// never complete a record that does not actually qualify.
func (s *Session) Submit(ctx context.Context) error {
	now := time.Now()

	err := s.save(ctx, func(remote *model.VerificationRecord) error {
		if remote.IsCompleted {
			return ErrAlreadyCompleted
		}
		if !EligibleForCompletion(remote) {
			return ErrNotEligible
		}
		remote.IsCompleted = true
		remote.CompletedAt = &now
		return nil
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.record.IsCompleted = true
	s.record.CompletedAt = &now
	s.record.Progress = 100
	s.mu.Unlock()
	s.notifyListeners()

	s.signalCompleted()
	return nil
}

// Reset returns the session to wizard defaults and disposes any active
// subscription
func (s *Session) Reset() {
	s.Unsubscribe()

	s.mu.Lock()
	s.record = model.NewVerificationRecord()
	s.isLoading = false
	s.isSaving = false
	s.mu.Unlock()
	s.notifyListeners()
}

// Close releases the session's resources
func (s *Session) Close() {
	s.Unsubscribe()

	s.subMu.Lock()
	s.listeners = make(map[int]func(State))
	s.subMu.Unlock()
}

// save persists one change through a read-modify-write transaction.
// The remote record (or a fresh default) is decoded, mutate is applied
// to it, progress is recomputed, and the merged result is written
// back. Writes are serialized per session.
func (s *Session) save(ctx context.Context, mutate func(remote *model.VerificationRecord) error) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	s.isSaving = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.isSaving = false
		s.mu.Unlock()
		s.notifyListeners()
	}()

	doc, err := s.store.RunTransaction(ctx, model.VerificationsCollection, s.subjectID, func(current *docstore.Document) (json.RawMessage, error) {
		remote := model.NewVerificationRecord()
		if current != nil {
			decoded, err := decodeRecord(current.Data)
			if err != nil {
				return nil, err
			}
			remote = decoded
		}
		if err := mutate(remote); err != nil {
			return nil, err
		}
		remote.Progress = ComputeProgress(remote)
		if remote.IsCompleted {
			remote.Progress = 100
		}
		return json.Marshal(remote)
	})
	if err != nil {
		logger.Error("Failed to persist verification change", err, map[string]interface{}{
			"subject": s.subjectID,
		})
		return err
	}

	// Sync the local progress cache with what was committed
	committed, err := decodeRecord(doc.Data)
	if err == nil {
		s.mu.Lock()
		s.record.Progress = committed.Progress
		s.mu.Unlock()
	}
	return nil
}

// applySnapshot overwrites local state wholesale with an authoritative
// remote snapshot
func (s *Session) applySnapshot(doc *docstore.Document) {
	record, err := decodeRecord(doc.Data)
	if err != nil {
		logger.Error("Failed to decode verification snapshot", err, map[string]interface{}{
			"subject": s.subjectID,
		})
		return
	}

	s.mu.Lock()
	s.record = record
	s.mu.Unlock()
	s.notifyListeners()

	if record.IsCompleted {
		s.signalCompleted()
	}
}

func (s *Session) signalCompleted() {
	s.completedOnce.Do(func() {
		close(s.completed)
	})
}

func (s *Session) notifyListeners() {
	s.subMu.Lock()
	targets := make([]func(State), 0, len(s.listeners))
	for _, fn := range s.listeners {
		targets = append(targets, fn)
	}
	s.subMu.Unlock()

	if len(targets) == 0 {
		return
	}
	state := s.State()
	for _, fn := range targets {
		fn(state)
	}
}

func (s *Session) stateLocked() State {
	rec := s.record.Clone()
	return State{
		IsLoading:            s.isLoading,
		IsSaving:             s.isSaving,
		Role:                 rec.Role,
		StaffType:            rec.StaffType,
		Step:                 rec.Step,
		Verifications:        rec.Verifications,
		VerificationStatuses: rec.VerificationStatuses,
		UploadedFiles:        rec.UploadedFiles,
		OTPValues:            rec.OTPValues,
		Progress:             rec.Progress,
		IsCompleted:          rec.IsCompleted,
		CompletedAt:          rec.CompletedAt,
	}
}

func decodeRecord(data json.RawMessage) (*model.VerificationRecord, error) {
	record := model.NewVerificationRecord()
	if err := json.Unmarshal(data, record); err != nil {
		return nil, err
	}
	record.Normalize()
	return record, nil
}

// sanitizeOTPDigit keeps the last rune when it is a decimal digit,
// otherwise returns the empty string
func sanitizeOTPDigit(input string) string {
	runes := []rune(input)
	if len(runes) == 0 {
		return ""
	}
	last := runes[len(runes)-1]
	if unicode.IsDigit(last) {
		return string(last)
	}
	return ""
}
