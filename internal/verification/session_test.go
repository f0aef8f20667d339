package verification

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/internal/db"
	"github.com/carelink/carelink-backend/internal/docstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *docstore.Store {
	database, err := db.SetupTestDB()
	require.NoError(t, err)
	return docstore.New(database, docstore.NewMemoryNotifier())
}

func validPDF(name string) model.VerificationFile {
	return model.VerificationFile{
		FileName:      name,
		FileURL:       "https://assets.example.com/" + name,
		ContentID:     "content-" + name,
		FileSizeBytes: 1 << 20,
		FileType:      "pdf",
		ResourceKind:  "raw",
	}
}

func TestLoad_MissingRecordLeavesDefaults(t *testing.T) {
	store := newTestStore(t)
	session := NewSession("user-1", store)

	completed, err := session.Load(context.Background())

	require.NoError(t, err)
	assert.False(t, completed)

	state := session.State()
	assert.False(t, state.IsLoading)
	assert.Equal(t, model.Role(""), state.Role)
	assert.Equal(t, 1, state.Step)
	assert.Equal(t, 0, state.Progress)
}

func TestSelectRole_PatientJumpsToStepThree(t *testing.T) {
	store := newTestStore(t)
	session := NewSession("user-1", store)
	ctx := context.Background()

	require.NoError(t, session.SelectRole(ctx, model.RolePatient))

	state := session.State()
	assert.Equal(t, model.RolePatient, state.Role)
	assert.Equal(t, 3, state.Step)
	assert.Equal(t, 100, state.Progress)

	// A fresh session sees the persisted record
	other := NewSession("user-1", store)
	_, err := other.Load(ctx)
	require.NoError(t, err)
	otherState := other.State()
	assert.Equal(t, model.RolePatient, otherState.Role)
	assert.Equal(t, 3, otherState.Step)
	assert.Equal(t, 100, otherState.Progress)
}

func TestSelectRole_Invalid(t *testing.T) {
	store := newTestStore(t)
	session := NewSession("user-1", store)

	err := session.SelectRole(context.Background(), model.Role("superuser"))

	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.Equal(t, model.Role(""), session.State().Role)
}

func TestSelectStaffType_RequiresMedicalStaffRole(t *testing.T) {
	store := newTestStore(t)
	session := NewSession("user-1", store)
	ctx := context.Background()

	err := session.SelectStaffType(ctx, model.StaffTypeDoctor)
	assert.ErrorIs(t, err, ErrStaffTypeNotOpen)

	require.NoError(t, session.SelectRole(ctx, model.RoleMedicalStaff))
	assert.Equal(t, 2, session.State().Step)
	assert.Equal(t, 20, session.State().Progress)

	require.NoError(t, session.SelectStaffType(ctx, model.StaffTypeDoctor))
	state := session.State()
	assert.Equal(t, model.StaffTypeDoctor, state.StaffType)
	assert.Equal(t, 3, state.Step)
	assert.Equal(t, 40, state.Progress)
}

func TestRecordFileUpload_UploadsNeverApprove(t *testing.T) {
	store := newTestStore(t)
	session := NewSession("user-1", store)
	ctx := context.Background()

	require.NoError(t, session.SelectRole(ctx, model.RoleMedicalStaff))
	require.NoError(t, session.SelectStaffType(ctx, model.StaffTypeDoctor))

	for _, item := range model.VerificationItems {
		require.NoError(t, session.RecordFileUpload(ctx, item, validPDF(string(item)+".pdf")))
	}

	state := session.State()
	for _, item := range model.VerificationItems {
		assert.False(t, state.Verifications[item])
		assert.Equal(t, model.StatusPending, state.VerificationStatuses[item].Status)
		assert.NotEmpty(t, state.UploadedFiles[item].FileURL)
	}
	// Evidence alone never moves progress past the step contributions
	assert.Equal(t, 40, state.Progress)
}

func TestRecordFileUpload_AcceptsImageResourceWithPDFFormat(t *testing.T) {
	store := newTestStore(t)
	session := NewSession("user-1", store)
	ctx := context.Background()

	require.NoError(t, session.SelectRole(ctx, model.RoleMedicalStaff))

	// The asset host may deliver a PDF as an image resource
	file := validPDF("diploma.pdf")
	file.ResourceKind = "image"
	require.NoError(t, session.RecordFileUpload(ctx, model.ItemDiploma, file))

	state := session.State()
	assert.Equal(t, model.StatusPending, state.VerificationStatuses[model.ItemDiploma].Status)
}

func TestRecordFileUpload_RejectsInvalidDescriptors(t *testing.T) {
	store := newTestStore(t)
	session := NewSession("user-1", store)
	ctx := context.Background()

	require.NoError(t, session.SelectRole(ctx, model.RoleMedicalStaff))

	oversized := validPDF("big.pdf")
	oversized.FileSizeBytes = model.MaxUploadBytes + 1
	err := session.RecordFileUpload(ctx, model.ItemDiploma, oversized)
	assert.ErrorIs(t, err, model.ErrFileTooLarge)

	document := validPDF("cv.docx")
	document.FileType = "docx"
	err = session.RecordFileUpload(ctx, model.ItemDiploma, document)
	assert.ErrorIs(t, err, model.ErrInvalidFileType)

	// Rejected uploads leave no trace, locally or remotely
	state := session.State()
	assert.Empty(t, state.UploadedFiles)
	assert.Empty(t, state.VerificationStatuses)

	doc, err := store.Get(ctx, model.VerificationsCollection, "user-1")
	require.NoError(t, err)
	remote := model.NewVerificationRecord()
	require.NoError(t, json.Unmarshal(doc.Data, remote))
	assert.Empty(t, remote.UploadedFiles)
}

func TestToggleItem_ClearsFileAndStatus(t *testing.T) {
	store := newTestStore(t)
	session := NewSession("user-1", store)
	ctx := context.Background()

	require.NoError(t, session.SelectRole(ctx, model.RoleMedicalStaff))
	require.NoError(t, session.RecordFileUpload(ctx, model.ItemIdentity, validPDF("id.pdf")))

	require.NoError(t, session.ToggleItem(ctx, model.ItemIdentity))

	state := session.State()
	assert.False(t, state.Verifications[model.ItemIdentity])
	_, hasFile := state.UploadedFiles[model.ItemIdentity]
	assert.False(t, hasFile)
	_, hasStatus := state.VerificationStatuses[model.ItemIdentity]
	assert.False(t, hasStatus)
}

func TestSetOTPDigit(t *testing.T) {
	store := newTestStore(t)
	session := NewSession("user-1", store)
	ctx := context.Background()

	require.NoError(t, session.SelectRole(ctx, model.RoleAdmin))

	assert.ErrorIs(t, session.SetOTPDigit(ctx, -1, "1"), ErrInvalidOTPIndex)
	assert.ErrorIs(t, session.SetOTPDigit(ctx, model.OTPLength, "1"), ErrInvalidOTPIndex)

	require.NoError(t, session.SetOTPDigit(ctx, 0, "1"))
	require.NoError(t, session.SetOTPDigit(ctx, 1, "42"))
	require.NoError(t, session.SetOTPDigit(ctx, 2, "x"))

	state := session.State()
	assert.Equal(t, "1", state.OTPValues[0])
	assert.Equal(t, "2", state.OTPValues[1])
	assert.Equal(t, "", state.OTPValues[2])
}

func TestSubmit_PatientFlow(t *testing.T) {
	store := newTestStore(t)
	session := NewSession("user-1", store)
	ctx := context.Background()

	require.NoError(t, session.SelectRole(ctx, model.RolePatient))
	require.NoError(t, session.Submit(ctx))

	state := session.State()
	assert.True(t, state.IsCompleted)
	assert.NotNil(t, state.CompletedAt)
	assert.Equal(t, 100, state.Progress)

	select {
	case <-session.Completed():
	default:
		t.Fatal("expected completion signal")
	}

	assert.ErrorIs(t, session.Submit(ctx), ErrAlreadyCompleted)

	other := NewSession("user-1", store)
	completed, err := other.Load(ctx)
	require.NoError(t, err)
	assert.True(t, completed)
}

func TestSubmit_NotEligible(t *testing.T) {
	store := newTestStore(t)
	session := NewSession("user-1", store)
	ctx := context.Background()

	require.NoError(t, session.SelectRole(ctx, model.RoleAdmin))

	err := session.Submit(ctx)
	assert.ErrorIs(t, err, ErrNotEligible)
	assert.False(t, session.State().IsCompleted)
}

func TestSubscribe_AuthoritativeOverwrite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	watcher := NewSession("user-1", store)
	_, err := watcher.Load(ctx)
	require.NoError(t, err)
	require.NoError(t, watcher.Subscribe(ctx))
	defer watcher.Unsubscribe()

	writer := NewSession("user-1", store)
	require.NoError(t, writer.SelectRole(ctx, model.RoleMedicalStaff))
	require.NoError(t, writer.SelectStaffType(ctx, model.StaffTypeNurse))

	state := watcher.State()
	assert.Equal(t, model.RoleMedicalStaff, state.Role)
	assert.Equal(t, model.StaffTypeNurse, state.StaffType)
	assert.Equal(t, 3, state.Step)
	assert.Equal(t, 40, state.Progress)
}

func TestSubscribe_CompletionSignalFiresOnce(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	watcher := NewSession("user-1", store)
	require.NoError(t, watcher.Subscribe(ctx))
	defer watcher.Unsubscribe()

	writer := NewSession("user-1", store)
	require.NoError(t, writer.SelectRole(ctx, model.RolePatient))
	require.NoError(t, writer.Submit(ctx))

	select {
	case <-watcher.Completed():
	case <-time.After(time.Second):
		t.Fatal("expected completion signal")
	}

	// Further writes after completion must not panic on a re-signal
	require.NoError(t, writer.SetOTPDigit(ctx, 0, "1"))
}

func TestReset_ClearsStateAndSubscription(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	session := NewSession("user-1", store)
	require.NoError(t, session.SelectRole(ctx, model.RolePatient))
	require.NoError(t, session.Subscribe(ctx))

	session.Reset()

	state := session.State()
	assert.Equal(t, model.Role(""), state.Role)
	assert.Equal(t, 1, state.Step)
	assert.Equal(t, 0, state.Progress)

	// The disposed subscription no longer delivers snapshots
	writer := NewSession("user-1", store)
	require.NoError(t, writer.SelectRole(ctx, model.RoleAdmin))
	assert.Equal(t, model.Role(""), session.State().Role)
}

func TestManager_SharesSessionsPerSubject(t *testing.T) {
	store := newTestStore(t)
	manager := NewManager(store)

	first := manager.Acquire("user-1")
	second := manager.Acquire("user-1")
	assert.Same(t, first, second)

	other := manager.Acquire("user-2")
	assert.NotSame(t, first, other)

	manager.Release("user-1")
	_, ok := manager.Get("user-1")
	assert.True(t, ok)

	manager.Release("user-1")
	_, ok = manager.Get("user-1")
	assert.False(t, ok)
}
