package service

import (
	"context"
	"testing"
	"time"

	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/internal/db"
	"github.com/carelink/carelink-backend/internal/docstore"
	"github.com/carelink/carelink-backend/internal/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDocstore(t *testing.T) *docstore.Store {
	database, err := db.SetupTestDB()
	require.NoError(t, err)
	return docstore.New(database, docstore.NewMemoryNotifier())
}

func pdfDescriptor(name string) model.VerificationFile {
	return model.VerificationFile{
		FileName:      name,
		FileURL:       "https://assets.example.com/" + name,
		ContentID:     "content-" + name,
		FileSizeBytes: 1 << 20,
		FileType:      "pdf",
		ResourceKind:  "raw",
	}
}

func startStaffWizard(t *testing.T, store *docstore.Store, subjectID string) *verification.Session {
	ctx := context.Background()
	session := verification.NewSession(subjectID, store)
	require.NoError(t, session.SelectRole(ctx, model.RoleMedicalStaff))
	require.NoError(t, session.SelectStaffType(ctx, model.StaffTypeDoctor))
	require.NoError(t, session.RecordFileUpload(ctx, model.ItemDiploma, pdfDescriptor("diploma.pdf")))
	return session
}

func TestReview_MissingRecord(t *testing.T) {
	store := newTestDocstore(t)
	svc := NewReviewService(store)

	_, err := svc.Review(context.Background(), "nobody", model.ItemDiploma, true, "admin-1")
	assert.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestReview_InvalidItem(t *testing.T) {
	store := newTestDocstore(t)
	svc := NewReviewService(store)

	_, err := svc.Review(context.Background(), "user-1", model.VerificationItem("passport"), true, "admin-1")
	assert.ErrorIs(t, err, ErrInvalidReviewItem)
}

func TestReview_ApproveSharesProgressFormula(t *testing.T) {
	store := newTestDocstore(t)
	svc := NewReviewService(store)
	ctx := context.Background()

	wizard := startStaffWizard(t, store, "user-1")
	require.NoError(t, wizard.Subscribe(ctx))
	defer wizard.Unsubscribe()
	assert.Equal(t, 40, wizard.State().Progress)

	record, err := svc.Review(ctx, "user-1", model.ItemDiploma, true, "admin-9")
	require.NoError(t, err)

	assert.True(t, record.Verifications[model.ItemDiploma])
	status := record.VerificationStatuses[model.ItemDiploma]
	assert.Equal(t, model.StatusVerified, status.Status)
	assert.Equal(t, "admin-9", status.VerifiedBy)
	assert.NotNil(t, status.VerifiedAt)
	assert.Equal(t, 60, record.Progress)

	// The wizard sees the approval through its subscription, with the
	// same progress value
	state := wizard.State()
	assert.True(t, state.Verifications[model.ItemDiploma])
	assert.Equal(t, 60, state.Progress)
}

func TestReview_Reject(t *testing.T) {
	store := newTestDocstore(t)
	svc := NewReviewService(store)
	ctx := context.Background()

	startStaffWizard(t, store, "user-1")

	record, err := svc.Review(ctx, "user-1", model.ItemDiploma, false, "admin-9")
	require.NoError(t, err)

	assert.False(t, record.Verifications[model.ItemDiploma])
	assert.Equal(t, model.StatusRejected, record.VerificationStatuses[model.ItemDiploma].Status)
	assert.Equal(t, 40, record.Progress)
	// Rejection keeps the evidence so the reviewer's decision is auditable
	assert.NotEmpty(t, record.UploadedFiles[model.ItemDiploma].FileURL)
}

func TestReview_FullApprovalEnablesSubmit(t *testing.T) {
	store := newTestDocstore(t)
	svc := NewReviewService(store)
	ctx := context.Background()

	wizard := startStaffWizard(t, store, "user-1")
	require.NoError(t, wizard.Subscribe(ctx))
	defer wizard.Unsubscribe()
	require.NoError(t, wizard.RecordFileUpload(ctx, model.ItemIdentity, pdfDescriptor("id.pdf")))
	require.NoError(t, wizard.RecordFileUpload(ctx, model.ItemStructure, pdfDescriptor("org.pdf")))

	assert.ErrorIs(t, wizard.Submit(ctx), verification.ErrNotEligible)

	for _, item := range model.VerificationItems {
		_, err := svc.Review(ctx, "user-1", item, true, "admin-9")
		require.NoError(t, err)
	}

	assert.Equal(t, 100, wizard.State().Progress)
	require.NoError(t, wizard.Submit(ctx))
	assert.True(t, wizard.State().IsCompleted)
}

func TestList_SummarizesPendingItems(t *testing.T) {
	store := newTestDocstore(t)
	svc := NewReviewService(store)
	ctx := context.Background()

	startStaffWizard(t, store, "user-1")
	patient := verification.NewSession("user-2", store)
	require.NoError(t, patient.SelectRole(ctx, model.RolePatient))

	summaries, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	bySubject := make(map[string]ReviewSummary)
	for _, summary := range summaries {
		bySubject[summary.SubjectID] = summary
	}

	staff := bySubject["user-1"]
	assert.Equal(t, model.RoleMedicalStaff, staff.Role)
	assert.Equal(t, []model.VerificationItem{model.ItemDiploma}, staff.PendingItems)
	assert.Equal(t, 40, staff.Progress)

	assert.Empty(t, bySubject["user-2"].PendingItems)
	assert.Equal(t, 100, bySubject["user-2"].Progress)
}

func TestPendingOlderThan(t *testing.T) {
	store := newTestDocstore(t)
	svc := NewReviewService(store)
	ctx := context.Background()

	startStaffWizard(t, store, "user-1")

	stale, err := svc.PendingOlderThan(ctx, 0)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "user-1", stale[0].SubjectID)

	fresh, err := svc.PendingOlderThan(ctx, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, fresh)
}
