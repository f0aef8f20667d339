package controller

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/carelink/carelink-backend/internal/db"
	"github.com/carelink/carelink-backend/internal/docstore"
	"github.com/carelink/carelink-backend/internal/middleware"
	"github.com/carelink/carelink-backend/internal/verification"
	ws "github.com/carelink/carelink-backend/internal/websocket"
	"github.com/carelink/carelink-backend/pkg/util"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "test-secret"

const testAssetBase = "https://assets.example.com/"

// fakeEvidenceStore records which object keys were deleted
type fakeEvidenceStore struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeEvidenceStore) ObjectKey(fileURL string) (string, bool) {
	key, found := strings.CutPrefix(fileURL, testAssetBase)
	return key, found && key != ""
}

func (f *fakeEvidenceStore) DeleteObject(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func (f *fakeEvidenceStore) deletedKeys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func newVerificationRouter(t *testing.T) (*gin.Engine, *fakeEvidenceStore) {
	gin.SetMode(gin.TestMode)

	database, err := db.SetupTestDB()
	require.NoError(t, err)
	store := docstore.New(database, docstore.NewMemoryNotifier())
	manager := verification.NewManager(store)

	hub := ws.NewHub()
	go hub.Run()

	evidence := &fakeEvidenceStore{}
	ctl := NewVerificationController(manager, hub, evidence)

	r := gin.New()
	authed := r.Group("/api/verification", middleware.AuthMiddleware(testJWTSecret))
	authed.GET("", ctl.GetState)
	authed.POST("/role", ctl.SelectRole)
	authed.POST("/staff-type", ctl.SelectStaffType)
	authed.POST("/items/:item/toggle", ctl.ToggleItem)
	authed.POST("/items/:item/upload", ctl.RecordUpload)
	authed.PUT("/otp/:index", ctl.SetOTPDigit)
	authed.POST("/submit", ctl.Submit)
	return r, evidence
}

func authToken(t *testing.T) string {
	tokens, err := util.GenerateTokenPair(42, "user@example.com", "patient", testJWTSecret, time.Hour, time.Hour)
	require.NoError(t, err)
	return tokens.AccessToken
}

func doRequest(router *gin.Engine, token, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestGetState_RequiresAuth(t *testing.T) {
	router, _ := newVerificationRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/verification", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetState_DefaultsForNewSubject(t *testing.T) {
	router, _ := newVerificationRouter(t)
	token := authToken(t)

	w := doRequest(router, token, http.MethodGet, "/api/verification", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"step":1`)
	assert.Contains(t, w.Body.String(), `"progress":0`)
}

func TestSelectRole_PatientReaches100(t *testing.T) {
	router, _ := newVerificationRouter(t)
	token := authToken(t)

	w := doRequest(router, token, http.MethodPost, "/api/verification/role", `{"role":"patient"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"step":3`)
	assert.Contains(t, w.Body.String(), `"progress":100`)

	// State survives across requests through the document store
	w = doRequest(router, token, http.MethodGet, "/api/verification", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"patient"`)
}

func TestSelectRole_Unknown(t *testing.T) {
	router, _ := newVerificationRouter(t)
	token := authToken(t)

	w := doRequest(router, token, http.MethodPost, "/api/verification/role", `{"role":"superuser"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VERIFICATION_INVALID_ROLE")
}

func TestRecordUpload_RejectsOversizedFile(t *testing.T) {
	router, _ := newVerificationRouter(t)
	token := authToken(t)

	doRequest(router, token, http.MethodPost, "/api/verification/role", `{"role":"medicalStaff"}`)

	payload := `{
		"fileName": "diploma.pdf",
		"fileUrl": "https://assets.example.com/diploma.pdf",
		"contentId": "abc123",
		"fileSizeBytes": 11534336,
		"fileType": "pdf",
		"resourceKind": "raw"
	}`
	w := doRequest(router, token, http.MethodPost, "/api/verification/items/diploma/upload", payload)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "UPLOAD_FILE_TOO_LARGE")
}

func TestRecordUpload_AcceptsPDFDeliveredAsImage(t *testing.T) {
	router, _ := newVerificationRouter(t)
	token := authToken(t)

	doRequest(router, token, http.MethodPost, "/api/verification/role", `{"role":"medicalStaff"}`)

	payload := `{
		"fileName": "diploma.pdf",
		"fileUrl": "https://assets.example.com/verifications/42/diploma/abc.pdf",
		"contentId": "abc123",
		"fileSizeBytes": 1048576,
		"fileType": "pdf",
		"resourceKind": "image"
	}`
	w := doRequest(router, token, http.MethodPost, "/api/verification/items/diploma/upload", payload)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"pending"`)
}

func TestToggleItem_DeletesRetractedEvidence(t *testing.T) {
	router, evidence := newVerificationRouter(t)
	token := authToken(t)

	doRequest(router, token, http.MethodPost, "/api/verification/role", `{"role":"medicalStaff"}`)

	payload := `{
		"fileName": "diploma.pdf",
		"fileUrl": "https://assets.example.com/verifications/42/diploma/abc.pdf",
		"contentId": "abc123",
		"fileSizeBytes": 1048576,
		"fileType": "pdf",
		"resourceKind": "raw"
	}`
	w := doRequest(router, token, http.MethodPost, "/api/verification/items/diploma/upload", payload)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, token, http.MethodPost, "/api/verification/items/diploma/toggle", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"verifications/42/diploma/abc.pdf"}, evidence.deletedKeys())

	// Retracting an item with no file deletes nothing further
	w = doRequest(router, token, http.MethodPost, "/api/verification/items/identity/toggle", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, evidence.deletedKeys(), 1)
}

func TestSetOTPDigit_IndexOutOfRange(t *testing.T) {
	router, _ := newVerificationRouter(t)
	token := authToken(t)

	w := doRequest(router, token, http.MethodPut, "/api/verification/otp/9", `{"digit":"1"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "VERIFICATION_INVALID_OTP_INDEX")
}

func TestSubmit_NotEligibleConflict(t *testing.T) {
	router, _ := newVerificationRouter(t)
	token := authToken(t)

	doRequest(router, token, http.MethodPost, "/api/verification/role", `{"role":"medicalStaff"}`)
	w := doRequest(router, token, http.MethodPost, "/api/verification/submit", "")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "VERIFICATION_NOT_ELIGIBLE")
}
