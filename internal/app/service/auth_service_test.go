package service

import (
	"context"
	"testing"
	"time"

	"github.com/carelink/carelink-backend/config"
	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/internal/app/repository"
	"github.com/carelink/carelink-backend/internal/db"
	"github.com/carelink/carelink-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthService(t *testing.T) (AuthService, repository.PatientRepository) {
	database, err := db.SetupTestDB()
	require.NoError(t, err)

	jwtConfig := &config.JWTConfig{
		Secret:             "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
	}
	// Low cost keeps the hashing fast in tests
	securityConfig := &config.SecurityConfig{BcryptCost: 4}
	patientRepo := repository.NewPatientRepository(database)
	return NewAuthService(repository.NewUserRepository(database), patientRepo, jwtConfig, securityConfig), patientRepo
}

func TestRegister_CreatesUserAndPatientProfile(t *testing.T) {
	svc, patientRepo := newTestAuthService(t)

	user, tokens, err := svc.Register(RegisterInput{
		Email:    "jamie@example.com",
		Password: "secret123",
		Name:     "Jamie Doe",
	})

	require.NoError(t, err)
	assert.Equal(t, string(model.RolePatient), user.Role)
	assert.NotEmpty(t, tokens.AccessToken)
	assert.NotEmpty(t, tokens.RefreshToken)

	claims, err := util.ValidateToken(tokens.AccessToken, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "jamie@example.com", claims.Email)

	patient, err := patientRepo.FindByUserID(user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, patient.UserID)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, _, err := svc.Register(RegisterInput{Email: "jamie@example.com", Password: "secret123", Name: "Jamie"})
	require.NoError(t, err)

	_, _, err = svc.Register(RegisterInput{Email: "jamie@example.com", Password: "other456", Name: "Imposter"})
	assert.ErrorIs(t, err, ErrEmailAlreadyExists)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, _, err := svc.Register(RegisterInput{Email: "jamie@example.com", Password: "secret123", Name: "Jamie"})
	require.NoError(t, err)

	user, tokens, err := svc.Login("jamie@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "jamie@example.com", user.Email)
	assert.NotEmpty(t, tokens.AccessToken)

	_, _, err = svc.Login("jamie@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login("nobody@example.com", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshToken(t *testing.T) {
	svc, _ := newTestAuthService(t)

	_, tokens, err := svc.Register(RegisterInput{Email: "jamie@example.com", Password: "secret123", Name: "Jamie"})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)

	_, err = svc.RefreshToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, util.ErrInvalidToken)
}
