package service

import (
	"context"
	"errors"
	"time"

	"github.com/carelink/carelink-backend/config"
	"github.com/carelink/carelink-backend/internal/app/model"
	"github.com/carelink/carelink-backend/internal/app/repository"
	"github.com/carelink/carelink-backend/pkg/logger"
	"github.com/carelink/carelink-backend/pkg/redis"
	"github.com/carelink/carelink-backend/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrEmailAlreadyExists = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

type RegisterInput struct {
	Email    string
	Password string
	Name     string
	Phone    string
	Role     string
}

type AuthService interface {
	Register(input RegisterInput) (*model.User, *util.TokenPair, error)
	Login(email, password string) (*model.User, *util.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*util.TokenPair, error)
	Logout(ctx context.Context, accessToken string) error
}

type authService struct {
	userRepo    repository.UserRepository
	patientRepo repository.PatientRepository
	jwtConfig   *config.JWTConfig
	bcryptCost  int
}

func NewAuthService(userRepo repository.UserRepository, patientRepo repository.PatientRepository, jwtConfig *config.JWTConfig, securityConfig *config.SecurityConfig) AuthService {
	cost := util.DefaultBcryptCost
	if securityConfig != nil && securityConfig.BcryptCost > 0 {
		cost = securityConfig.BcryptCost
	}
	return &authService{
		userRepo:    userRepo,
		patientRepo: patientRepo,
		jwtConfig:   jwtConfig,
		bcryptCost:  cost,
	}
}

func (s *authService) Register(input RegisterInput) (*model.User, *util.TokenPair, error) {
	if _, err := s.userRepo.FindByEmail(input.Email); err == nil {
		return nil, nil, ErrEmailAlreadyExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}

	hash, err := util.HashPasswordWithCost(input.Password, s.bcryptCost)
	if err != nil {
		return nil, nil, err
	}

	role := input.Role
	if role == "" {
		role = string(model.RolePatient)
	}

	user := &model.User{
		Email:        input.Email,
		PasswordHash: hash,
		Name:         input.Name,
		Phone:        input.Phone,
		Role:         role,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, nil, err
	}

	// Patients get a clinical profile right away
	if role == string(model.RolePatient) {
		if err := s.patientRepo.Create(&model.Patient{UserID: user.ID}); err != nil {
			logger.Error("Failed to create patient profile", err, map[string]interface{}{
				"user_id": user.ID,
			})
		}
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User registered", map[string]interface{}{
		"user_id": user.ID,
		"role":    user.Role,
	})
	return user, tokens, nil
}

func (s *authService) Login(email, password string) (*model.User, *util.TokenPair, error) {
	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		logger.Warn("Failed to update last login", map[string]interface{}{
			"user_id": user.ID,
		})
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.jwtConfig.Secret)
	if err != nil {
		return nil, err
	}

	if redis.GetClient() != nil {
		blacklisted, err := redis.IsTokenBlacklisted(ctx, refreshToken)
		if err == nil && blacklisted {
			return nil, ErrTokenRevoked
		}
	}

	user, err := s.userRepo.FindByID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return s.issueTokens(user)
}

func (s *authService) Logout(ctx context.Context, accessToken string) error {
	claims, err := util.ValidateToken(accessToken, s.jwtConfig.Secret)
	if err != nil {
		// Already invalid, nothing to revoke
		return nil
	}

	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 || redis.GetClient() == nil {
		return nil
	}
	return redis.BlacklistToken(ctx, accessToken, remaining)
}

func (s *authService) issueTokens(user *model.User) (*util.TokenPair, error) {
	return util.GenerateTokenPair(
		user.ID,
		user.Email,
		user.Role,
		s.jwtConfig.Secret,
		s.jwtConfig.AccessTokenExpiry,
		s.jwtConfig.RefreshTokenExpiry,
	)
}
