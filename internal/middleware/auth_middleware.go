package middleware

import (
	"errors"
	"strings"

	apperrors "github.com/carelink/carelink-backend/internal/errors"
	"github.com/carelink/carelink-backend/pkg/redis"
	"github.com/carelink/carelink-backend/pkg/util"
	"github.com/gin-gonic/gin"
)

const (
	ContextUserID = "user_id"
	ContextEmail  = "email"
	ContextRole   = "role"
)

// AuthMiddleware validates the Bearer token and stores the caller's
// identity on the request context
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			apperrors.Unauthorized(c, "Authorization header is missing")
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			apperrors.Unauthorized(c, "Authorization header must be a Bearer token")
			c.Abort()
			return
		}
		token := parts[1]

		claims, err := util.ValidateToken(token, jwtSecret)
		if err != nil {
			if errors.Is(err, util.ErrExpiredToken) {
				apperrors.RespondWithError(c, 401, apperrors.AuthTokenExpired, "Token has expired")
			} else {
				apperrors.RespondWithError(c, 401, apperrors.AuthTokenInvalid, "Token is invalid")
			}
			c.Abort()
			return
		}

		if redis.GetClient() != nil {
			blacklisted, err := redis.IsTokenBlacklisted(c.Request.Context(), token)
			if err == nil && blacklisted {
				apperrors.RespondWithError(c, 401, apperrors.AuthTokenRevoked, "Token has been revoked")
				c.Abort()
				return
			}
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextEmail, claims.Email)
		c.Set(ContextRole, claims.Role)
		c.Next()
	}
}

// RequireRole allows only callers whose role is in the given set.
// Must run after AuthMiddleware.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, role := range roles {
		allowed[role] = true
	}

	return func(c *gin.Context) {
		role := c.GetString(ContextRole)
		if role == "" {
			apperrors.Unauthorized(c, "")
			c.Abort()
			return
		}
		if !allowed[role] {
			apperrors.Forbidden(c, "Your role does not allow this action")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUserID returns the authenticated user's id from the context
func CurrentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	id, ok := value.(uint)
	return id, ok
}
