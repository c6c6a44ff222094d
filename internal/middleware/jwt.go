package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/tutor-portal/internal/model"
	"github.com/stemsi/tutor-portal/internal/response"
	"github.com/stemsi/tutor-portal/internal/service"
)

const (
	// ContextKeyClaims is the Gin context key for JWT claims.
	ContextKeyClaims = "claims"
	// ContextKeyProfile is the Gin context key for the student profile.
	ContextKeyProfile = "profile"
)

// TokenValidator checks a token and its live session. *service.AuthService
// implements it.
type TokenValidator interface {
	ValidateToken(tokenStr string) (*service.Claims, error)
	ValidateSession(ctx context.Context, claims *service.Claims) error
}

// ProfileLoader resolves the signed-in student's owned profile.
// *service.StudentService implements it.
type ProfileLoader interface {
	OwnedProfile(ctx context.Context, uid string) (*model.StudentProfile, error)
}

// RequireStudentJWT validates a bearer token and rejects signed-out sessions.
func RequireStudentJWT(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := bearerToken(c)
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		authorize(c, auth, tokenStr)
	}
}

// RequireStudentWSAuth validates a token from the query param ?token=...
// Used for WebSocket upgrade requests, which cannot set headers.
func RequireStudentWSAuth(auth TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}
		authorize(c, auth, tokenStr)
	}
}

// RequireProfile loads the student's profile for owner-scoped routes.
func RequireProfile(profiles ProfileLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		p, err := profiles.OwnedProfile(c.Request.Context(), claims.UserID)
		switch {
		case err == nil:
		case errors.Is(err, service.ErrProfileNotFound):
			response.AbortFail(c, http.StatusNotFound, response.ErrProfileNotFound)
			return
		case errors.Is(err, service.ErrNoOwner):
			response.AbortFail(c, http.StatusForbidden, response.ErrNoOwner)
			return
		default:
			_ = c.Error(err)
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		c.Set(ContextKeyProfile, p)
		c.Next()
	}
}

// GetClaims retrieves the JWT claims from the Gin context.
func GetClaims(c *gin.Context) *service.Claims {
	val, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, ok := val.(*service.Claims)
	if !ok {
		return nil
	}
	return claims
}

// GetProfile retrieves the profile set by RequireProfile.
func GetProfile(c *gin.Context) *model.StudentProfile {
	val, exists := c.Get(ContextKeyProfile)
	if !exists {
		return nil
	}
	p, _ := val.(*model.StudentProfile)
	return p
}

func authorize(c *gin.Context, auth TokenValidator, tokenStr string) {
	claims, err := auth.ValidateToken(tokenStr)
	if err != nil {
		response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
		return
	}

	if err := auth.ValidateSession(c.Request.Context(), claims); err != nil {
		if errors.Is(err, service.ErrSessionInvalid) {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}
		_ = c.Error(err)
		response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	c.Set(ContextKeyClaims, claims)
	c.Next()
}

func bearerToken(c *gin.Context) string {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
