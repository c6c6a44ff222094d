package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/tutor-portal/internal/config"
	"github.com/stemsi/tutor-portal/internal/model"
	"github.com/stemsi/tutor-portal/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors. Sign-in never says which part of the credentials was wrong.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionInvalid     = errors.New("session is not active")
	ErrReauthFailed       = errors.New("current password is incorrect")
)

// Claims extends JWT standard claims with the account identity.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Email  string `json:"email"`
}

// AuthService handles sign-in, tokens and live session bookkeeping.
type AuthService struct {
	cfg      *config.Config
	rdb      *redis.Client
	accounts *repository.AccountRepository
	log      zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, accounts *repository.AccountRepository, log zerolog.Logger) *AuthService {
	return &AuthService{
		cfg:      cfg,
		rdb:      rdb,
		accounts: accounts,
		log:      log.With().Str("component", "auth_service").Logger(),
	}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// SignIn verifies email and password and issues a token. Unknown email,
// wrong password and disabled accounts all yield ErrInvalidCredentials.
func (s *AuthService) SignIn(ctx context.Context, email, password string) (string, *model.Account, error) {
	account, err := s.accounts.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("lookup account: %w", err)
	}
	if account.Disabled {
		s.log.Info().Str("uid", account.UID).Msg("Sign-in attempt on disabled account")
		return "", nil, ErrInvalidCredentials
	}
	if err := s.CheckPassword(account.PasswordHash, password); err != nil {
		return "", nil, err
	}

	token, err := s.issueToken(ctx, account)
	if err != nil {
		return "", nil, err
	}
	return token, account, nil
}

// issueToken signs a JWT and registers its id as a live session. A student
// may be signed in on several devices, one session per token.
func (s *AuthService) issueToken(ctx context.Context, account *model.Account) (string, error) {
	jti := uuid.New().String()
	now := time.Now()

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   account.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.JWTExpiry)),
		},
		UserID: account.UID,
		Email:  account.Email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	if err := s.rdb.Set(ctx, config.CacheKey.AuthSessionKey(jti), account.UID, s.cfg.JWTExpiry).Err(); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	return parseToken(tokenStr, s.cfg.JWTSecret)
}

func parseToken(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" || claims.ID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ValidateSession checks that the token's session has not been signed out.
func (s *AuthService) ValidateSession(ctx context.Context, claims *Claims) error {
	uid, err := s.rdb.Get(ctx, config.CacheKey.AuthSessionKey(claims.ID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrSessionInvalid
		}
		return fmt.Errorf("check session: %w", err)
	}
	if uid != claims.UserID {
		return ErrSessionInvalid
	}
	return nil
}

// SignOut ends the token's session and notifies its live streams.
func (s *AuthService) SignOut(ctx context.Context, claims *Claims) error {
	if err := s.rdb.Del(ctx, config.CacheKey.AuthSessionKey(claims.ID)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := s.rdb.Publish(ctx, config.CacheKey.SignOutChannel(claims.ID), claims.UserID).Err(); err != nil {
		s.log.Warn().Err(err).Str("uid", claims.UserID).Msg("Sign-out publish failed")
	}
	return nil
}

// WatchSignOut returns a channel that is closed once the session jti signs
// out. It never closes if ctx ends first.
func (s *AuthService) WatchSignOut(ctx context.Context, jti string) (<-chan struct{}, error) {
	sub := s.rdb.Subscribe(ctx, config.CacheKey.SignOutChannel(jti))
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe sign-out: %w", err)
	}

	done := make(chan struct{})

	// The session may have ended before the subscription was confirmed.
	exists, err := s.rdb.Exists(ctx, config.CacheKey.AuthSessionKey(jti)).Result()
	if err != nil {
		sub.Close()
		return nil, fmt.Errorf("check session: %w", err)
	}
	if exists == 0 {
		sub.Close()
		close(done)
		return done, nil
	}

	go func() {
		defer sub.Close()
		select {
		case <-ctx.Done():
		case _, ok := <-sub.Channel():
			if ok {
				close(done)
			}
		}
	}()
	return done, nil
}

// Reauthenticate confirms that password belongs to uid.
func (s *AuthService) Reauthenticate(ctx context.Context, uid, password string) (*model.Account, error) {
	account, err := s.accounts.GetByUID(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReauthFailed
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}
	if account.Disabled || s.CheckPassword(account.PasswordHash, password) != nil {
		return nil, ErrReauthFailed
	}
	return account, nil
}

// Account returns the signed-in account.
func (s *AuthService) Account(ctx context.Context, uid string) (*model.Account, error) {
	return s.accounts.GetByUID(ctx, uid)
}
