package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stemsi/tutor-portal/internal/docstore"
	"github.com/stemsi/tutor-portal/internal/model"
	"github.com/stemsi/tutor-portal/internal/repository"
)

var ErrEmailInUse = errors.New("email already in use")

// AccountService serves the account settings form.
type AccountService struct {
	docs     *docstore.Store
	students *repository.StudentRepository
	accounts *repository.AccountRepository
	auth     *AuthService
	log      zerolog.Logger
}

// NewAccountService creates a new AccountService.
func NewAccountService(
	docs *docstore.Store,
	students *repository.StudentRepository,
	accounts *repository.AccountRepository,
	auth *AuthService,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		docs:     docs,
		students: students,
		accounts: accounts,
		auth:     auth,
		log:      log.With().Str("component", "account_service").Logger(),
	}
}

// Get returns the editable profile.
func (s *AccountService) Get(ctx context.Context, uid string) (*model.StudentProfile, error) {
	p, err := s.students.GetProfile(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Update re-authenticates with the current password, then writes the
// profile fields, the sign-in email and the optional new password in one
// transaction.
func (s *AccountService) Update(ctx context.Context, uid string, req *model.AccountUpdateRequest) (*model.StudentProfile, error) {
	account, err := s.auth.Reauthenticate(ctx, uid, req.CurrentPassword)
	if err != nil {
		return nil, err
	}

	var hash string
	if req.NewPassword != "" {
		if hash, err = s.auth.HashPassword(req.NewPassword); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	fields := profileFields(req)
	email := fields["email"].(string)

	err = s.docs.RunInTx(ctx, func(tx pgx.Tx, docs *docstore.Store) error {
		if err := s.students.WithStore(docs).UpdateProfile(ctx, uid, fields); err != nil {
			return err
		}
		accounts := s.accounts.WithTx(tx)
		if emailChanged(account.Email, email) {
			if err := accounts.UpdateEmail(ctx, uid, email); err != nil {
				return err
			}
		}
		if hash != "" {
			if err := accounts.UpdatePassword(ctx, uid, hash); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailTaken):
			return nil, ErrEmailInUse
		case errors.Is(err, repository.ErrNotFound):
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("update account: %w", err)
	}

	s.log.Info().
		Str("uid", uid).
		Bool("email_changed", emailChanged(account.Email, email)).
		Bool("password_changed", hash != "").
		Msg("Account updated")

	return s.Get(ctx, uid)
}

// emailChanged reports whether the account row needs the requested email.
// A case-only change counts so the row keeps the spelling on the profile.
func emailChanged(current, requested string) bool {
	return current != requested
}

// profileFields maps the form onto profile document fields. Optional
// fields are always written so that clearing them sticks.
func profileFields(req *model.AccountUpdateRequest) map[string]interface{} {
	return map[string]interface{}{
		"fullName":          strings.TrimSpace(req.FullName),
		"phoneNumber":       strings.TrimSpace(req.PhoneNumber),
		"parentPhoneNumber": strings.TrimSpace(req.ParentPhoneNumber),
		"passportId":        strings.TrimSpace(req.PassportID),
		"email":             strings.TrimSpace(req.Email),
		"address":           strings.TrimSpace(req.Address),
		"telegram":          strings.TrimSpace(req.Telegram),
	}
}
