package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stemsi/tutor-portal/internal/docstore"
	"github.com/stemsi/tutor-portal/internal/model"
	"github.com/stemsi/tutor-portal/internal/repository"
)

var (
	ErrProfileNotFound = errors.New("student profile not found")
	ErrNoOwner         = errors.New("student is not assigned to an administrator")
)

// StudentService resolves student profiles and provisions new students.
type StudentService struct {
	docs     *docstore.Store
	students *repository.StudentRepository
	accounts *repository.AccountRepository
	auth     *AuthService
}

// NewStudentService creates a new StudentService.
func NewStudentService(
	docs *docstore.Store,
	students *repository.StudentRepository,
	accounts *repository.AccountRepository,
	auth *AuthService,
) *StudentService {
	return &StudentService{docs: docs, students: students, accounts: accounts, auth: auth}
}

// Profile returns the student's profile.
func (s *StudentService) Profile(ctx context.Context, uid string) (*model.StudentProfile, error) {
	p, err := s.students.GetProfile(ctx, uid)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// OwnedProfile returns the profile and fails with ErrNoOwner when it does
// not name an administrator, since every owner-scoped view needs one.
func (s *StudentService) OwnedProfile(ctx context.Context, uid string) (*model.StudentProfile, error) {
	p, err := s.Profile(ctx, uid)
	if err != nil {
		return nil, err
	}
	if p.AdminID == "" {
		return nil, ErrNoOwner
	}
	return p, nil
}

// NewStudent is the input for provisioning a student.
type NewStudent struct {
	Profile  model.StudentProfile
	Password string
}

// Create provisions the identity account and the profile document together.
func (s *StudentService) Create(ctx context.Context, in NewStudent) (*model.StudentProfile, error) {
	hash, err := s.auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	profile := in.Profile
	profile.ID = uuid.New().String()
	profile.Email = strings.TrimSpace(profile.Email)

	err = s.docs.RunInTx(ctx, func(tx pgx.Tx, docs *docstore.Store) error {
		if err := s.accounts.WithTx(tx).Create(ctx, &model.Account{
			UID:          profile.ID,
			Email:        profile.Email,
			PasswordHash: hash,
		}); err != nil {
			return err
		}
		return s.students.WithStore(docs).CreateProfile(ctx, &profile)
	})
	if err != nil {
		if errors.Is(err, repository.ErrEmailTaken) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("create student: %w", err)
	}
	return &profile, nil
}
