package admins

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/royalhouse/server/internal/validation"
)

var (
	ErrNotFound    = errors.New("admin not found")
	ErrEmailExists = errors.New("email already exists")
)

// Admin is an allow-listed dashboard user. Only allow-listed emails can
// request a login code.
type Admin struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type Repository interface {
	ListAdmins(ctx context.Context) ([]Admin, error)
	CreateAdmin(ctx context.Context, email string) (Admin, error)
	DeleteAdmin(ctx context.Context, id int64) error
}

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger.With().Str("component", "admins").Logger(),
	}
}

// List returns the allow-list, newest first.
func (s *Service) List(ctx context.Context) ([]Admin, error) {
	list, err := s.repo.ListAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return list, nil
}

// Add allow-lists email. Returns ErrEmailExists when it is already present.
func (s *Service) Add(ctx context.Context, email string) (Admin, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return Admin{}, validation.New("email", "Email required")
	}
	if err := validation.Var(email, "email", "email", "Invalid email address"); err != nil {
		return Admin{}, err
	}

	admin, err := s.repo.CreateAdmin(ctx, email)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return Admin{}, err
		}
		return Admin{}, fmt.Errorf("create admin: %w", err)
	}
	s.logger.Info().Int64("admin_id", admin.ID).Str("email", admin.Email).Msg("admin added")
	return admin, nil
}

// Ensure adds email unless it is already allow-listed.
func (s *Service) Ensure(ctx context.Context, email string) (bool, error) {
	_, err := s.Add(ctx, email)
	if errors.Is(err, ErrEmailExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) Remove(ctx context.Context, id int64) error {
	if id <= 0 {
		return validation.New("id", "ID required")
	}
	if err := s.repo.DeleteAdmin(ctx, id); err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	s.logger.Info().Int64("admin_id", id).Msg("admin removed")
	return nil
}

// NormalizeEmail trims and lowercases an address so lookups are stable.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
