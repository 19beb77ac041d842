package login

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/royalhouse/server/internal/auth"
	"github.com/royalhouse/server/internal/domain/admins"
	"github.com/royalhouse/server/internal/validation"
)

var (
	ErrUnknownEmail   = errors.New("email not allow-listed")
	ErrDeliveryFailed = errors.New("login code delivery failed")
	ErrInvalidCode    = errors.New("invalid login code")
	ErrCodeExpired    = errors.New("login code expired")
)

// Account is the credential view of an allow-listed admin.
type Account struct {
	ID        int64
	Email     string
	OTPExpiry *time.Time
}

type Repository interface {
	FindAccountByEmail(ctx context.Context, email string) (*Account, error)
	StoreOTP(ctx context.Context, adminID int64, code string, expiry time.Time) error
	FindAccountByOTP(ctx context.Context, email, code string) (*Account, error)
	ClearOTP(ctx context.Context, adminID int64) error
}

// CodeSender delivers a login code to an email address.
type CodeSender interface {
	SendLoginCode(ctx context.Context, to, code string) error
}

// TokenIssuer signs session tokens.
type TokenIssuer interface {
	Generate(adminID int64, email string) (string, error)
}

// Session is the outcome of a successful verification.
type Session struct {
	Token     string
	AdminID   int64
	Email     string
	ExpiresAt time.Time
}

// Service drives the one-time-password login: request a code, then trade it
// for a session token. Codes are single use and expire after ttl.
type Service struct {
	repo       Repository
	sender     CodeSender
	tokens     TokenIssuer
	generate   func() (string, error)
	ttl        time.Duration
	sessionTTL time.Duration
	now        func() time.Time
	logger     zerolog.Logger
}

const (
	defaultCodeTTL    = 10 * time.Minute
	defaultSessionTTL = 24 * time.Hour
)

// Options tune the service. Zero values fall back to a ten minute code,
// a one day session and auth.GenerateOTP.
type Options struct {
	CodeTTL    time.Duration
	SessionTTL time.Duration
	Generate   func() (string, error)
}

func NewService(repo Repository, sender CodeSender, tokens TokenIssuer, opts Options, logger zerolog.Logger) *Service {
	if opts.Generate == nil {
		opts.Generate = auth.GenerateOTP
	}
	if opts.CodeTTL <= 0 {
		opts.CodeTTL = defaultCodeTTL
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = defaultSessionTTL
	}
	return &Service{
		repo:       repo,
		sender:     sender,
		tokens:     tokens,
		generate:   opts.Generate,
		ttl:        opts.CodeTTL,
		sessionTTL: opts.SessionTTL,
		now:        time.Now,
		logger:     logger.With().Str("component", "login").Logger(),
	}
}

// RequestCode issues a fresh code for an allow-listed email, replacing any
// previous one. If delivery fails the stored code is kept and
// ErrDeliveryFailed is returned.
func (s *Service) RequestCode(ctx context.Context, email string) error {
	email = admins.NormalizeEmail(email)
	if email == "" {
		return validation.New("email", "Email is required")
	}

	account, err := s.repo.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUnknownEmail) {
			s.logger.Warn().Str("email", email).Msg("login code requested for unknown email")
		}
		return err
	}

	code, err := s.generate()
	if err != nil {
		return err
	}
	if err := s.repo.StoreOTP(ctx, account.ID, code, s.now().Add(s.ttl)); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}

	if err := s.sender.SendLoginCode(ctx, account.Email, code); err != nil {
		s.logger.Error().Err(err).Int64("admin_id", account.ID).Msg("login code delivery failed")
		return fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	s.logger.Info().Int64("admin_id", account.ID).Msg("login code sent")
	return nil
}

// Verify trades a code for a session. An expired code is left in place; a
// successful match clears it so it cannot be replayed.
func (s *Service) Verify(ctx context.Context, email, code string) (Session, error) {
	email = admins.NormalizeEmail(email)
	if email == "" || code == "" {
		return Session{}, validation.New("otp", "Email and OTP are required")
	}

	account, err := s.repo.FindAccountByOTP(ctx, email, code)
	if err != nil {
		return Session{}, err
	}

	now := s.now()
	if account.OTPExpiry == nil || !now.Before(*account.OTPExpiry) {
		return Session{}, ErrCodeExpired
	}

	if err := s.repo.ClearOTP(ctx, account.ID); err != nil {
		return Session{}, fmt.Errorf("clear otp: %w", err)
	}

	token, err := s.tokens.Generate(account.ID, account.Email)
	if err != nil {
		return Session{}, fmt.Errorf("issue session: %w", err)
	}

	s.logger.Info().Int64("admin_id", account.ID).Msg("login verified")
	return Session{
		Token:     token,
		AdminID:   account.ID,
		Email:     account.Email,
		ExpiresAt: now.Add(s.sessionTTL),
	}, nil
}
