// Package testauth signs dashboard sessions for tests and local tooling.
// It must never be wired into the server: the secret it defaults to is public.
package testauth

import (
	"net/http"
	"time"

	"github.com/royalhouse/server/internal/auth"
)

const (
	// DevSecret is the well-known signing key used when Config.Secret is empty.
	DevSecret = "royal-house-dev-secret-do-not-use-in-prod"
	DevIssuer = "royal-house-test"
	DevEmail  = "regent@example.com"
)

type Config struct {
	Secret  string
	Issuer  string
	AdminID int64
	Email   string
	TTL     time.Duration
}

// Authenticator issues session cookies for one admin identity.
type Authenticator struct {
	sessions *auth.JWTManager
	adminID  int64
	email    string
}

// New fills unset fields with the development defaults.
func New(cfg Config) *Authenticator {
	if cfg.Secret == "" {
		cfg.Secret = DevSecret
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DevIssuer
	}
	if cfg.AdminID == 0 {
		cfg.AdminID = 1
	}
	if cfg.Email == "" {
		cfg.Email = DevEmail
	}
	if cfg.TTL <= 0 {
		cfg.TTL = time.Hour
	}
	return &Authenticator{
		sessions: auth.NewJWTManager(cfg.Secret, cfg.TTL, cfg.Issuer),
		adminID:  cfg.AdminID,
		email:    cfg.Email,
	}
}

// Sessions returns the manager that validates the issued tokens.
func (a *Authenticator) Sessions() *auth.JWTManager {
	return a.sessions
}

func (a *Authenticator) Token() (string, error) {
	return a.sessions.Generate(a.adminID, a.email)
}

func (a *Authenticator) Cookie() (*http.Cookie, error) {
	token, err := a.Token()
	if err != nil {
		return nil, err
	}
	return &http.Cookie{Name: auth.SessionCookieName, Value: token, Path: "/"}, nil
}

// SignIn attaches a session cookie to req.
func (a *Authenticator) SignIn(req *http.Request) error {
	cookie, err := a.Cookie()
	if err != nil {
		return err
	}
	req.AddCookie(cookie)
	return nil
}
