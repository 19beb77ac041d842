package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/mail"
	"strings"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/rs/zerolog"

	"github.com/royalhouse/server/internal/config"
)

//go:embed templates/*.html
var templateFS embed.FS

const loginCodeSubject = "Your Royal Access Code"

// Service renders and delivers transactional email through SMTP or Resend.
type Service struct {
	config       config.EmailConfig
	codeTTL      time.Duration
	templates    *template.Template
	resendClient *resend.Client
	logger       zerolog.Logger
}

// LoginCodeData feeds templates/login_code.html.
type LoginCodeData struct {
	Code             string
	SenderName       string
	ExpiresInMinutes int
	CurrentYear      int
}

func NewService(cfg config.EmailConfig, codeTTL time.Duration, logger zerolog.Logger) (*Service, error) {
	if cfg.Enabled {
		if err := validateEmailAddress(cfg.From); err != nil {
			return nil, fmt.Errorf("invalid sender email in config: %w", err)
		}
	}

	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}

	svc := &Service{
		config:    cfg,
		codeTTL:   codeTTL,
		templates: templates,
		logger:    logger.With().Str("component", "email").Logger(),
	}
	if cfg.Enabled && cfg.Provider == "resend" {
		svc.resendClient = resend.NewClient(cfg.ResendAPIKey)
	}
	return svc, nil
}

// SendLoginCode mails a one-time login code. With email disabled the code is
// logged instead so local logins still work.
func (s *Service) SendLoginCode(ctx context.Context, to, code string) error {
	if err := validateEmailAddress(to); err != nil {
		return fmt.Errorf("invalid recipient email: %w", err)
	}

	if !s.config.Enabled {
		s.logger.Info().
			Str("to", to).
			Str("code", code).
			Msg("email service disabled, login code not sent")
		return nil
	}

	htmlBody, err := s.renderTemplate("login_code.html", LoginCodeData{
		Code:             code,
		SenderName:       s.senderName(),
		ExpiresInMinutes: int(s.codeTTL.Minutes()),
		CurrentYear:      time.Now().Year(),
	})
	if err != nil {
		return fmt.Errorf("failed to render login code template: %w", err)
	}

	return s.send(ctx, message{
		kind:    "login_code",
		to:      to,
		subject: loginCodeSubject,
		html:    htmlBody,
		text:    fmt.Sprintf("Your Royal House access code is %s. It expires in %d minutes.", code, int(s.codeTTL.Minutes())),
	})
}

// message is one rendered outgoing email.
type message struct {
	kind    string
	to      string
	subject string
	html    string
	text    string
}

func (s *Service) send(ctx context.Context, msg message) error {
	switch s.config.Provider {
	case "resend":
		return s.sendViaResend(ctx, msg)
	case "smtp", "":
		return s.sendViaSMTP(ctx, msg.to, msg.subject, msg.html)
	default:
		return fmt.Errorf("unsupported email provider %q", s.config.Provider)
	}
}

func (s *Service) senderName() string {
	if s.config.FromName != "" {
		return s.config.FromName
	}
	return "Royal House"
}

// fromHeader formats the From header as "Name" <address>.
func (s *Service) fromHeader() string {
	addr := mail.Address{Name: s.senderName(), Address: s.config.From}
	return addr.String()
}

// validateEmailAddress rejects malformed addresses and header injection attempts.
func validateEmailAddress(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil {
		return fmt.Errorf("invalid email format: %w", err)
	}
	if strings.ContainsAny(addr.Address, "\r\n") {
		return fmt.Errorf("invalid email address: contains newline characters")
	}
	return nil
}

func (s *Service) renderTemplate(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}
	return buf.String(), nil
}
