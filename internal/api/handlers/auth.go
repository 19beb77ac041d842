package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/royalhouse/server/internal/api/problem"
	"github.com/royalhouse/server/internal/audit"
	"github.com/royalhouse/server/internal/auth"
	"github.com/royalhouse/server/internal/domain/login"
	"github.com/royalhouse/server/internal/metrics"
	"github.com/royalhouse/server/internal/validation"
)

// LoginService is implemented by login.Service.
type LoginService interface {
	RequestCode(ctx context.Context, email string) error
	Verify(ctx context.Context, email, code string) (login.Session, error)
}

// SessionValidator checks a session token. *auth.JWTManager satisfies it.
type SessionValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// AuthHandler serves the one-time-code login flow and session cookie.
type AuthHandler struct {
	login       LoginService
	sessions    SessionValidator
	sessionTTL  time.Duration
	auditLogger *audit.Logger
	env         string
}

func NewAuthHandler(loginService LoginService, sessions SessionValidator, sessionTTL time.Duration, auditLogger *audit.Logger, env string) *AuthHandler {
	return &AuthHandler{
		login:       loginService,
		sessions:    sessions,
		sessionTTL:  sessionTTL,
		auditLogger: auditLogger,
		env:         env,
	}
}

type sendCodeRequest struct {
	Email string `json:"email"`
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// SessionResponse describes the signed-in admin.
type SessionResponse struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RequestCode handles POST /api/auth/send-otp
func (h *AuthHandler) RequestCode(w http.ResponseWriter, r *http.Request) {
	var req sendCodeRequest
	if !decodeJSON(w, r, &req, h.env) {
		return
	}

	err := h.login.RequestCode(r.Context(), req.Email)
	switch {
	case err == nil:
		metrics.LoginCodesTotal.WithLabelValues("sent").Inc()
		writeMessage(w, http.StatusOK, "OTP sent successfully")
	case errors.Is(err, validation.ErrValidation):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, validation.MessageOf(err), nil, h.env)
	case errors.Is(err, login.ErrUnknownEmail):
		metrics.LoginCodesTotal.WithLabelValues("unknown_email").Inc()
		h.auditLogger.LogFromRequest(r, "auth.code_requested", "admin", "", audit.StatusFailure, map[string]string{
			"email":  req.Email,
			"reason": "unknown_email",
		})
		problem.Write(w, r, http.StatusForbidden, problem.TypeForbidden, "Access Denied: Email not recognized.", nil, h.env)
	case errors.Is(err, login.ErrDeliveryFailed):
		metrics.LoginCodesTotal.WithLabelValues("delivery_failed").Inc()
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Failed to send email", err, h.env)
	default:
		metrics.LoginCodesTotal.WithLabelValues("error").Inc()
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Internal Server Error", err, h.env)
	}
}

// VerifyCode handles POST /api/auth/verify-otp and sets the session cookie.
func (h *AuthHandler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if !decodeJSON(w, r, &req, h.env) {
		return
	}

	session, err := h.login.Verify(r.Context(), req.Email, req.OTP)
	if err != nil {
		switch {
		case errors.Is(err, validation.ErrValidation):
			problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, validation.MessageOf(err), nil, h.env)
		case errors.Is(err, login.ErrInvalidCode):
			metrics.LoginVerificationsTotal.WithLabelValues("invalid").Inc()
			h.auditLogger.LogFromRequest(r, "auth.login", "admin", "", audit.StatusFailure, map[string]string{
				"email":  req.Email,
				"reason": "invalid_code",
			})
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Invalid OTP", nil, h.env)
		case errors.Is(err, login.ErrCodeExpired):
			metrics.LoginVerificationsTotal.WithLabelValues("expired").Inc()
			problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "OTP has expired", nil, h.env)
		default:
			metrics.LoginVerificationsTotal.WithLabelValues("error").Inc()
			problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Internal Server Error", err, h.env)
		}
		return
	}

	metrics.LoginVerificationsTotal.WithLabelValues("success").Inc()
	http.SetCookie(w, auth.NewSessionCookie(session.Token, h.sessionTTL, h.secureCookies()))

	signedIn := r.WithContext(auth.WithClaims(r.Context(), &auth.Claims{Email: session.Email}))
	h.auditLogger.LogFromRequest(signedIn, "auth.login", "admin", strconv.FormatInt(session.AdminID, 10), audit.StatusSuccess, nil)
	writeMessage(w, http.StatusOK, "Login successful")
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, auth.ClearSessionCookie(h.secureCookies()))
	writeMessage(w, http.StatusOK, "Logged out")
}

// Session handles GET /api/auth/session
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	token, err := auth.TokenFromRequest(r)
	if err != nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.env)
		return
	}
	claims, err := h.sessions.Validate(token)
	if err != nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.env)
		return
	}
	id, err := claims.AdminID()
	if err != nil {
		problem.Write(w, r, http.StatusUnauthorized, problem.TypeUnauthorized, "Unauthorized", nil, h.env)
		return
	}

	resp := SessionResponse{ID: id, Email: claims.Email}
	if claims.ExpiresAt != nil {
		resp.ExpiresAt = claims.ExpiresAt.Time.UTC()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *AuthHandler) secureCookies() bool {
	return h.env == "production"
}
