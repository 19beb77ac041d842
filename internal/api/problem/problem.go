// Package problem writes RFC 7807 application/problem+json error bodies.
package problem

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"
)

const contentType = "application/problem+json"

const typeBase = "https://royalhouse.example/problems/"

const (
	TypeValidation   = typeBase + "validation-error"
	TypeUnauthorized = typeBase + "unauthorized"
	TypeForbidden    = typeBase + "forbidden"
	TypeNotFound     = typeBase + "not-found"
	TypeConflict     = typeBase + "conflict"
	TypeTooLarge     = typeBase + "payload-too-large"
	TypeRateLimited  = typeBase + "rate-limited"
	TypeServerError  = typeBase + "server-error"
)

// ProblemDetails is the error body. Message mirrors Title because the
// dashboard script reads a flat {"message": ...}.
type ProblemDetails struct {
	Type     string         `json:"type"`
	Title    string         `json:"title"`
	Status   int            `json:"status"`
	Detail   string         `json:"detail,omitempty"`
	Instance string         `json:"instance,omitempty"`
	Message  string         `json:"message"`
	Errors   map[string]any `json:"errors,omitempty"`
}

type Option func(*ProblemDetails)

func WithDetail(detail string) Option {
	return func(p *ProblemDetails) { p.Detail = detail }
}

// WithErrors attaches per-field validation messages.
func WithErrors(errs map[string]any) Option {
	return func(p *ProblemDetails) { p.Errors = errs }
}

// Write logs err on the request logger and renders a problem body. The raw
// error text reaches the client only in development and test; elsewhere
// detail falls back to the status text.
func Write(w http.ResponseWriter, r *http.Request, status int, typ, title string, err error, env string, opts ...Option) {
	if title == "" {
		title = http.StatusText(status)
	}
	p := ProblemDetails{Type: typ, Title: title, Status: status, Message: title}
	for _, opt := range opts {
		opt(&p)
	}

	if err != nil && p.Detail == "" {
		p.Detail = http.StatusText(status)
		if exposesErrors(env) {
			p.Detail = err.Error()
		}
	}

	if r != nil {
		if p.Instance == "" {
			p.Instance = r.URL.Path
		}
		if err != nil {
			logEvent(zerolog.Ctx(r.Context()), status).
				Err(err).
				Int("status", status).
				Str("problem", typ).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Msg(title)
		}
	}

	WriteProblem(w, p)
}

func WriteProblem(w http.ResponseWriter, p ProblemDetails) {
	body, err := json.Marshal(p)
	if err != nil {
		p = ProblemDetails{
			Type:    TypeServerError,
			Title:   http.StatusText(http.StatusInternalServerError),
			Status:  http.StatusInternalServerError,
			Message: http.StatusText(http.StatusInternalServerError),
		}
		body, _ = json.Marshal(p)
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(p.Status)
	_, _ = w.Write(body)
}

func exposesErrors(env string) bool {
	return env == "development" || env == "test"
}

func logEvent(logger *zerolog.Logger, status int) *zerolog.Event {
	switch {
	case status >= http.StatusInternalServerError:
		return logger.Error()
	case status == http.StatusUnauthorized || status == http.StatusNotFound:
		return logger.Debug()
	default:
		return logger.Warn()
	}
}
