package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/royalhouse/server/internal/api/problem"
	"github.com/royalhouse/server/internal/domain/administration"
	"github.com/royalhouse/server/internal/domain/admins"
	"github.com/royalhouse/server/internal/domain/media"
	"github.com/royalhouse/server/internal/domain/updates"
	"github.com/royalhouse/server/internal/validation"
)

const (
	maxPageSize = 500
	maxPage     = 1_000_000
)

// MessageResponse is the body of every successful mutation.
type MessageResponse struct {
	Message string `json:"message"`
}

// CreatedResponse is returned when a row is inserted.
type CreatedResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, MessageResponse{Message: message})
}

// decodeJSON reads the request body into dst. On failure it writes the
// problem response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, env string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeTooLarge, "Request body too large", err, env)
			return false
		}
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request body", err, env)
		return false
	}
	return true
}

func parseID(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errMissingID
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

var errMissingID = errors.New("id required")

// requireID parses an id taken from the path or query string, writing 400 on
// failure.
func requireID(w http.ResponseWriter, r *http.Request, raw, env string) (int64, bool) {
	id, err := parseID(raw)
	if errors.Is(err, errMissingID) {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "ID required", nil, env)
		return 0, false
	}
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid ID", err, env)
		return 0, false
	}
	return id, true
}

// pageParams reads page (1-based) and limit from the query string. Missing or
// unparsable values fall back to page 1 and defaultLimit. Page is capped at
// maxPage so the offset cannot overflow.
func pageParams(r *http.Request, defaultLimit int) (limit, offset int) {
	query := r.URL.Query()

	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	if page > maxPage {
		page = maxPage
	}
	limit, err = strconv.Atoi(query.Get("limit"))
	if err != nil || limit < 1 {
		limit = defaultLimit
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return limit, (page - 1) * limit
}

// flexBool accepts true/false, 0/1 and their string forms. The dashboard
// posts form values as strings.
type flexBool struct {
	Value *bool
}

func (b *flexBool) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		b.Value = nil
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	if raw == "" {
		b.Value = nil
		return nil
	}
	parsed, err := strconv.ParseBool(raw)
	if err != nil {
		return fmt.Errorf("invalid boolean %q", raw)
	}
	b.Value = &parsed
	return nil
}

// flexInt accepts a number or a numeric string.
type flexInt struct {
	Value *int
}

func (n *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		n.Value = nil
		return nil
	}
	raw := strings.Trim(string(data), `"`)
	if raw == "" {
		n.Value = nil
		return nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid integer %q", raw)
	}
	n.Value = &parsed
	return nil
}

// mapDomainError translates service errors into a status, problem type and
// title. Validation messages are shown verbatim.
func mapDomainError(err error) (status int, problemType, title string) {
	switch {
	case errors.Is(err, validation.ErrValidation):
		return http.StatusBadRequest, problem.TypeValidation, validation.MessageOf(err)
	case errors.Is(err, administration.ErrNotFound):
		return http.StatusNotFound, problem.TypeNotFound, "Member not found"
	case errors.Is(err, updates.ErrNotFound):
		return http.StatusNotFound, problem.TypeNotFound, "Update not found"
	case errors.Is(err, media.ErrNotFound):
		return http.StatusNotFound, problem.TypeNotFound, "Media not found"
	case errors.Is(err, admins.ErrNotFound):
		return http.StatusNotFound, problem.TypeNotFound, "Admin not found"
	case errors.Is(err, admins.ErrEmailExists):
		return http.StatusConflict, problem.TypeConflict, "Email already exists"
	default:
		return http.StatusInternalServerError, problem.TypeServerError, "Server error"
	}
}

func writeDomainError(w http.ResponseWriter, r *http.Request, err error, env string) {
	status, problemType, title := mapDomainError(err)
	problem.Write(w, r, status, problemType, title, err, env)
}
