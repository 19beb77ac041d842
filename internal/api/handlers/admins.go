package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/royalhouse/server/internal/audit"
	"github.com/royalhouse/server/internal/domain/admins"
)

// AdminsService is implemented by admins.Service.
type AdminsService interface {
	List(ctx context.Context) ([]admins.Admin, error)
	Add(ctx context.Context, email string) (admins.Admin, error)
	Remove(ctx context.Context, id int64) error
}

// AdminsHandler manages the login allow-list.
type AdminsHandler struct {
	service     AdminsService
	auditLogger *audit.Logger
	env         string
}

func NewAdminsHandler(service AdminsService, auditLogger *audit.Logger, env string) *AdminsHandler {
	return &AdminsHandler{
		service:     service,
		auditLogger: auditLogger,
		env:         env,
	}
}

type AddAdminRequest struct {
	Email string `json:"email"`
}

// List handles GET /api/admins
func (h *AdminsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err, h.env)
		return
	}
	if list == nil {
		list = []admins.Admin{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Add handles POST /api/admins
func (h *AdminsHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req AddAdminRequest
	if !decodeJSON(w, r, &req, h.env) {
		return
	}

	admin, err := h.service.Add(r.Context(), req.Email)
	if err != nil {
		writeDomainError(w, r, err, h.env)
		return
	}

	h.auditLogger.LogFromRequest(r, "admin.added", "admin", strconv.FormatInt(admin.ID, 10), audit.StatusSuccess, map[string]string{
		"email": admin.Email,
	})
	writeJSON(w, http.StatusCreated, struct {
		Message string       `json:"message"`
		Admin   admins.Admin `json:"admin"`
	}{Message: "Admin added", Admin: admin})
}

// Remove handles DELETE /api/admins?id= and DELETE /api/admins/{id}.
func (h *AdminsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	if raw == "" {
		raw = r.URL.Query().Get("id")
	}
	id, ok := requireID(w, r, raw, h.env)
	if !ok {
		return
	}

	if err := h.service.Remove(r.Context(), id); err != nil {
		writeDomainError(w, r, err, h.env)
		return
	}

	h.auditLogger.LogFromRequest(r, "admin.removed", "admin", strconv.FormatInt(id, 10), audit.StatusSuccess, nil)
	writeMessage(w, http.StatusOK, "Admin removed")
}
