package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/royalhouse/server/internal/audit"
	"github.com/royalhouse/server/internal/domain/administration"
)

const defaultAdministrationLimit = 100

// AdministrationService is implemented by administration.Service.
type AdministrationService interface {
	List(ctx context.Context, limit, offset int) ([]administration.Member, error)
	Get(ctx context.Context, id int64) (*administration.Member, error)
	Create(ctx context.Context, input administration.MemberInput) (int64, error)
	Update(ctx context.Context, id int64, input administration.MemberInput) error
	Delete(ctx context.Context, id int64) error
}

type AdministrationHandler struct {
	service     AdministrationService
	auditLogger *audit.Logger
	env         string
}

func NewAdministrationHandler(service AdministrationService, auditLogger *audit.Logger, env string) *AdministrationHandler {
	return &AdministrationHandler{
		service:     service,
		auditLogger: auditLogger,
		env:         env,
	}
}

// MemberRequest is the body of POST and PUT /api/administration.
type MemberRequest struct {
	Name         *string  `json:"name"`
	RoleTitle    string   `json:"role_title"`
	Category     string   `json:"category"`
	DisplayOrder flexInt  `json:"display_order"`
	IsActive     flexBool `json:"is_active"`
	Bio          *string  `json:"bio"`
	ImageURL     *string  `json:"image_url"`
}

func (req MemberRequest) input() administration.MemberInput {
	return administration.MemberInput{
		Name:         req.Name,
		RoleTitle:    req.RoleTitle,
		Category:     administration.Category(req.Category),
		DisplayOrder: req.DisplayOrder.Value,
		IsActive:     req.IsActive.Value,
		Bio:          req.Bio,
		ImageURL:     req.ImageURL,
	}
}

// List handles GET /api/administration
func (h *AdministrationHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, defaultAdministrationLimit)

	members, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, r, err, h.env)
		return
	}
	if members == nil {
		members = []administration.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

// Get handles GET /api/administration/{id}
func (h *AdministrationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, r.PathValue("id"), h.env)
	if !ok {
		return
	}

	member, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// Create handles POST /api/administration
func (h *AdministrationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req MemberRequest
	if !decodeJSON(w, r, &req, h.env) {
		return
	}

	id, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		writeDomainError(w, r, err, h.env)
		return
	}

	h.auditLogger.LogFromRequest(r, "administration.created", "member", strconv.FormatInt(id, 10), audit.StatusSuccess, map[string]string{
		"role_title": req.RoleTitle,
	})
	writeJSON(w, http.StatusCreated, CreatedResponse{Message: "Member added successfully", ID: id})
}

// Update handles PUT /api/administration/{id}
func (h *AdministrationHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, r.PathValue("id"), h.env)
	if !ok {
		return
	}

	var req MemberRequest
	if !decodeJSON(w, r, &req, h.env) {
		return
	}

	if err := h.service.Update(r.Context(), id, req.input()); err != nil {
		writeDomainError(w, r, err, h.env)
		return
	}

	h.auditLogger.LogFromRequest(r, "administration.updated", "member", strconv.FormatInt(id, 10), audit.StatusSuccess, map[string]string{
		"role_title": req.RoleTitle,
	})
	writeMessage(w, http.StatusOK, "Member updated successfully")
}

// Delete handles DELETE /api/administration/{id}
func (h *AdministrationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, r.PathValue("id"), h.env)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err, h.env)
		return
	}

	h.auditLogger.LogFromRequest(r, "administration.deleted", "member", strconv.FormatInt(id, 10), audit.StatusSuccess, nil)
	writeMessage(w, http.StatusOK, "Member deleted successfully")
}
