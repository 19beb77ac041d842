package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/royalhouse/server/internal/audit"
	"github.com/royalhouse/server/internal/domain/media"
	"github.com/royalhouse/server/internal/domain/updates"
)

const defaultUpdatesLimit = 10

// UpdatesService is implemented by updates.Service.
type UpdatesService interface {
	List(ctx context.Context, limit, offset int) ([]updates.Update, error)
	Get(ctx context.Context, id int64) (*updates.Update, error)
	Create(ctx context.Context, input updates.UpdateInput) (int64, error)
	Replace(ctx context.Context, id int64, input updates.UpdateInput) error
	Delete(ctx context.Context, id int64) error
}

type UpdatesHandler struct {
	service     UpdatesService
	auditLogger *audit.Logger
	env         string
}

func NewUpdatesHandler(service UpdatesService, auditLogger *audit.Logger, env string) *UpdatesHandler {
	return &UpdatesHandler{
		service:     service,
		auditLogger: auditLogger,
		env:         env,
	}
}

// UpdateRequest is the body of POST and PUT /api/updates. Media is only read
// on POST.
type UpdateRequest struct {
	Type       string               `json:"type"`
	Title      string               `json:"title"`
	Content    *string              `json:"content"`
	IsActive   flexBool             `json:"is_active"`
	ActionLink *string              `json:"action_link"`
	ActionText *string              `json:"action_text"`
	Media      []UpdateMediaRequest `json:"media"`
}

type UpdateMediaRequest struct {
	FileURL     string   `json:"file_url"`
	FileType    string   `json:"file_type"`
	IsPrimary   flexBool `json:"is_primary"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
}

func (req UpdateRequest) input() updates.UpdateInput {
	input := updates.UpdateInput{
		Type:       req.Type,
		Title:      req.Title,
		Content:    req.Content,
		IsActive:   req.IsActive.Value != nil && *req.IsActive.Value,
		ActionLink: req.ActionLink,
		ActionText: req.ActionText,
	}
	for _, m := range req.Media {
		input.Media = append(input.Media, updates.MediaInput{
			FileURL:     m.FileURL,
			FileType:    media.FileType(m.FileType),
			IsPrimary:   m.IsPrimary.Value != nil && *m.IsPrimary.Value,
			Title:       m.Title,
			Description: m.Description,
		})
	}
	return input
}

// List handles GET /api/updates
func (h *UpdatesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, defaultUpdatesLimit)

	items, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, r, err, h.env)
		return
	}
	if items == nil {
		items = []updates.Update{}
	}
	writeJSON(w, http.StatusOK, items)
}

// Get handles GET /api/updates/{id}; the response embeds the attached media.
func (h *UpdatesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, r.PathValue("id"), h.env)
	if !ok {
		return
	}

	update, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, update)
}

// Create handles POST /api/updates
func (h *UpdatesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if !decodeJSON(w, r, &req, h.env) {
		return
	}

	id, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		writeDomainError(w, r, err, h.env)
		return
	}

	h.auditLogger.LogFromRequest(r, "update.created", "update", strconv.FormatInt(id, 10), audit.StatusSuccess, map[string]string{
		"type":  req.Type,
		"media": strconv.Itoa(len(req.Media)),
	})
	writeJSON(w, http.StatusCreated, CreatedResponse{Message: "Update created successfully", ID: id})
}

// Replace handles PUT /api/updates/{id}
func (h *UpdatesHandler) Replace(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, r.PathValue("id"), h.env)
	if !ok {
		return
	}

	var req UpdateRequest
	if !decodeJSON(w, r, &req, h.env) {
		return
	}
	input := req.input()
	input.Media = nil

	if err := h.service.Replace(r.Context(), id, input); err != nil {
		writeDomainError(w, r, err, h.env)
		return
	}

	h.auditLogger.LogFromRequest(r, "update.replaced", "update", strconv.FormatInt(id, 10), audit.StatusSuccess, nil)
	writeMessage(w, http.StatusOK, "Update updated successfully")
}

// Delete handles DELETE /api/updates/{id}
func (h *UpdatesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireID(w, r, r.PathValue("id"), h.env)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err, h.env)
		return
	}

	h.auditLogger.LogFromRequest(r, "update.deleted", "update", strconv.FormatInt(id, 10), audit.StatusSuccess, nil)
	writeMessage(w, http.StatusOK, "Update deleted successfully")
}
