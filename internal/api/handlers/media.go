package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/royalhouse/server/internal/audit"
	"github.com/royalhouse/server/internal/domain/media"
)

// MediaService is implemented by media.Service.
type MediaService interface {
	List(ctx context.Context, filter string) ([]media.File, error)
	Create(ctx context.Context, input media.FileInput) (int64, error)
	Update(ctx context.Context, id int64, input media.FileInput) error
	Delete(ctx context.Context, id int64) error
}

type MediaHandler struct {
	service     MediaService
	auditLogger *audit.Logger
	env         string
}

func NewMediaHandler(service MediaService, auditLogger *audit.Logger, env string) *MediaHandler {
	return &MediaHandler{
		service:     service,
		auditLogger: auditLogger,
		env:         env,
	}
}

// MediaRequest is the body of POST and PUT /api/media. The dashboard sends
// the id in the body on PUT.
type MediaRequest struct {
	ID          flexInt `json:"id"`
	FileURL     string  `json:"file_url"`
	FileType    string  `json:"file_type"`
	Title       string  `json:"title"`
	SubTitle    string  `json:"subTitle"`
	Description string  `json:"description"`
}

func (req MediaRequest) input() media.FileInput {
	return media.FileInput{
		FileURL:     req.FileURL,
		FileType:    media.FileType(req.FileType),
		Title:       req.Title,
		SubTitle:    req.SubTitle,
		Description: req.Description,
	}
}

// List handles GET /api/media?type=
func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	files, err := h.service.List(r.Context(), r.URL.Query().Get("type"))
	if err != nil {
		writeDomainError(w, r, err, h.env)
		return
	}
	if files == nil {
		files = []media.File{}
	}
	writeJSON(w, http.StatusOK, files)
}

// Create handles POST /api/media
func (h *MediaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req MediaRequest
	if !decodeJSON(w, r, &req, h.env) {
		return
	}

	id, err := h.service.Create(r.Context(), req.input())
	if err != nil {
		writeDomainError(w, r, err, h.env)
		return
	}

	h.auditLogger.LogFromRequest(r, "media.created", "media", strconv.FormatInt(id, 10), audit.StatusSuccess, map[string]string{
		"file_type": req.FileType,
	})
	writeJSON(w, http.StatusCreated, CreatedResponse{Message: "Media added", ID: id})
}

// Update handles PUT /api/media and PUT /api/media/{id}. A path id wins over
// the body id.
func (h *MediaHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req MediaRequest
	if !decodeJSON(w, r, &req, h.env) {
		return
	}

	var id int64
	if raw := r.PathValue("id"); raw != "" {
		parsed, ok := requireID(w, r, raw, h.env)
		if !ok {
			return
		}
		id = parsed
	} else if req.ID.Value != nil {
		id = int64(*req.ID.Value)
	}

	if err := h.service.Update(r.Context(), id, req.input()); err != nil {
		writeDomainError(w, r, err, h.env)
		return
	}

	h.auditLogger.LogFromRequest(r, "media.updated", "media", strconv.FormatInt(id, 10), audit.StatusSuccess, map[string]string{
		"file_type": req.FileType,
	})
	writeMessage(w, http.StatusOK, "Media updated successfully")
}

// Delete handles DELETE /api/media?id= and DELETE /api/media/{id}.
func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("id")
	if raw == "" {
		raw = r.URL.Query().Get("id")
	}
	id, ok := requireID(w, r, raw, h.env)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeDomainError(w, r, err, h.env)
		return
	}

	h.auditLogger.LogFromRequest(r, "media.deleted", "media", strconv.FormatInt(id, 10), audit.StatusSuccess, nil)
	writeMessage(w, http.StatusOK, "Media deleted")
}
