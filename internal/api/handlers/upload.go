package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/royalhouse/server/internal/api/problem"
	"github.com/royalhouse/server/internal/audit"
	"github.com/royalhouse/server/internal/metrics"
	"github.com/royalhouse/server/internal/storage/uploads"
)

const uploadField = "file"

// FileStore is implemented by uploads.LocalStore.
type FileStore interface {
	Save(ctx context.Context, filename string, r io.Reader) (uploads.Stored, error)
}

type UploadHandler struct {
	store       FileStore
	auditLogger *audit.Logger
	env         string
}

func NewUploadHandler(store FileStore, auditLogger *audit.Logger, env string) *UploadHandler {
	return &UploadHandler{
		store:       store,
		auditLogger: auditLogger,
		env:         env,
	}
}

// Upload handles POST /api/upload. The multipart body is streamed part by
// part so large videos never sit in memory or a temp file.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	reader, err := r.MultipartReader()
	if err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "No file uploaded", err, h.env)
		return
	}

	part, err := nextFilePart(reader)
	if err != nil {
		h.writeUploadError(w, r, err)
		return
	}
	defer part.Close()

	stored, err := h.store.Save(r.Context(), part.FileName(), part)
	if err != nil {
		h.writeUploadError(w, r, err)
		return
	}

	metrics.UploadsTotal.WithLabelValues(string(stored.Type)).Inc()
	metrics.UploadBytes.Observe(float64(stored.Size))
	h.auditLogger.LogFromRequest(r, "upload.stored", "upload", stored.Name, audit.StatusSuccess, map[string]string{
		"mime_type": stored.MIMEType,
	})
	writeJSON(w, http.StatusOK, stored)
}

var errNoFile = errors.New("no file part")

func nextFilePart(reader *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, errNoFile
		}
		if err != nil {
			return nil, err
		}
		if part.FormName() == uploadField && part.FileName() != "" {
			return part, nil
		}
		_ = part.Close()
	}
}

func (h *UploadHandler) writeUploadError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, errNoFile), errors.Is(err, uploads.ErrEmptyFile):
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "No file uploaded", err, h.env)
	case errors.As(err, &maxErr):
		problem.Write(w, r, http.StatusRequestEntityTooLarge, problem.TypeTooLarge, "File too large", err, h.env)
	default:
		problem.Write(w, r, http.StatusInternalServerError, problem.TypeServerError, "Upload failed", err, h.env)
	}
}
