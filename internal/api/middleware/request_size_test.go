package middleware

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func readingHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				return
			}
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestSize(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		bodySize    int
		want        int
	}{
		{name: "small json accepted", contentType: "application/json", bodySize: 512, want: http.StatusOK},
		{name: "exact limit accepted", contentType: "application/json", bodySize: 1024, want: http.StatusOK},
		{name: "oversized json rejected", contentType: "application/json", bodySize: 2048, want: http.StatusRequestEntityTooLarge},
		{name: "multipart uses upload limit", contentType: "multipart/form-data; boundary=x", bodySize: 4096, want: http.StatusOK},
		{name: "multipart over upload limit", contentType: "multipart/form-data; boundary=x", bodySize: 9000, want: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := RequestSize(1024, 8192)(readingHandler())

			req := httptest.NewRequest(http.MethodPost, "/api/media", bytes.NewReader(make([]byte, tt.bodySize)))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequestSizeWithNoBody(t *testing.T) {
	handler := RequestSize(DefaultMaxBodySize, 0)(readingHandler())

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/media", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
}
