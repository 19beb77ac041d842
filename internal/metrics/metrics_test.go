package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	require.NotPanics(t, func() { Init("v1.0.0", "abc123", "2026-01-30") })

	assert.Equal(t, float64(1), testutil.ToFloat64(AppInfo.WithLabelValues("v1.0.0", "abc123", "2026-01-30")))
}

func TestHTTPMiddleware(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/media/{id}", "200"))

	rec := httptest.NewRecorder()
	HTTPMiddleware(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/media/42", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/media/{id}", "200")))
	assert.Positive(t, testutil.CollectAndCount(HTTPRequestDuration))
}

func TestHTTPMiddlewareStatusCodes(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusNotFound, http.StatusInternalServerError, http.StatusUnauthorized} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(status)
			})

			rec := httptest.NewRecorder()
			HTTPMiddleware(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))

			assert.Equal(t, status, rec.Code)
		})
	}
}

func TestDBCollectorNilPool(t *testing.T) {
	collector := NewDBCollector(nil, zerolog.Nop())

	assert.NotPanics(t, func() { collector.collect(context.Background()) })
	assert.NotPanics(t, collector.Stop)
	assert.NotPanics(t, collector.Stop, "second stop is a no-op")
}

func TestDBCollectorStartReturnsOnStop(t *testing.T) {
	collector := NewDBCollector(nil, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		collector.Start(context.Background(), time.Hour)
		close(done)
	}()
	collector.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}
}

func TestHTTPMiddlewareImplicitOK(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodHead, "/uploads/{file}", "200"))

	rec := httptest.NewRecorder()
	HTTPMiddleware(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/uploads/a.png", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues(http.MethodHead, "/uploads/{file}", "200")))
}

func TestResponseWriterDefaultsToOK(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}

	_, _ = rw.Write([]byte("test"))

	assert.Equal(t, http.StatusOK, rw.statusCode)
	assert.Equal(t, 4, rw.bytesWritten)
}
