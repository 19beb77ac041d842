package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/royalhouse/server/internal/domain/admins"
	"github.com/royalhouse/server/internal/validation"
)

func newAdminsTestHandler() (*AdminsHandler, *MockAdminsService) {
	service := new(MockAdminsService)
	return NewAdminsHandler(service, testAuditLogger(), "test"), service
}

func TestAdminsList(t *testing.T) {
	handler, service := newAdminsTestHandler()
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	service.On("List", mock.Anything).Return([]admins.Admin{{ID: 1, Email: "chamberlain@example.com", CreatedAt: created}}, nil)

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/admins", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":1,"email":"chamberlain@example.com","created_at":"2026-01-02T03:04:05Z"}]`, rec.Body.String())
}

func TestAdminsList_Empty(t *testing.T) {
	handler, service := newAdminsTestHandler()
	service.On("List", mock.Anything).Return(nil, nil)

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/admins", nil))

	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestAdminsAdd(t *testing.T) {
	handler, service := newAdminsTestHandler()
	service.On("Add", mock.Anything, "Steward@Example.com").Return(admins.Admin{ID: 4, Email: "steward@example.com"}, nil)

	req := jsonRequest(t, http.MethodPost, "/api/admins", map[string]string{"email": "Steward@Example.com"})
	rec := httptest.NewRecorder()
	handler.Add(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp struct {
		Message string       `json:"message"`
		Admin   admins.Admin `json:"admin"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Admin added", resp.Message)
	assert.Equal(t, "steward@example.com", resp.Admin.Email)
}

func TestAdminsAdd_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantTitle  string
	}{
		{name: "duplicate", err: admins.ErrEmailExists, wantStatus: http.StatusConflict, wantTitle: "Email already exists"},
		{name: "missing", err: validation.New("email", "Email required"), wantStatus: http.StatusBadRequest, wantTitle: "Email required"},
		{name: "malformed", err: validation.New("email", "Invalid email address"), wantStatus: http.StatusBadRequest, wantTitle: "Invalid email address"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, service := newAdminsTestHandler()
			service.On("Add", mock.Anything, mock.Anything).Return(admins.Admin{}, tt.err)

			req := jsonRequest(t, http.MethodPost, "/api/admins", map[string]string{"email": "x"})
			rec := httptest.NewRecorder()
			handler.Add(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantTitle, decodeProblem(t, rec).Title)
		})
	}
}

func TestAdminsRemove(t *testing.T) {
	t.Run("query id", func(t *testing.T) {
		handler, service := newAdminsTestHandler()
		service.On("Remove", mock.Anything, int64(2)).Return(nil)

		rec := httptest.NewRecorder()
		handler.Remove(rec, httptest.NewRequest(http.MethodDelete, "/api/admins?id=2", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Admin removed", decodeMessage(t, rec).Message)
	})

	t.Run("path id", func(t *testing.T) {
		handler, service := newAdminsTestHandler()
		service.On("Remove", mock.Anything, int64(3)).Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/api/admins/3", nil)
		req.SetPathValue("id", "3")
		rec := httptest.NewRecorder()
		handler.Remove(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		service.AssertExpectations(t)
	})

	t.Run("missing id", func(t *testing.T) {
		handler, service := newAdminsTestHandler()

		rec := httptest.NewRecorder()
		handler.Remove(rec, httptest.NewRequest(http.MethodDelete, "/api/admins", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ID required", decodeProblem(t, rec).Message)
		service.AssertNotCalled(t, "Remove", mock.Anything, mock.Anything)
	})
}
