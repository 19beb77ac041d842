package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/royalhouse/server/internal/domain/media"
	"github.com/royalhouse/server/internal/validation"
)

func newMediaTestHandler() (*MediaHandler, *MockMediaService) {
	service := new(MockMediaService)
	return NewMediaHandler(service, testAuditLogger(), "test"), service
}

func TestMediaList_PassesFilter(t *testing.T) {
	handler, service := newMediaTestHandler()
	service.On("List", mock.Anything, "FEATURED").Return([]media.File{
		{ID: 2, FileURL: "/uploads/b.mp4", FileType: media.TypeFeaturedVideo},
		{ID: 1, FileURL: "/uploads/a.png", FileType: media.TypeFeaturedImage},
	}, nil)

	rec := httptest.NewRecorder()
	handler.List(rec, httptest.NewRequest(http.MethodGet, "/api/media?type=FEATURED", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var files []media.File
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&files))
	assert.Len(t, files, 2)
	service.AssertExpectations(t)
}

func TestMediaCreate(t *testing.T) {
	handler, service := newMediaTestHandler()
	service.On("Create", mock.Anything, media.FileInput{
		FileURL:  "/uploads/1_a.png",
		FileType: media.TypeFeaturedImage,
		Title:    "Coronation",
		SubTitle: "1953",
	}).Return(int64(8), nil)

	req := jsonRequest(t, http.MethodPost, "/api/media", map[string]any{
		"file_url":  "/uploads/1_a.png",
		"file_type": "FIMG",
		"title":     "Coronation",
		"subTitle":  "1953",
	})
	rec := httptest.NewRecorder()
	handler.Create(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp CreatedResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Media added", resp.Message)
	assert.Equal(t, int64(8), resp.ID)
}

func TestMediaUpdate_BodyID(t *testing.T) {
	handler, service := newMediaTestHandler()
	service.On("Update", mock.Anything, int64(4), mock.MatchedBy(func(in media.FileInput) bool {
		return in.FileType == "IMAGE" && in.Title == "Renamed"
	})).Return(nil)

	req := jsonRequest(t, http.MethodPut, "/api/media", `{"id":"4","file_type":"IMAGE","title":"Renamed"}`)
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Media updated successfully", decodeMessage(t, rec).Message)
	service.AssertExpectations(t)
}

func TestMediaUpdate_PathIDWins(t *testing.T) {
	handler, service := newMediaTestHandler()
	service.On("Update", mock.Anything, int64(9), mock.Anything).Return(nil)

	req := jsonRequest(t, http.MethodPut, "/api/media/9", `{"id":4,"file_type":"VIDEO"}`)
	req.SetPathValue("id", "9")
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	service.AssertExpectations(t)
}

func TestMediaUpdate_QuotaMessage(t *testing.T) {
	handler, service := newMediaTestHandler()
	service.On("Update", mock.Anything, int64(5), mock.Anything).
		Return(validation.New("file_type", "Limit reached: Maximum 4 Featured Images allowed."))

	req := jsonRequest(t, http.MethodPut, "/api/media", map[string]any{"id": 5, "file_type": "FIMG"})
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Limit reached: Maximum 4 Featured Images allowed.", decodeProblem(t, rec).Message)
}

func TestMediaUpdate_MissingIDReachesService(t *testing.T) {
	handler, service := newMediaTestHandler()
	service.On("Update", mock.Anything, int64(0), mock.Anything).
		Return(validation.New("file_type", "ID and Type required"))

	req := jsonRequest(t, http.MethodPut, "/api/media", map[string]any{"file_type": "IMAGE"})
	rec := httptest.NewRecorder()
	handler.Update(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "ID and Type required", decodeProblem(t, rec).Title)
}

func TestMediaDelete(t *testing.T) {
	t.Run("query id", func(t *testing.T) {
		handler, service := newMediaTestHandler()
		service.On("Delete", mock.Anything, int64(3)).Return(nil)

		rec := httptest.NewRecorder()
		handler.Delete(rec, httptest.NewRequest(http.MethodDelete, "/api/media?id=3", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "Media deleted", decodeMessage(t, rec).Message)
	})

	t.Run("path id", func(t *testing.T) {
		handler, service := newMediaTestHandler()
		service.On("Delete", mock.Anything, int64(6)).Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/api/media/6", nil)
		req.SetPathValue("id", "6")
		rec := httptest.NewRecorder()
		handler.Delete(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		service.AssertExpectations(t)
	})

	t.Run("no id", func(t *testing.T) {
		handler, service := newMediaTestHandler()

		rec := httptest.NewRecorder()
		handler.Delete(rec, httptest.NewRequest(http.MethodDelete, "/api/media", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "ID required", decodeProblem(t, rec).Title)
		service.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
