package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/royalhouse/server/internal/api/problem"
	"github.com/royalhouse/server/internal/audit"
	"github.com/royalhouse/server/internal/domain/administration"
	"github.com/royalhouse/server/internal/domain/admins"
	"github.com/royalhouse/server/internal/domain/login"
	"github.com/royalhouse/server/internal/domain/media"
	"github.com/royalhouse/server/internal/domain/updates"
	"github.com/royalhouse/server/internal/storage/uploads"
)

type MockAdministrationService struct {
	mock.Mock
}

func (m *MockAdministrationService) List(ctx context.Context, limit, offset int) ([]administration.Member, error) {
	args := m.Called(ctx, limit, offset)
	members, _ := args.Get(0).([]administration.Member)
	return members, args.Error(1)
}

func (m *MockAdministrationService) Get(ctx context.Context, id int64) (*administration.Member, error) {
	args := m.Called(ctx, id)
	member, _ := args.Get(0).(*administration.Member)
	return member, args.Error(1)
}

func (m *MockAdministrationService) Create(ctx context.Context, input administration.MemberInput) (int64, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAdministrationService) Update(ctx context.Context, id int64, input administration.MemberInput) error {
	return m.Called(ctx, id, input).Error(0)
}

func (m *MockAdministrationService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockMediaService struct {
	mock.Mock
}

func (m *MockMediaService) List(ctx context.Context, filter string) ([]media.File, error) {
	args := m.Called(ctx, filter)
	files, _ := args.Get(0).([]media.File)
	return files, args.Error(1)
}

func (m *MockMediaService) Create(ctx context.Context, input media.FileInput) (int64, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockMediaService) Update(ctx context.Context, id int64, input media.FileInput) error {
	return m.Called(ctx, id, input).Error(0)
}

func (m *MockMediaService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockUpdatesService struct {
	mock.Mock
}

func (m *MockUpdatesService) List(ctx context.Context, limit, offset int) ([]updates.Update, error) {
	args := m.Called(ctx, limit, offset)
	items, _ := args.Get(0).([]updates.Update)
	return items, args.Error(1)
}

func (m *MockUpdatesService) Get(ctx context.Context, id int64) (*updates.Update, error) {
	args := m.Called(ctx, id)
	item, _ := args.Get(0).(*updates.Update)
	return item, args.Error(1)
}

func (m *MockUpdatesService) Create(ctx context.Context, input updates.UpdateInput) (int64, error) {
	args := m.Called(ctx, input)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUpdatesService) Replace(ctx context.Context, id int64, input updates.UpdateInput) error {
	return m.Called(ctx, id, input).Error(0)
}

func (m *MockUpdatesService) Delete(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockAdminsService struct {
	mock.Mock
}

func (m *MockAdminsService) List(ctx context.Context) ([]admins.Admin, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]admins.Admin)
	return list, args.Error(1)
}

func (m *MockAdminsService) Add(ctx context.Context, email string) (admins.Admin, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(admins.Admin), args.Error(1)
}

func (m *MockAdminsService) Remove(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

type MockLoginService struct {
	mock.Mock
}

func (m *MockLoginService) RequestCode(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockLoginService) Verify(ctx context.Context, email, code string) (login.Session, error) {
	args := m.Called(ctx, email, code)
	return args.Get(0).(login.Session), args.Error(1)
}

type MockFileStore struct {
	mock.Mock
}

func (m *MockFileStore) Save(ctx context.Context, filename string, r io.Reader) (uploads.Stored, error) {
	args := m.Called(ctx, filename, r)
	return args.Get(0).(uploads.Stored), args.Error(1)
}

func testAuditLogger() *audit.Logger {
	return audit.NewLogger(zerolog.Nop())
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var reader io.Reader = http.NoBody
	if body != nil {
		switch v := body.(type) {
		case string:
			reader = bytes.NewBufferString(v)
		default:
			payload, err := json.Marshal(v)
			require.NoError(t, err)
			reader = bytes.NewReader(payload)
		}
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) problem.ProblemDetails {
	t.Helper()
	var p problem.ProblemDetails
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	return p
}

func decodeMessage(t *testing.T, rec *httptest.ResponseRecorder) MessageResponse {
	t.Helper()
	var m MessageResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&m))
	return m
}
