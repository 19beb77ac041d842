package media

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/royalhouse/server/internal/validation"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) ListFiles(ctx context.Context, types []FileType) ([]File, error) {
	args := m.Called(ctx, types)
	files, _ := args.Get(0).([]File)
	return files, args.Error(1)
}

func (m *MockRepository) CreateFile(ctx context.Context, file File) (int64, error) {
	args := m.Called(ctx, file)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) CountByType(ctx context.Context, fileType FileType, excludeID int64) (int, error) {
	args := m.Called(ctx, fileType, excludeID)
	return args.Int(0), args.Error(1)
}

func (m *MockRepository) UpdateFile(ctx context.Context, file File) error {
	return m.Called(ctx, file).Error(0)
}

func (m *MockRepository) DeleteFile(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func TestList_Filters(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("ListFiles", ctx, []FileType(nil)).Return([]File{{ID: 2}, {ID: 1}}, nil).Once()
	repo.On("ListFiles", ctx, []FileType{TypeFeaturedImage, TypeFeaturedVideo}).Return([]File{}, nil).Once()
	repo.On("ListFiles", ctx, []FileType{TypeVideo}).Return([]File{}, nil).Once()
	svc := NewService(repo, zerolog.Nop())

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.List(ctx, "featured")
	require.NoError(t, err)
	_, err = svc.List(ctx, "VIDEO")
	require.NoError(t, err)

	repo.AssertExpectations(t)
}

func TestCreate_DefaultsToImage(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("CreateFile", ctx, mock.MatchedBy(func(f File) bool {
		return f.FileType == TypeImage && f.FileURL == "/uploads/1_a.jpg" && f.SubTitle == "Sub" && !f.IsPrimary
	})).Return(int64(3), nil)
	svc := NewService(repo, zerolog.Nop())

	id, err := svc.Create(ctx, FileInput{FileURL: "/uploads/1_a.jpg", SubTitle: "Sub"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	repo.AssertExpectations(t)
}

func TestCreate_RequiresURL(t *testing.T) {
	svc := NewService(new(MockRepository), zerolog.Nop())
	_, err := svc.Create(context.Background(), FileInput{})
	assert.Equal(t, msgURLRequired, validation.MessageOf(err))
}

func TestCreate_RejectsUnknownType(t *testing.T) {
	svc := NewService(new(MockRepository), zerolog.Nop())
	_, err := svc.Create(context.Background(), FileInput{FileURL: "/uploads/x.png", FileType: "GIF"})
	assert.Equal(t, msgInvalidType, validation.MessageOf(err))
}

func TestCreate_FeaturedQuotaNotChecked(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("CreateFile", ctx, mock.AnythingOfType("media.File")).Return(int64(9), nil)
	svc := NewService(repo, zerolog.Nop())

	_, err := svc.Create(ctx, FileInput{FileURL: "/uploads/5.jpg", FileType: TypeFeaturedImage})
	require.NoError(t, err)
	repo.AssertNotCalled(t, "CountByType", mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdate_FeaturedImageQuota(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("CountByType", ctx, TypeFeaturedImage, int64(5)).Return(4, nil)
	svc := NewService(repo, zerolog.Nop())

	err := svc.Update(ctx, 5, FileInput{FileType: TypeFeaturedImage})
	assert.Equal(t, msgFeaturedImageCap, validation.MessageOf(err))
	repo.AssertNotCalled(t, "UpdateFile", mock.Anything, mock.Anything)
}

func TestUpdate_FeaturedImageUnderQuota(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("CountByType", ctx, TypeFeaturedImage, int64(5)).Return(3, nil)
	repo.On("UpdateFile", ctx, mock.MatchedBy(func(f File) bool { return f.ID == 5 && f.FileType == TypeFeaturedImage })).Return(nil)
	svc := NewService(repo, zerolog.Nop())

	require.NoError(t, svc.Update(ctx, 5, FileInput{FileType: "fimg", Title: "Coronation"}))
	repo.AssertExpectations(t)
}

func TestUpdate_FeaturedVideoQuota(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("CountByType", ctx, TypeFeaturedVideo, int64(8)).Return(1, nil)
	svc := NewService(repo, zerolog.Nop())

	err := svc.Update(ctx, 8, FileInput{FileType: TypeFeaturedVideo})
	assert.Equal(t, msgFeaturedVideoCap, validation.MessageOf(err))
}

func TestUpdate_RequiresIDAndType(t *testing.T) {
	svc := NewService(new(MockRepository), zerolog.Nop())
	assert.Equal(t, msgIDTypeRequired, validation.MessageOf(svc.Update(context.Background(), 0, FileInput{FileType: TypeImage})))
	assert.Equal(t, msgIDTypeRequired, validation.MessageOf(svc.Update(context.Background(), 4, FileInput{})))
}

func TestUpdate_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("UpdateFile", ctx, mock.Anything).Return(ErrNotFound)
	svc := NewService(repo, zerolog.Nop())

	assert.ErrorIs(t, svc.Update(ctx, 4, FileInput{FileType: TypeVideo}), ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	repo := new(MockRepository)
	repo.On("DeleteFile", ctx, int64(6)).Return(nil)
	svc := NewService(repo, zerolog.Nop())

	require.NoError(t, svc.Delete(ctx, 6))
	assert.ErrorIs(t, svc.Delete(ctx, 0), validation.ErrValidation)
}
