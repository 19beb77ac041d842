package postgres

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/royalhouse/server/internal/domain/media"
	"github.com/royalhouse/server/internal/validation"
)

func TestMediaRepositoryListFilters(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t)
	repo := &MediaRepository{pool: pool}

	for _, ft := range []media.FileType{media.TypeImage, media.TypeFeaturedImage, media.TypeVideo, media.TypeFeaturedVideo} {
		_, err := repo.CreateFile(ctx, media.File{FileURL: "/uploads/" + string(ft), FileType: ft})
		require.NoError(t, err)
	}

	all, err := repo.ListFiles(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, media.TypeFeaturedVideo, all[0].FileType, "newest first")

	featured, err := repo.ListFiles(ctx, []media.FileType{media.TypeFeaturedImage, media.TypeFeaturedVideo})
	require.NoError(t, err)
	require.Len(t, featured, 2)
	for _, f := range featured {
		assert.Contains(t, []media.FileType{media.TypeFeaturedImage, media.TypeFeaturedVideo}, f.FileType)
	}

	videos, err := repo.ListFiles(ctx, []media.FileType{media.TypeVideo})
	require.NoError(t, err)
	require.Len(t, videos, 1)
}

func TestMediaRepositoryUpdateKeepsURLWhenEmpty(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t)
	repo := &MediaRepository{pool: pool}

	id, err := repo.CreateFile(ctx, media.File{FileURL: "/uploads/a.png", FileType: media.TypeImage})
	require.NoError(t, err)

	require.NoError(t, repo.UpdateFile(ctx, media.File{ID: id, FileType: media.TypeImage, Title: "Crest", SubTitle: "Seal"}))

	files, err := repo.ListFiles(ctx, nil)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "/uploads/a.png", files[0].FileURL)
	assert.Equal(t, "Crest", files[0].Title)
	assert.Equal(t, "Seal", files[0].SubTitle)

	err = repo.UpdateFile(ctx, media.File{ID: id + 100, FileType: media.TypeImage})
	assert.ErrorIs(t, err, media.ErrNotFound)
}

func TestMediaRepositoryCountByTypeExcludesSelf(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t)
	repo := &MediaRepository{pool: pool}

	first, err := repo.CreateFile(ctx, media.File{FileURL: "/a", FileType: media.TypeFeaturedImage})
	require.NoError(t, err)
	_, err = repo.CreateFile(ctx, media.File{FileURL: "/b", FileType: media.TypeFeaturedImage})
	require.NoError(t, err)

	count, err := repo.CountByType(ctx, media.TypeFeaturedImage, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	count, err = repo.CountByType(ctx, media.TypeFeaturedImage, first)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

// With four featured images stored, retyping a fifth file is refused while a
// direct insert still succeeds.
func TestMediaServiceFeaturedQuotaOnUpdateOnly(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t)
	service := media.NewService(&MediaRepository{pool: pool}, zerolog.Nop())

	for i := 0; i < media.MaxFeaturedImages; i++ {
		_, err := service.Create(ctx, media.FileInput{FileURL: "/uploads/f.png", FileType: media.TypeFeaturedImage})
		require.NoError(t, err)
	}

	extra, err := service.Create(ctx, media.FileInput{FileURL: "/uploads/g.png", FileType: media.TypeImage})
	require.NoError(t, err)

	err = service.Update(ctx, extra, media.FileInput{FileType: media.TypeFeaturedImage})
	require.ErrorIs(t, err, validation.ErrValidation)
	assert.Equal(t, "Limit reached: Maximum 4 Featured Images allowed.", validation.MessageOf(err))

	_, err = service.Create(ctx, media.FileInput{FileURL: "/uploads/h.png", FileType: media.TypeFeaturedImage})
	require.NoError(t, err)
	assert.Equal(t, 5, countRows(t, pool, `SELECT count(*) FROM media_files WHERE file_type = 'FIMG'`))
}

func TestMediaRepositoryDelete(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t)
	repo := &MediaRepository{pool: pool}

	id, err := repo.CreateFile(ctx, media.File{FileURL: "/a", FileType: media.TypeImage})
	require.NoError(t, err)

	require.NoError(t, repo.DeleteFile(ctx, id))
	require.NoError(t, repo.DeleteFile(ctx, id), "deleting a missing row is not an error")
	assert.Zero(t, countRows(t, pool, `SELECT count(*) FROM media_files`))
}
