package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/royalhouse/server/internal/domain/media"
	"github.com/royalhouse/server/internal/domain/updates"
)

func TestUpdatesServiceCreateAndGetEmbedsMedia(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t)
	service := updates.NewService(&UpdatesRepository{pool: pool}, zerolog.Nop())

	id, err := service.Create(ctx, updates.UpdateInput{
		Type:     "NEWS",
		Title:    "Coronation day",
		Content:  strPtr("<p>All are welcome</p>"),
		IsActive: true,
		Media: []updates.MediaInput{
			{FileURL: "/uploads/1.png", IsPrimary: true},
			{FileURL: "/uploads/2.mp4", FileType: media.TypeVideo},
		},
	})
	require.NoError(t, err)

	got, err := service.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Coronation day", got.Title)
	assert.True(t, got.IsActive)
	require.Len(t, got.Media, 2)
	assert.True(t, got.Media[0].IsPrimary)
	assert.Equal(t, media.TypeImage, got.Media[0].FileType)
	assert.Equal(t, media.TypeVideo, got.Media[1].FileType)
	require.NotNil(t, got.Media[0].UpdateID)
	assert.Equal(t, id, *got.Media[0].UpdateID)
}

func TestUpdatesServiceDeleteRemovesChildMedia(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t)
	service := updates.NewService(&UpdatesRepository{pool: pool}, zerolog.Nop())

	id, err := service.Create(ctx, updates.UpdateInput{
		Type:  "EVENT",
		Title: "Investiture",
		Media: []updates.MediaInput{{FileURL: "/uploads/a.png"}, {FileURL: "/uploads/b.png"}},
	})
	require.NoError(t, err)

	gallery := &MediaRepository{pool: pool}
	_, err = gallery.CreateFile(ctx, media.File{FileURL: "/uploads/gallery.png", FileType: media.TypeImage})
	require.NoError(t, err)

	require.NoError(t, service.Delete(ctx, id))

	assert.Zero(t, countRows(t, pool, `SELECT count(*) FROM media_files WHERE update_id = $1`, id))
	assert.Zero(t, countRows(t, pool, `SELECT count(*) FROM app_updates`))
	assert.Equal(t, 1, countRows(t, pool, `SELECT count(*) FROM media_files`), "gallery files survive")

	_, err = service.Get(ctx, id)
	assert.ErrorIs(t, err, updates.ErrNotFound)
}

func TestUpdatesRepositoryWithTxRollsBack(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t)
	repo := &UpdatesRepository{pool: pool}

	boom := errors.New("boom")
	err := repo.WithTx(ctx, func(ctx context.Context, tx updates.Repository) error {
		id, err := tx.CreateUpdate(ctx, updates.Update{Type: "NEWS", Title: "Draft"})
		require.NoError(t, err)
		require.NoError(t, tx.AttachMedia(ctx, id, media.File{FileURL: "/x", FileType: media.TypeImage}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	assert.Zero(t, countRows(t, pool, `SELECT count(*) FROM app_updates`))
	assert.Zero(t, countRows(t, pool, `SELECT count(*) FROM media_files`))
}

func TestUpdatesRepositoryListAndReplace(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t)
	repo := &UpdatesRepository{pool: pool}

	first, err := repo.CreateUpdate(ctx, updates.Update{Type: "NEWS", Title: "Older"})
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `UPDATE app_updates SET published_at = now() - interval '1 day' WHERE id = $1`, first)
	require.NoError(t, err)
	_, err = repo.CreateUpdate(ctx, updates.Update{Type: "NEWS", Title: "Newer"})
	require.NoError(t, err)

	list, err := repo.ListUpdates(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Newer", list[0].Title)
	assert.Equal(t, "Older", list[1].Title)
	assert.False(t, list[0].IsActive, "updates start inactive unless flagged")

	require.NoError(t, repo.ReplaceUpdate(ctx, updates.Update{
		ID:         first,
		Type:       "EVENT",
		Title:      "Renamed",
		IsActive:   true,
		ActionLink: strPtr("https://example.org/rsvp"),
		ActionText: strPtr("RSVP"),
	}))

	got, err := repo.GetUpdate(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, "EVENT", got.Type)
	require.NotNil(t, got.ActionText)
	assert.Equal(t, "RSVP", *got.ActionText)

	err = repo.ReplaceUpdate(ctx, updates.Update{ID: first + 100, Type: "NEWS", Title: "x"})
	assert.ErrorIs(t, err, updates.ErrNotFound)
}
