package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/royalhouse/server/internal/domain/media"
	"github.com/royalhouse/server/internal/domain/updates"
)

type UpdatesRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

const updateColumns = `id, type, title, content, is_active, action_link, action_text, published_at`

func (r *UpdatesRepository) queryer() queryer {
	return pick(r.pool, r.tx)
}

func (r *UpdatesRepository) WithTx(ctx context.Context, fn func(context.Context, updates.Repository) error) error {
	if r.tx != nil {
		return fn(ctx, r)
	}
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &UpdatesRepository{pool: r.pool, tx: tx})
	})
}

func (r *UpdatesRepository) ListUpdates(ctx context.Context, limit, offset int) ([]updates.Update, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+updateColumns+`
  FROM app_updates
 ORDER BY published_at DESC, id DESC
 LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query updates: %w", err)
	}
	defer rows.Close()

	items := make([]updates.Update, 0)
	for rows.Next() {
		u, err := scanUpdate(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate updates: %w", err)
	}
	return items, nil
}

func (r *UpdatesRepository) GetUpdate(ctx context.Context, id int64) (*updates.Update, error) {
	u, err := scanUpdate(r.queryer().QueryRow(ctx, `SELECT `+updateColumns+` FROM app_updates WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, updates.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *UpdatesRepository) ListUpdateMedia(ctx context.Context, updateID int64) ([]media.File, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+mediaColumns+`
  FROM media_files
 WHERE update_id = $1
 ORDER BY is_primary DESC, id ASC
`, updateID)
	if err != nil {
		return nil, fmt.Errorf("query update media: %w", err)
	}
	return collectFiles(rows)
}

func (r *UpdatesRepository) CreateUpdate(ctx context.Context, u updates.Update) (int64, error) {
	var id int64
	err := r.queryer().QueryRow(ctx, `
INSERT INTO app_updates (type, title, content, is_active, action_link, action_text, published_at)
VALUES ($1, $2, $3, $4, $5, $6, now())
RETURNING id
`, u.Type, u.Title, u.Content, u.IsActive, u.ActionLink, u.ActionText).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert update: %w", err)
	}
	return id, nil
}

func (r *UpdatesRepository) AttachMedia(ctx context.Context, updateID int64, f media.File) error {
	_, err := r.queryer().Exec(ctx, `
INSERT INTO media_files (update_id, file_type, file_url, is_primary, title, description)
VALUES ($1, $2, $3, $4, $5, $6)
`, updateID, string(f.FileType), f.FileURL, f.IsPrimary, f.Title, f.Description)
	if err != nil {
		return fmt.Errorf("insert update media: %w", err)
	}
	return nil
}

func (r *UpdatesRepository) ReplaceUpdate(ctx context.Context, u updates.Update) error {
	tag, err := r.queryer().Exec(ctx, `
UPDATE app_updates
   SET type = $2,
       title = $3,
       content = $4,
       is_active = $5,
       action_link = $6,
       action_text = $7
 WHERE id = $1
`, u.ID, u.Type, u.Title, u.Content, u.IsActive, u.ActionLink, u.ActionText)
	if err != nil {
		return fmt.Errorf("update update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return updates.ErrNotFound
	}
	return nil
}

func (r *UpdatesRepository) DeleteUpdateMedia(ctx context.Context, updateID int64) error {
	if _, err := r.queryer().Exec(ctx, `DELETE FROM media_files WHERE update_id = $1`, updateID); err != nil {
		return fmt.Errorf("delete update media: %w", err)
	}
	return nil
}

func (r *UpdatesRepository) DeleteUpdate(ctx context.Context, id int64) error {
	if _, err := r.queryer().Exec(ctx, `DELETE FROM app_updates WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete update: %w", err)
	}
	return nil
}

func scanUpdate(row pgx.Row) (updates.Update, error) {
	var u updates.Update
	if err := row.Scan(
		&u.ID,
		&u.Type,
		&u.Title,
		&u.Content,
		&u.IsActive,
		&u.ActionLink,
		&u.ActionText,
		&u.PublishedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return u, err
		}
		return u, fmt.Errorf("scan update: %w", err)
	}
	return u, nil
}
