package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/royalhouse/server/internal/domain/media"
)

type MediaRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

const mediaColumns = `id, file_url, file_type, update_id, is_primary, title, subtitle, description, created_at`

func (r *MediaRepository) queryer() queryer {
	return pick(r.pool, r.tx)
}

// ListFiles returns files newest first, optionally restricted to types.
func (r *MediaRepository) ListFiles(ctx context.Context, types []media.FileType) ([]media.File, error) {
	var filter []string
	if len(types) > 0 {
		filter = make([]string, len(types))
		for i, t := range types {
			filter[i] = string(t)
		}
	}

	rows, err := r.queryer().Query(ctx, `
SELECT `+mediaColumns+`
  FROM media_files
 WHERE $1::text[] IS NULL OR file_type = ANY($1)
 ORDER BY id DESC
`, filter)
	if err != nil {
		return nil, fmt.Errorf("query media: %w", err)
	}
	return collectFiles(rows)
}

func (r *MediaRepository) CreateFile(ctx context.Context, f media.File) (int64, error) {
	var id int64
	err := r.queryer().QueryRow(ctx, `
INSERT INTO media_files (update_id, file_url, file_type, is_primary, title, subtitle, description)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id
`, f.UpdateID, f.FileURL, string(f.FileType), f.IsPrimary, f.Title, f.SubTitle, f.Description).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert media: %w", err)
	}
	return id, nil
}

// CountByType counts files of fileType other than excludeID.
func (r *MediaRepository) CountByType(ctx context.Context, fileType media.FileType, excludeID int64) (int, error) {
	var count int
	err := r.queryer().QueryRow(ctx,
		`SELECT count(*) FROM media_files WHERE file_type = $1 AND id <> $2`,
		string(fileType), excludeID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count media: %w", err)
	}
	return count, nil
}

func (r *MediaRepository) UpdateFile(ctx context.Context, f media.File) error {
	tag, err := r.queryer().Exec(ctx, `
UPDATE media_files
   SET file_type = $2,
       title = $3,
       subtitle = $4,
       description = $5,
       file_url = COALESCE(NULLIF($6, ''), file_url)
 WHERE id = $1
`, f.ID, string(f.FileType), f.Title, f.SubTitle, f.Description, f.FileURL)
	if err != nil {
		return fmt.Errorf("update media: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return media.ErrNotFound
	}
	return nil
}

func (r *MediaRepository) DeleteFile(ctx context.Context, id int64) error {
	if _, err := r.queryer().Exec(ctx, `DELETE FROM media_files WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete media: %w", err)
	}
	return nil
}

func collectFiles(rows pgx.Rows) ([]media.File, error) {
	defer rows.Close()

	files := make([]media.File, 0)
	for rows.Next() {
		var (
			f        media.File
			fileType string
		)
		if err := rows.Scan(
			&f.ID,
			&f.FileURL,
			&fileType,
			&f.UpdateID,
			&f.IsPrimary,
			&f.Title,
			&f.SubTitle,
			&f.Description,
			&f.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		f.FileType = media.FileType(fileType)
		files = append(files, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate media: %w", err)
	}
	return files, nil
}
