package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/royalhouse/server/internal/domain/administration"
)

type AdministrationRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

const memberColumns = `id, name, role_title, category, display_order, is_active, bio, image_url, created_at, updated_at`

func (r *AdministrationRepository) queryer() queryer {
	return pick(r.pool, r.tx)
}

func (r *AdministrationRepository) ListMembers(ctx context.Context, limit, offset int) ([]administration.Member, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+memberColumns+`
  FROM royal_administration
 ORDER BY display_order ASC, created_at DESC
 LIMIT $1 OFFSET $2
`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := make([]administration.Member, 0)
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

func (r *AdministrationRepository) GetMember(ctx context.Context, id int64) (*administration.Member, error) {
	row := r.queryer().QueryRow(ctx, `SELECT `+memberColumns+` FROM royal_administration WHERE id = $1`, id)
	member, err := scanMember(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, administration.ErrNotFound
		}
		return nil, err
	}
	return &member, nil
}

// ActiveTitleTaken reports whether another active member already holds title,
// compared case-insensitively.
func (r *AdministrationRepository) ActiveTitleTaken(ctx context.Context, title string, excludeID int64) (bool, error) {
	var taken bool
	err := r.queryer().QueryRow(ctx, `
SELECT EXISTS (
    SELECT 1
      FROM royal_administration
     WHERE lower(role_title) = lower($1)
       AND is_active
       AND id <> $2
)`, title, excludeID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check active title: %w", err)
	}
	return taken, nil
}

func (r *AdministrationRepository) CreateMember(ctx context.Context, m administration.Member) (int64, error) {
	var id int64
	err := r.queryer().QueryRow(ctx, `
INSERT INTO royal_administration (name, role_title, category, display_order, is_active, bio, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id
`, m.Name, m.RoleTitle, string(m.Category), m.DisplayOrder, m.IsActive, m.Bio, m.ImageURL).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert member: %w", err)
	}
	return id, nil
}

func (r *AdministrationRepository) UpdateMember(ctx context.Context, m administration.Member) error {
	tag, err := r.queryer().Exec(ctx, `
UPDATE royal_administration
   SET name = $2,
       role_title = $3,
       category = $4,
       display_order = $5,
       is_active = $6,
       bio = $7,
       image_url = $8,
       updated_at = now()
 WHERE id = $1
`, m.ID, m.Name, m.RoleTitle, string(m.Category), m.DisplayOrder, m.IsActive, m.Bio, m.ImageURL)
	if err != nil {
		return fmt.Errorf("update member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return administration.ErrNotFound
	}
	return nil
}

func (r *AdministrationRepository) DeleteMember(ctx context.Context, id int64) error {
	if _, err := r.queryer().Exec(ctx, `DELETE FROM royal_administration WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	return nil
}

func scanMember(row pgx.Row) (administration.Member, error) {
	var (
		m        administration.Member
		category string
	)
	if err := row.Scan(
		&m.ID,
		&m.Name,
		&m.RoleTitle,
		&category,
		&m.DisplayOrder,
		&m.IsActive,
		&m.Bio,
		&m.ImageURL,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return m, err
		}
		return m, fmt.Errorf("scan member: %w", err)
	}
	m.Category = administration.Category(category)
	return m, nil
}
