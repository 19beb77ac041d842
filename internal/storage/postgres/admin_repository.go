package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/royalhouse/server/internal/domain/admins"
	"github.com/royalhouse/server/internal/domain/login"
)

// AdminRepository serves both the allow-list and the OTP credential columns
// of admin_users.
type AdminRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func (r *AdminRepository) queryer() queryer {
	return pick(r.pool, r.tx)
}

func (r *AdminRepository) ListAdmins(ctx context.Context) ([]admins.Admin, error) {
	rows, err := r.queryer().Query(ctx, `SELECT id, email, created_at FROM admin_users ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("query admins: %w", err)
	}
	defer rows.Close()

	list := make([]admins.Admin, 0)
	for rows.Next() {
		var a admins.Admin
		if err := rows.Scan(&a.ID, &a.Email, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan admin: %w", err)
		}
		list = append(list, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate admins: %w", err)
	}
	return list, nil
}

func (r *AdminRepository) CreateAdmin(ctx context.Context, email string) (admins.Admin, error) {
	a := admins.Admin{Email: email}
	err := r.queryer().QueryRow(ctx,
		`INSERT INTO admin_users (email) VALUES ($1) RETURNING id, created_at`, email,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return admins.Admin{}, admins.ErrEmailExists
		}
		return admins.Admin{}, fmt.Errorf("insert admin: %w", err)
	}
	return a, nil
}

func (r *AdminRepository) DeleteAdmin(ctx context.Context, id int64) error {
	if _, err := r.queryer().Exec(ctx, `DELETE FROM admin_users WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	return nil
}

func (r *AdminRepository) FindAccountByEmail(ctx context.Context, email string) (*login.Account, error) {
	var acc login.Account
	err := r.queryer().QueryRow(ctx,
		`SELECT id, email, otp_expiry FROM admin_users WHERE email = $1`, email,
	).Scan(&acc.ID, &acc.Email, &acc.OTPExpiry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, login.ErrUnknownEmail
		}
		return nil, fmt.Errorf("find admin by email: %w", err)
	}
	return &acc, nil
}

func (r *AdminRepository) StoreOTP(ctx context.Context, adminID int64, code string, expiry time.Time) error {
	tag, err := r.queryer().Exec(ctx,
		`UPDATE admin_users SET otp = $2, otp_expiry = $3 WHERE id = $1`, adminID, code, expiry,
	)
	if err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return login.ErrUnknownEmail
	}
	return nil
}

// FindAccountByOTP matches email and code exactly. Expiry is left to the caller.
func (r *AdminRepository) FindAccountByOTP(ctx context.Context, email, code string) (*login.Account, error) {
	var acc login.Account
	err := r.queryer().QueryRow(ctx,
		`SELECT id, email, otp_expiry FROM admin_users WHERE email = $1 AND otp = $2`, email, code,
	).Scan(&acc.ID, &acc.Email, &acc.OTPExpiry)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, login.ErrInvalidCode
		}
		return nil, fmt.Errorf("find admin by otp: %w", err)
	}
	return &acc, nil
}

func (r *AdminRepository) ClearOTP(ctx context.Context, adminID int64) error {
	if _, err := r.queryer().Exec(ctx, `UPDATE admin_users SET otp = NULL, otp_expiry = NULL WHERE id = $1`, adminID); err != nil {
		return fmt.Errorf("clear otp: %w", err)
	}
	return nil
}
