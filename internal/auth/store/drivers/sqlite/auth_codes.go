package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/qwanyx/qwanyx/internal/auth/domain"
)

type authCodesRepo struct {
	ws string
	db *sql.DB
}

func (r *authCodesRepo) CreateAuthCode(ctx context.Context, c domain.AuthCode) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO auth_codes (workspace, id, email, code, created_at, expires_at, used, used_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ws, c.ID, c.Email, c.Code, toUnix(c.CreatedAt), toUnix(c.ExpiresAt),
		boolInt(c.Used), mapOptionalTime(c.UsedAt))
	return err
}

// ConsumeAuthCode flips exactly one matching row in a single statement. When
// the same value was issued twice, the oldest outstanding row is consumed.
func (r *authCodesRepo) ConsumeAuthCode(ctx context.Context, email, code string, now time.Time) (domain.AuthCode, error) {
	n := toUnix(now)
	row := r.db.QueryRowContext(ctx,
		`UPDATE auth_codes SET used = 1, used_at = ?
		 WHERE workspace = ? AND id = (
		     SELECT id FROM auth_codes
		     WHERE workspace = ? AND email = ? AND code = ? AND used = 0 AND expires_at > ?
		     ORDER BY created_at, id LIMIT 1
		 ) AND used = 0
		 RETURNING id, email, code, created_at, expires_at, used_at`,
		n, r.ws, r.ws, email, code, n)

	var (
		c       domain.AuthCode
		created int64
		expires int64
		usedAt  sql.NullInt64
	)
	if err := row.Scan(&c.ID, &c.Email, &c.Code, &created, &expires, &usedAt); err != nil {
		return domain.AuthCode{}, mapNotFound(err)
	}
	c.CreatedAt = fromUnix(created)
	c.ExpiresAt = fromUnix(expires)
	c.Used = true
	c.UsedAt = mapNullTimePtr(usedAt)
	return c, nil
}

func (r *authCodesRepo) DeleteExpiredAuthCodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM auth_codes WHERE workspace = ? AND expires_at <= ?`, r.ws, toUnix(now))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
