package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/qwanyx/qwanyx/internal/auth/domain"
	"github.com/qwanyx/qwanyx/internal/auth/store"
)

type usersRepo struct {
	ws string
	db *sql.DB
}

const userColumns = `id, email, is_active, auth_method, profile, last_login, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (domain.User, error) {
	var (
		u         domain.User
		active    int
		profile   string
		lastLogin sql.NullInt64
		created   int64
		updated   int64
	)
	if err := row.Scan(&u.ID, &u.Email, &active, &u.AuthMethod, &profile, &lastLogin, &created, &updated); err != nil {
		return domain.User{}, err
	}
	if err := json.Unmarshal([]byte(profile), &u.Profile); err != nil {
		return domain.User{}, fmt.Errorf("decode profile of %s: %w", u.ID, err)
	}
	if u.Profile == nil {
		u.Profile = domain.Profile{}
	}
	u.IsActive = active != 0
	u.LastLogin = mapNullTimePtr(lastLogin)
	u.CreatedAt = fromUnix(created)
	u.UpdatedAt = fromUnix(updated)
	return u, nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE workspace = ? AND id = ?`, r.ws, id)
	return r.withActivity(ctx, row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE workspace = ? AND email = ?`, r.ws, email)
	return r.withActivity(ctx, row)
}

func (r *usersRepo) withActivity(ctx context.Context, row *sql.Row) (domain.User, error) {
	u, err := scanUser(row)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT type, at, ip, user_agent FROM user_activity
		 WHERE workspace = ? AND user_id = ? ORDER BY id ASC`, r.ws, u.ID)
	if err != nil {
		return domain.User{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			a  domain.Activity
			at int64
		)
		if err := rows.Scan(&a.Type, &at, &a.IP, &a.UserAgent); err != nil {
			return domain.User{}, err
		}
		a.At = fromUnix(at)
		u.Activity = append(u.Activity, a)
	}
	return u, rows.Err()
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	profile := u.Profile
	if profile == nil {
		profile = domain.Profile{}
	}
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO users (workspace, id, email, is_active, auth_method, profile, last_login, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ws, u.ID, u.Email, boolInt(u.IsActive), u.AuthMethod, string(raw),
			mapOptionalTime(u.LastLogin), toUnix(u.CreatedAt), toUnix(u.UpdatedAt))
		if isUniqueViolation(err) {
			return store.ErrAlreadyExists
		}
		if err != nil {
			return err
		}

		for _, a := range tail(u.Activity, domain.MaxActivity) {
			if err := insertActivity(ctx, tx, r.ws, u.ID, a); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *usersRepo) MergeProfile(ctx context.Context, userID string, fields domain.Profile, now time.Time) (domain.User, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return domain.User{}, fmt.Errorf("encode profile: %w", err)
	}

	// json_patch merges in one statement so concurrent merges of different
	// keys do not overwrite each other.
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET profile = json_patch(profile, ?), updated_at = ?
		 WHERE workspace = ? AND id = ?`,
		string(raw), toUnix(now), r.ws, userID)
	if err != nil {
		return domain.User{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.User{}, store.ErrNotFound
	}
	return r.GetUserByID(ctx, userID)
}

func (r *usersRepo) FillProfile(ctx context.Context, userID string, fields domain.Profile, now time.Time) (domain.User, error) {
	raw, err := json.Marshal(fields)
	if err != nil {
		return domain.User{}, fmt.Errorf("encode profile: %w", err)
	}

	// Stored values win the patch; the row is only touched when at least one
	// key is missing.
	_, err = r.db.ExecContext(ctx,
		`UPDATE users SET profile = json_patch(?1, profile), updated_at = ?2
		 WHERE workspace = ?3 AND id = ?4
		   AND EXISTS (
		       SELECT 1 FROM json_each(?1) AS f
		       WHERE json_type(users.profile, '$."' || f.key || '"') IS NULL
		   )`,
		string(raw), toUnix(now), r.ws, userID)
	if err != nil {
		return domain.User{}, err
	}
	return r.GetUserByID(ctx, userID)
}

func (r *usersRepo) SetUserActive(ctx context.Context, userID string, active bool, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_active = ?, updated_at = ? WHERE workspace = ? AND id = ?`,
		boolInt(active), toUnix(now), r.ws, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) TouchLogin(ctx context.Context, userID string, a domain.Activity) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET last_login = ? WHERE workspace = ? AND id = ?`,
			toUnix(a.At), r.ws, userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return store.ErrNotFound
		}

		if err := insertActivity(ctx, tx, r.ws, userID, a); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`DELETE FROM user_activity
			 WHERE workspace = ? AND user_id = ? AND id NOT IN (
			     SELECT id FROM user_activity
			     WHERE workspace = ? AND user_id = ?
			     ORDER BY id DESC LIMIT ?
			 )`,
			r.ws, userID, r.ws, userID, domain.MaxActivity)
		return err
	})
}

func insertActivity(ctx context.Context, tx *sql.Tx, ws, userID string, a domain.Activity) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO user_activity (workspace, user_id, type, at, ip, user_agent)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ws, userID, a.Type, toUnix(a.At), a.IP, a.UserAgent)
	return err
}

func tail(a []domain.Activity, n int) []domain.Activity {
	if len(a) > n {
		return a[len(a)-n:]
	}
	return a
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE workspace = ? AND id = ?`, r.ws, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE workspace = ?
		 ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		r.ws, limit, max(offset, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *usersRepo) CountUsers(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE workspace = ?`, r.ws).Scan(&n)
	return n, err
}
