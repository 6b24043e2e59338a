package sqlite

import (
	"context"
	"database/sql"

	"github.com/qwanyx/qwanyx/internal/auth/domain"
)

type sessionsRepo struct {
	ws string
	db *sql.DB
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (workspace, id, user_id, login_at, auth_method, ip, user_agent)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		r.ws, s.ID, s.UserID, toUnix(s.LoginAt), s.AuthMethod, s.IP, s.UserAgent)
	return err
}

func (r *sessionsRepo) ListUserSessions(ctx context.Context, userID string, limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, login_at, auth_method, ip, user_agent FROM sessions
		 WHERE workspace = ? AND user_id = ?
		 ORDER BY login_at DESC, id DESC LIMIT ?`,
		r.ws, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Session
	for rows.Next() {
		var (
			s       domain.Session
			loginAt int64
		)
		if err := rows.Scan(&s.ID, &s.UserID, &loginAt, &s.AuthMethod, &s.IP, &s.UserAgent); err != nil {
			return nil, err
		}
		s.LoginAt = fromUnix(loginAt)
		out = append(out, s)
	}
	return out, rows.Err()
}
