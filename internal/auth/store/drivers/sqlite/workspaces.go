package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/qwanyx/qwanyx/internal/auth/domain"
	"github.com/qwanyx/qwanyx/internal/auth/store"
)

type workspacesRepo struct {
	db *sql.DB
}

const workspaceColumns = `code, name, domain, admin_email, is_active, created_at, updated_at`

func scanWorkspace(row rowScanner) (domain.Workspace, error) {
	var (
		w       domain.Workspace
		active  int
		created int64
		updated int64
	)
	if err := row.Scan(&w.Code, &w.Name, &w.Domain, &w.AdminEmail, &active, &created, &updated); err != nil {
		return domain.Workspace{}, err
	}
	w.IsActive = active != 0
	w.CreatedAt = fromUnix(created)
	w.UpdatedAt = fromUnix(updated)
	return w, nil
}

func (r *workspacesRepo) CreateWorkspace(ctx context.Context, w domain.Workspace) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workspaces (`+workspaceColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		w.Code, w.Name, w.Domain, w.AdminEmail, boolInt(w.IsActive), toUnix(w.CreatedAt), toUnix(w.UpdatedAt))
	if isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *workspacesRepo) GetWorkspace(ctx context.Context, code string) (domain.Workspace, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE code = ?`, code)
	w, err := scanWorkspace(row)
	if err != nil {
		return domain.Workspace{}, mapNotFound(err)
	}
	return w, nil
}

func (r *workspacesRepo) ListWorkspaces(ctx context.Context, activeOnly bool) ([]domain.Workspace, error) {
	q := `SELECT ` + workspaceColumns + ` FROM workspaces`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY code`

	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Workspace
	for rows.Next() {
		w, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *workspacesRepo) SetWorkspaceActive(ctx context.Context, code string, active bool, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE workspaces SET is_active = ?, updated_at = ? WHERE code = ?`,
		boolInt(active), toUnix(now), code)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return store.ErrNotFound
	}
	return nil
}
