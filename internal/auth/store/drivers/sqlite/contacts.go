package sqlite

import (
	"context"
	"database/sql"

	"github.com/qwanyx/qwanyx/internal/auth/domain"
)

type contactsRepo struct {
	ws string
	db *sql.DB
}

func (r *contactsRepo) CreateContact(ctx context.Context, c domain.Contact) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (workspace, id, name, email, phone, subject, message, ip, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ws, c.ID, c.Name, c.Email, c.Phone, c.Subject, c.Message, c.IP, toUnix(c.CreatedAt))
	return err
}
