package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/qwanyx/qwanyx/internal/auth/store"
	_ "modernc.org/sqlite"
)

// Store keeps every workspace in one SQLite file, partitioning tenant rows
// by a workspace column.
type Store struct {
	db  *sql.DB
	dsn string
}

var _ store.Store = (*Store)(nil)

func NewStore(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", withPragmas(dsn))
	if err != nil {
		return nil, err
	}

	// A single connection keeps per-connection pragmas in force and
	// serializes writers, which SQLite does anyway.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db, dsn: dsn}, nil
}

func withPragmas(dsn string) string {
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// EnsureSchema applies the embedded migrations and refuses a schema left
// dirty by an interrupted migration.
func (s *Store) EnsureSchema(_ context.Context) error {
	if err := s.ApplyMigrations(); err != nil {
		return err
	}
	if _, dirty, err := s.SchemaVersion(); err != nil {
		return err
	} else if dirty {
		return errors.New("sqlite schema is dirty, repair it before starting")
	}
	return nil
}

func (s *Store) Workspaces() store.Workspaces { return &workspacesRepo{db: s.db} }

func (s *Store) Tenant(code string) store.Tenant {
	return &tenant{code: code, db: s.db}
}

type tenant struct {
	code string
	db   *sql.DB
}

func (t *tenant) Code() string                { return t.code }
func (t *tenant) Users() store.Users          { return &usersRepo{ws: t.code, db: t.db} }
func (t *tenant) AuthCodes() store.AuthCodes  { return &authCodesRepo{ws: t.code, db: t.db} }
func (t *tenant) Sessions() store.Sessions    { return &sessionsRepo{ws: t.code, db: t.db} }
func (t *tenant) Contacts() store.Contacts    { return &contactsRepo{ws: t.code, db: t.db} }

// EnsureIndexes is a no-op: the indexes are part of the migrated schema.
func (t *tenant) EnsureIndexes(context.Context) error { return nil }

func mapNotFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

// isUniqueViolation matches SQLite's constraint error text. modernc reports
// "constraint failed: UNIQUE constraint failed: ..." (or PRIMARY KEY).
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}

// Timestamps are stored as unix nanoseconds.
func toUnix(t time.Time) int64 { return t.UTC().UnixNano() }

func fromUnix(n int64) time.Time { return time.Unix(0, n).UTC() }

func mapNullTimePtr(n sql.NullInt64) *time.Time {
	if n.Valid {
		t := fromUnix(n.Int64)
		return &t
	}
	return nil
}

func mapOptionalTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: toUnix(*t), Valid: true}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
