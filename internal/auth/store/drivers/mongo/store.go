// Package mongo stores each workspace in its own MongoDB database, named
// after the workspace code. The workspace registry lives in a central
// database.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/qwanyx/qwanyx/internal/auth/store"
)

const (
	DefaultCentralDB = "qwanyx_central"

	colWorkspaces = "workspaces"
	colUsers      = "users"
	colAuthCodes  = "auth_codes"
	colSessions   = "sessions"
	colContacts   = "contacts"
)

type Store struct {
	client  *mongo.Client
	central *mongo.Database
}

var _ store.Store = (*Store)(nil)

// NewStore connects to uri and verifies the connection with a primary ping.
func NewStore(ctx context.Context, uri, centralDB string) (*Store, error) {
	if centralDB == "" {
		centralDB = DefaultCentralDB
	}

	opts := options.Client().
		ApplyURI(uri).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true}).
		SetServerSelectionTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	return &Store{client: client, central: client.Database(centralDB)}, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// EnsureSchema indexes the central registry.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.central.Collection(colWorkspaces).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "is_active", Value: 1}},
	})
	return err
}

func (s *Store) Workspaces() store.Workspaces {
	return &workspacesRepo{col: s.central.Collection(colWorkspaces)}
}

func (s *Store) Tenant(code string) store.Tenant {
	return &tenant{code: code, db: s.client.Database(code)}
}

type tenant struct {
	code string
	db   *mongo.Database
}

func (t *tenant) Code() string { return t.code }

func (t *tenant) Users() store.Users {
	return &usersRepo{col: t.db.Collection(colUsers)}
}

func (t *tenant) AuthCodes() store.AuthCodes {
	return &authCodesRepo{col: t.db.Collection(colAuthCodes)}
}

func (t *tenant) Sessions() store.Sessions {
	return &sessionsRepo{col: t.db.Collection(colSessions)}
}

func (t *tenant) Contacts() store.Contacts {
	return &contactsRepo{col: t.db.Collection(colContacts)}
}

// EnsureIndexes creates the unique email index and lets MongoDB expire auth
// codes at their expires_at instant.
func (t *tenant) EnsureIndexes(ctx context.Context) error {
	if _, err := t.db.Collection(colUsers).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}); err != nil {
		return fmt.Errorf("users indexes: %w", err)
	}

	if _, err := t.db.Collection(colAuthCodes).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "code", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("auth_codes indexes: %w", err)
	}

	if _, err := t.db.Collection(colSessions).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "login_at", Value: -1}},
	}); err != nil {
		return fmt.Errorf("sessions indexes: %w", err)
	}
	return nil
}

func mapNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}
