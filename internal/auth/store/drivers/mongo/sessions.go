package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/qwanyx/qwanyx/internal/auth/domain"
)

type sessionsRepo struct {
	col *mongo.Collection
}

func (r *sessionsRepo) CreateSession(ctx context.Context, s domain.Session) error {
	_, err := r.col.InsertOne(ctx, sessionDoc(s))
	return err
}

func (r *sessionsRepo) ListUserSessions(ctx context.Context, userID string, limit int) ([]domain.Session, error) {
	opts := options.Find().SetSort(bson.D{{Key: "login_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	var docs []sessionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.Session, 0, len(docs))
	for _, d := range docs {
		d.LoginAt = d.LoginAt.UTC()
		out = append(out, domain.Session(d))
	}
	return out, nil
}

type contactsRepo struct {
	col *mongo.Collection
}

func (r *contactsRepo) CreateContact(ctx context.Context, c domain.Contact) error {
	_, err := r.col.InsertOne(ctx, contactDoc(c))
	return err
}
