package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/qwanyx/qwanyx/internal/auth/domain"
	"github.com/qwanyx/qwanyx/internal/auth/store"
)

type workspacesRepo struct {
	col *mongo.Collection
}

func (r *workspacesRepo) CreateWorkspace(ctx context.Context, w domain.Workspace) error {
	_, err := r.col.InsertOne(ctx, toWorkspaceDoc(w))
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *workspacesRepo) GetWorkspace(ctx context.Context, code string) (domain.Workspace, error) {
	var d workspaceDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": code}).Decode(&d); err != nil {
		return domain.Workspace{}, mapNotFound(err)
	}
	return d.domain(), nil
}

func (r *workspacesRepo) ListWorkspaces(ctx context.Context, activeOnly bool) ([]domain.Workspace, error) {
	filter := bson.M{}
	if activeOnly {
		filter["is_active"] = true
	}

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []workspaceDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.Workspace, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.domain())
	}
	return out, nil
}

func (r *workspacesRepo) SetWorkspaceActive(ctx context.Context, code string, active bool, now time.Time) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": code},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}
