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

type usersRepo struct {
	col *mongo.Collection
}

func (r *usersRepo) findOne(ctx context.Context, filter bson.M) (domain.User, error) {
	var d userDoc
	if err := r.col.FindOne(ctx, filter).Decode(&d); err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return d.domain(), nil
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.col.InsertOne(ctx, toUserDoc(u))
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *usersRepo) MergeProfile(ctx context.Context, userID string, fields domain.Profile, now time.Time) (domain.User, error) {
	set := bson.M{"updated_at": now}
	for k, v := range fields {
		set["profile."+k] = v
	}

	var d userDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		return domain.User{}, mapNotFound(err)
	}
	return d.domain(), nil
}

// FillProfile adds each missing key with its own conditional update, so a
// concurrent writer of the same key always keeps its value.
func (r *usersRepo) FillProfile(ctx context.Context, userID string, fields domain.Profile, now time.Time) (domain.User, error) {
	for k, v := range fields {
		path := "profile." + k
		_, err := r.col.UpdateOne(ctx,
			bson.M{"_id": userID, path: bson.M{"$exists": false}},
			bson.M{"$set": bson.M{path: v, "updated_at": now}},
		)
		if err != nil {
			return domain.User{}, err
		}
	}
	return r.GetUserByID(ctx, userID)
}

func (r *usersRepo) SetUserActive(ctx context.Context, userID string, active bool, now time.Time) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"is_active": active, "updated_at": now}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) TouchLogin(ctx context.Context, userID string, a domain.Activity) error {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$set": bson.M{"last_login": a.At},
			"$push": bson.M{"activity": bson.M{
				"$each":  []activityDoc{activityDoc(a)},
				"$slice": -domain.MaxActivity,
			}},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) DeleteUser(ctx context.Context, userID string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": userID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *usersRepo) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{"activity": 0}).
		SetSkip(int64(max(offset, 0)))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]domain.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.domain())
	}
	return out, nil
}

func (r *usersRepo) CountUsers(ctx context.Context) (int, error) {
	n, err := r.col.CountDocuments(ctx, bson.M{})
	return int(n), err
}
