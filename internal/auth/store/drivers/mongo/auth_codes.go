package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/qwanyx/qwanyx/internal/auth/domain"
)

type authCodesRepo struct {
	col *mongo.Collection
}

func (r *authCodesRepo) CreateAuthCode(ctx context.Context, c domain.AuthCode) error {
	_, err := r.col.InsertOne(ctx, authCodeDoc(c))
	return err
}

// ConsumeAuthCode is a single findAndModify: the filter carries the whole
// validity condition, so two racing verifiers cannot both match.
func (r *authCodesRepo) ConsumeAuthCode(ctx context.Context, email, code string, now time.Time) (domain.AuthCode, error) {
	var d authCodeDoc
	err := r.col.FindOneAndUpdate(ctx,
		bson.M{
			"email":      email,
			"code":       code,
			"used":       false,
			"expires_at": bson.M{"$gt": now},
		},
		bson.M{"$set": bson.M{"used": true, "used_at": now}},
		options.FindOneAndUpdate().
			SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
			SetReturnDocument(options.After),
	).Decode(&d)
	if err != nil {
		return domain.AuthCode{}, mapNotFound(err)
	}
	return d.domain(), nil
}

func (r *authCodesRepo) DeleteExpiredAuthCodes(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lte": now}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
