package mongo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jwalitptl/medicare-api/internal/model"
	"github.com/jwalitptl/medicare-api/internal/repository"
)

type userRepository struct {
	coll *mongo.Collection
}

func userQuery(f model.UserFilter) bson.M {
	q := bson.M{}
	if f.Role != "" {
		q["role"] = string(f.Role)
	}
	if f.Verified != nil {
		q["is_verified"] = *f.Verified
	}
	if !f.CreatedSince.IsZero() {
		q["created_at"] = bson.M{"$gte": f.CreatedSince}
	}
	return q
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	_, err := r.coll.InsertOne(ctx, toUserDocument(user))
	return translate(err, "create user")
}

func (r *userRepository) findOne(ctx context.Context, q bson.M) (*model.User, error) {
	var doc userDocument
	if err := r.coll.FindOne(ctx, q).Decode(&doc); err != nil {
		return nil, translate(err, "get user")
	}
	return doc.toModel()
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *userRepository) ExistsByNMCUID(ctx context.Context, nmcUID string) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{"nmc_uid": nmcUID}, options.Count().SetLimit(1))
	if err != nil {
		return false, translate(err, "check nmc uid")
	}
	return n > 0, nil
}

func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": user.ID.String()}, toUserDocument(user))
	if err != nil {
		return translate(err, "update user")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("failed to update user: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return translate(err, "delete user")
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("failed to delete user: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *userRepository) List(ctx context.Context, filter model.UserFilter) ([]*model.User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.coll.Find(ctx, userQuery(filter), opts)
	if err != nil {
		return nil, translate(err, "list users")
	}

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "decode users")
	}

	users := make([]*model.User, 0, len(docs))
	for i := range docs {
		u, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context, filter model.UserFilter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, userQuery(filter))
	return n, translate(err, "count users")
}
