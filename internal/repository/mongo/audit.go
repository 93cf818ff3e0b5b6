package mongo

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jwalitptl/medicare-api/internal/model"
)

type auditRepository struct {
	coll *mongo.Collection
}

func (r *auditRepository) Create(ctx context.Context, log *model.AuditLog) error {
	_, err := r.coll.InsertOne(ctx, toAuditDocument(log))
	return translate(err, "create audit log")
}

func (r *auditRepository) List(ctx context.Context, userID uuid.UUID, limit int) ([]*model.AuditLog, error) {
	q := bson.M{}
	if userID != uuid.Nil {
		q["user_id"] = userID.String()
	}

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.coll.Find(ctx, q, opts)
	if err != nil {
		return nil, translate(err, "list audit logs")
	}

	var docs []auditDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "decode audit logs")
	}

	logs := make([]*model.AuditLog, 0, len(docs))
	for i := range docs {
		l, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}
	return logs, nil
}
