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

type accessRepository struct {
	coll *mongo.Collection
}

func pairQuery(patientID, doctorID uuid.UUID) bson.M {
	return bson.M{"patient_id": patientID.String(), "doctor_id": doctorID.String()}
}

func (r *accessRepository) Create(ctx context.Context, perm *model.AccessPermission) error {
	_, err := r.coll.InsertOne(ctx, toAccessDocument(perm))
	return translate(err, "grant access")
}

func (r *accessRepository) Get(ctx context.Context, patientID, doctorID uuid.UUID) (*model.AccessPermission, error) {
	var doc accessDocument
	if err := r.coll.FindOne(ctx, pairQuery(patientID, doctorID)).Decode(&doc); err != nil {
		return nil, translate(err, "get access")
	}
	return doc.toModel()
}

func (r *accessRepository) Delete(ctx context.Context, patientID, doctorID uuid.UUID) error {
	res, err := r.coll.DeleteOne(ctx, pairQuery(patientID, doctorID))
	if err != nil {
		return translate(err, "revoke access")
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("failed to revoke access: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *accessRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.AccessPermission, error) {
	return r.list(ctx, bson.M{"patient_id": patientID.String()})
}

func (r *accessRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.AccessPermission, error) {
	return r.list(ctx, bson.M{"doctor_id": doctorID.String()})
}

func (r *accessRepository) list(ctx context.Context, q bson.M) ([]*model.AccessPermission, error) {
	cur, err := r.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "granted_at", Value: -1}}))
	if err != nil {
		return nil, translate(err, "list access")
	}

	var docs []accessDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "decode access")
	}

	perms := make([]*model.AccessPermission, 0, len(docs))
	for i := range docs {
		p, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		perms = append(perms, p)
	}
	return perms, nil
}
