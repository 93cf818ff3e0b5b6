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

type recordRepository struct {
	coll *mongo.Collection
}

func recordQuery(f model.RecordFilter) bson.M {
	q := bson.M{"is_deleted": false}
	if f.PatientID != uuid.Nil {
		q["patient_id"] = f.PatientID.String()
	}
	if !f.UploadedSince.IsZero() {
		q["uploaded_at"] = bson.M{"$gte": f.UploadedSince}
	}
	return q
}

func (r *recordRepository) Create(ctx context.Context, record *model.Record) error {
	_, err := r.coll.InsertOne(ctx, toRecordDocument(record))
	return translate(err, "create record")
}

func (r *recordRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Record, error) {
	var doc recordDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc); err != nil {
		return nil, translate(err, "get record")
	}
	return doc.toModel()
}

func (r *recordRepository) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Record, error) {
	opts := options.Find().
		SetProjection(bson.M{"encrypted_data": 0}).
		SetSort(bson.D{{Key: "uploaded_at", Value: -1}})

	cur, err := r.coll.Find(ctx, recordQuery(model.RecordFilter{PatientID: patientID}), opts)
	if err != nil {
		return nil, translate(err, "list records")
	}

	var docs []recordDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, translate(err, "decode records")
	}

	records := make([]*model.Record, 0, len(docs))
	for i := range docs {
		rec, err := docs[i].toModel()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func (r *recordRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id.String(), "is_deleted": false},
		bson.M{"$set": bson.M{"is_deleted": true}},
	)
	if err != nil {
		return translate(err, "delete record")
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("failed to delete record: %w", repository.ErrNotFound)
	}
	return nil
}

func (r *recordRepository) Count(ctx context.Context, filter model.RecordFilter) (int64, error) {
	n, err := r.coll.CountDocuments(ctx, recordQuery(filter))
	return n, translate(err, "count records")
}
