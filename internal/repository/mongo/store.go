package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/jwalitptl/medicare-api/internal/repository"
)

const (
	usersCollection   = "users"
	recordsCollection = "records"
	accessCollection  = "access_permissions"
	auditCollection   = "audit_logs"
)

type Config struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

// Store holds one client shared by all collections.
type Store struct {
	client *mongo.Client
	db     *mongo.Database

	users   *userRepository
	records *recordRepository
	access  *accessRepository
	audit   *auditRepository
}

// NewStore configures a client. The server is not contacted until first use,
// so a store can be built while the database is down.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create mongo client: %w", err)
	}

	db := client.Database(cfg.Database)
	return &Store{
		client:  client,
		db:      db,
		users:   &userRepository{coll: db.Collection(usersCollection)},
		records: &recordRepository{coll: db.Collection(recordsCollection)},
		access:  &accessRepository{coll: db.Collection(accessCollection)},
		audit:   &auditRepository{coll: db.Collection(auditCollection)},
	}, nil
}

func (s *Store) Users() repository.UserRepository     { return s.users }
func (s *Store) Records() repository.RecordRepository { return s.records }
func (s *Store) Access() repository.AccessRepository  { return s.access }
func (s *Store) Audit() repository.AuditRepository    { return s.audit }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Migrate creates the indexes the repositories rely on.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
			{
				Keys: bson.D{{Key: "nmc_uid", Value: 1}},
				Options: options.Index().SetUnique(true).
					SetPartialFilterExpression(bson.M{"nmc_uid": bson.M{"$type": "string"}}),
			},
			{Keys: bson.D{{Key: "role", Value: 1}, {Key: "is_verified", Value: 1}}},
		},
		recordsCollection: {
			{Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "uploaded_at", Value: -1}}},
		},
		accessCollection: {
			{Keys: bson.D{{Key: "patient_id", Value: 1}, {Key: "doctor_id", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "doctor_id", Value: 1}}},
		},
		auditCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}}},
			{Keys: bson.D{{Key: "timestamp", Value: -1}}},
		},
	}

	for name, models := range indexes {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Drop removes the whole database. Used by integration tests.
func (s *Store) Drop(ctx context.Context) error {
	return s.db.Drop(ctx)
}

func translate(err error, op string) error {
	switch {
	case err == nil:
		return nil
	case err == mongo.ErrNoDocuments:
		return fmt.Errorf("failed to %s: %w", op, repository.ErrNotFound)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("failed to %s: %w", op, repository.ErrDuplicate)
	default:
		return fmt.Errorf("failed to %s: %w", op, err)
	}
}
