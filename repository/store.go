// Package repository persists the tracker's entities in MongoDB.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"civic311-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection       = "users"
	requestsCollection    = "service_requests"
	commentsCollection    = "comments"
	attachmentsCollection = "attachments"
	auditCollection       = "audit_events"
	boundariesCollection  = "geo_boundaries"
	credentialsCollection = "api_credentials"
	countersCollection    = "counters"
)

// Store implements every persistence port on top of one Mongo database.
type Store struct {
	client      *mongo.Client
	users       *mongo.Collection
	requests    *mongo.Collection
	comments    *mongo.Collection
	attachments *mongo.Collection
	audit       *mongo.Collection
	boundaries  *mongo.Collection
	credentials *mongo.Collection
	counters    *mongo.Collection
}

func NewStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client:      client,
		users:       db.Collection(usersCollection),
		requests:    db.Collection(requestsCollection),
		comments:    db.Collection(commentsCollection),
		attachments: db.Collection(attachmentsCollection),
		audit:       db.Collection(auditCollection),
		boundaries:  db.Collection(boundariesCollection),
		credentials: db.Collection(credentialsCollection),
		counters:    db.Collection(countersCollection),
	}
}

// Transaction runs fn inside a multi-document transaction. fn must use the
// context it receives so that every operation joins the session.
func (s *Store) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

// nextID hands out monotonically increasing integer ids per collection.
func (s *Store) nextID(ctx context.Context, name string) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("next id for %s: %w", name, err)
	}
	return counter.Seq, nil
}

// EnsureIndexes creates the indexes and counter documents the store relies on.
// Creating them up front also creates the collections, which transactions on
// older servers cannot do implicitly.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := map[*mongo.Collection][]mongo.IndexModel{
		s.users: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		s.requests: {
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "category", Value: 1}}},
			{Keys: bson.D{{Key: "priority", Value: 1}}},
			{Keys: bson.D{{Key: "citizenId", Value: 1}}},
			{Keys: bson.D{{Key: "assignedStaffId", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		s.comments: {
			{Keys: bson.D{{Key: "requestId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		s.attachments: {
			{Keys: bson.D{{Key: "requestId", Value: 1}}},
			{Keys: bson.D{{Key: "scanState", Value: 1}}},
		},
		s.audit: {
			{Keys: bson.D{{Key: "entityType", Value: 1}, {Key: "entityId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		s.credentials: {
			{Keys: bson.D{{Key: "serviceName", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}
	for coll, idx := range indexes {
		if _, err := coll.Indexes().CreateMany(ctx, idx); err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll.Name(), err)
		}
	}

	for _, name := range []string{
		usersCollection, requestsCollection, commentsCollection, attachmentsCollection,
		auditCollection, boundariesCollection, credentialsCollection,
	} {
		_, err := s.counters.UpdateOne(ctx,
			bson.M{"_id": name},
			bson.M{"$setOnInsert": bson.M{"seq": int64(0)}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return fmt.Errorf("seed counter %s: %w", name, err)
		}
	}
	return nil
}

// mapError converts driver errors into the shared taxonomy.
func mapError(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return fmt.Errorf("%w: %s", models.ErrNotFound, what)
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %s already exists", models.ErrConflict, what)
	default:
		return fmt.Errorf("%s: %w", what, err)
	}
}

// Ping checks that the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}
