package repository

import (
	"context"
	"fmt"

	"civic311-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// InsertAudit appends an event. Audit events are never updated or deleted.
func (s *Store) InsertAudit(ctx context.Context, e *models.AuditEvent) error {
	id, err := s.nextID(ctx, auditCollection)
	if err != nil {
		return err
	}
	e.ID = id
	if _, err := s.audit.InsertOne(ctx, e); err != nil {
		return mapError(err, "audit event")
	}
	return nil
}

// ListAudit returns events newest first. An empty entityType lists everything.
func (s *Store) ListAudit(ctx context.Context, entityType string, entityID *int64, skip, limit int64) ([]models.AuditEvent, int64, error) {
	filter := bson.M{}
	if entityType != "" {
		filter["entityType"] = entityType
	}
	if entityID != nil {
		filter["entityId"] = *entityID
	}

	total, err := s.audit.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("count audit events: %w", err)
	}
	cursor, err := s.audit.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit))
	if err != nil {
		return nil, 0, fmt.Errorf("find audit events: %w", err)
	}
	events := []models.AuditEvent{}
	if err := cursor.All(ctx, &events); err != nil {
		return nil, 0, fmt.Errorf("decode audit events: %w", err)
	}
	return events, total, nil
}
