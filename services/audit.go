package services

import (
	"context"
	"fmt"
	"time"

	"civic311-be/models"
)

// AuditLog is the append-only trail. It has no update or delete path.
type AuditLog struct {
	store AuditStore
	now   func() time.Time
}

func NewAuditLog(store AuditStore) *AuditLog {
	return &AuditLog{store: store, now: utcNow}
}

// Log records one event. Called inside a transaction it commits or rolls back
// with the entity change.
func (a *AuditLog) Log(ctx context.Context, actorID int64, action, entityType string, entityID int64, detail map[string]any) (*models.AuditEvent, error) {
	if detail == nil {
		detail = map[string]any{}
	}
	e := &models.AuditEvent{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		CreatedAt:  a.now(),
	}
	if err := a.store.InsertAudit(ctx, e); err != nil {
		return nil, fmt.Errorf("audit %s: %w", action, err)
	}
	return e, nil
}

// ForEntity lists events newest first. An empty entityType lists all events.
func (a *AuditLog) ForEntity(ctx context.Context, entityType string, entityID *int64, w Window) (*Page[models.AuditEvent], error) {
	events, total, err := a.store.ListAudit(ctx, entityType, entityID, w.Skip, w.Limit)
	if err != nil {
		return nil, err
	}
	return newPage(events, total, w), nil
}

// utcNow matches the millisecond precision the store keeps.
func utcNow() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
