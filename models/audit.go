package models

import "time"

// AuditEvent is append-only; nothing updates or deletes it once written.
type AuditEvent struct {
	ID         int64          `bson:"_id" json:"id"`
	ActorID    int64          `bson:"actorId" json:"actor_id"`
	Action     string         `bson:"action" json:"action"`
	EntityType string         `bson:"entityType" json:"entity_type"`
	EntityID   int64          `bson:"entityId" json:"entity_id"`
	Detail     map[string]any `bson:"detail" json:"detail"`
	CreatedAt  time.Time      `bson:"createdAt" json:"created_at"`
}

const (
	ActionCreateRequest    = "create_request"
	ActionUpdateRequest    = "update_request"
	ActionAssignRequest    = "assign_request"
	ActionUpdateStatus     = "update_status"
	ActionTriageSuggestion = "triage_suggestion"
	ActionSetRole          = "set_role"
	ActionCreateBoundary   = "create_boundary"
	ActionSetCredential    = "set_credential"

	EntityServiceRequest = "ServiceRequest"
	EntityUser           = "User"
	EntityGeoBoundary    = "GeoBoundary"
	EntityApiCredential  = "ApiCredential"
)
