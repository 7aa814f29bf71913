// Package services holds the request lifecycle engine and the application
// services around it. Persistence is reached only through the ports below.
package services

import (
	"context"
	"time"

	"civic311-be/models"
)

// TxRunner runs fn in one atomic unit of work. Every store call inside fn must
// use the context fn receives.
type TxRunner interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type RequestStore interface {
	InsertRequest(ctx context.Context, req *models.ServiceRequest) error
	FindRequest(ctx context.Context, id int64) (*models.ServiceRequest, error)
	ReplaceRequest(ctx context.Context, req *models.ServiceRequest) error
	ListRequests(ctx context.Context, q models.RequestQuery) ([]models.ServiceRequest, int64, error)
	RequestStats(ctx context.Context, f models.RequestFilter, now time.Time) (*models.RequestStats, error)
	RecentLocated(ctx context.Context, f models.RequestFilter, limit int64) ([]models.LocatedRequest, error)
}

type UserStore interface {
	InsertUser(ctx context.Context, user *models.User) error
	FindUserByID(ctx context.Context, id int64) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateUserRole(ctx context.Context, id int64, role models.Role) error
}

type CommentStore interface {
	InsertComment(ctx context.Context, c *models.Comment) error
	FindComment(ctx context.Context, id int64) (*models.Comment, error)
	UpdateCommentContent(ctx context.Context, id int64, content string, at time.Time) error
	DeleteComment(ctx context.Context, id int64) error
	ListComments(ctx context.Context, requestID int64, includeInternal bool, skip, limit int64) ([]models.Comment, int64, error)
}

type AttachmentStore interface {
	InsertAttachment(ctx context.Context, a *models.Attachment) error
	ListAttachments(ctx context.Context, requestID int64) ([]models.Attachment, error)
	ListPendingAttachments(ctx context.Context, limit int64) ([]models.Attachment, error)
	ResolveScan(ctx context.Context, id int64, state models.ScanState, result string) (bool, error)
}

type AuditStore interface {
	InsertAudit(ctx context.Context, e *models.AuditEvent) error
	ListAudit(ctx context.Context, entityType string, entityID *int64, skip, limit int64) ([]models.AuditEvent, int64, error)
}

type BoundaryStore interface {
	InsertBoundary(ctx context.Context, b *models.GeoBoundary) error
	LatestBoundary(ctx context.Context) (*models.GeoBoundary, error)
	ListBoundaries(ctx context.Context) ([]models.GeoBoundary, error)
}

type CredentialStore interface {
	SaveCredential(ctx context.Context, c *models.ApiCredential) error
	FindCredential(ctx context.Context, service string) (*models.ApiCredential, error)
	ListCredentials(ctx context.Context) ([]models.ApiCredential, error)
}

// Store is everything the services need; *repository.Store implements it.
type Store interface {
	TxRunner
	RequestStore
	UserStore
	CommentStore
	AttachmentStore
	AuditStore
	BoundaryStore
	CredentialStore
}
