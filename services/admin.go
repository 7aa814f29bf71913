package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"civic311-be/geo"
	"civic311-be/models"
	"civic311-be/policy"
)

// Sealer encrypts credential values before they are stored.
type Sealer interface {
	Seal(plaintext string) (string, error)
}

type adminStore interface {
	TxRunner
	UserStore
	BoundaryStore
	CredentialStore
}

// AdminService covers jurisdiction boundaries, stored credentials, user roles
// and the audit trail. Every operation needs config:manage.
type AdminService struct {
	store  adminStore
	audit  *AuditLog
	sealer Sealer
	policy *policy.Policy
	now    func() time.Time
}

func NewAdminService(store adminStore, audit *AuditLog, sealer Sealer, pol *policy.Policy) *AdminService {
	return &AdminService{store: store, audit: audit, sealer: sealer, policy: pol, now: utcNow}
}

// CreateBoundary stores a new boundary, which becomes the active one. The
// geometry must decode to at least one polygon.
func (s *AdminService) CreateBoundary(ctx context.Context, actor models.Principal, name, geojson string) (*models.GeoBoundary, error) {
	if err := s.policy.Require(actor, policy.ObjConfig, policy.ActManage); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: boundary name is required", models.ErrInvalidArgument)
	}
	if _, err := geo.DecodeArea(geojson); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrInvalidArgument, err)
	}

	b := &models.GeoBoundary{Name: name, GeoJSON: geojson, CreatedAt: s.now()}
	err := s.store.Transaction(ctx, func(ctx context.Context) error {
		if err := s.store.InsertBoundary(ctx, b); err != nil {
			return err
		}
		_, err := s.audit.Log(ctx, actor.ID, models.ActionCreateBoundary, models.EntityGeoBoundary, b.ID, map[string]any{"name": name})
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (s *AdminService) ListBoundaries(ctx context.Context, actor models.Principal) ([]models.GeoBoundary, error) {
	if err := s.policy.Require(actor, policy.ObjConfig, policy.ActManage); err != nil {
		return nil, err
	}
	return s.store.ListBoundaries(ctx)
}

// SetCredential seals and stores value for service, replacing any previous
// value. The plaintext never reaches the store or the audit trail.
func (s *AdminService) SetCredential(ctx context.Context, actor models.Principal, service, value string) (*models.ApiCredential, error) {
	if err := s.policy.Require(actor, policy.ObjConfig, policy.ActManage); err != nil {
		return nil, err
	}
	service = strings.TrimSpace(service)
	if service == "" || value == "" {
		return nil, fmt.Errorf("%w: service_name and value are required", models.ErrInvalidArgument)
	}

	sealed, err := s.sealer.Seal(value)
	if err != nil {
		return nil, fmt.Errorf("seal credential: %w", err)
	}
	now := s.now()
	c := &models.ApiCredential{
		ServiceName:    service,
		EncryptedValue: sealed,
		CreatedByID:    actor.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err = s.store.Transaction(ctx, func(ctx context.Context) error {
		if err := s.store.SaveCredential(ctx, c); err != nil {
			return err
		}
		_, err := s.audit.Log(ctx, actor.ID, models.ActionSetCredential, models.EntityApiCredential, c.ID, map[string]any{"service_name": service})
		return err
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *AdminService) ListCredentials(ctx context.Context, actor models.Principal) ([]models.ApiCredential, error) {
	if err := s.policy.Require(actor, policy.ObjConfig, policy.ActManage); err != nil {
		return nil, err
	}
	return s.store.ListCredentials(ctx)
}

// SetRole changes a user's role. Admins cannot demote themselves.
func (s *AdminService) SetRole(ctx context.Context, actor models.Principal, userID int64, role models.Role) (*models.User, error) {
	if err := s.policy.Require(actor, policy.ObjConfig, policy.ActManage); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", models.ErrInvalidArgument, role)
	}
	if userID == actor.ID && role != models.RoleAdmin {
		return nil, fmt.Errorf("%w: admins cannot demote themselves", models.ErrInvalidArgument)
	}

	var updated *models.User
	err := s.store.Transaction(ctx, func(ctx context.Context) error {
		user, err := s.store.FindUserByID(ctx, userID)
		if err != nil {
			return err
		}
		previous := user.Role
		if err := s.store.UpdateUserRole(ctx, userID, role); err != nil {
			return err
		}
		if _, err := s.audit.Log(ctx, actor.ID, models.ActionSetRole, models.EntityUser, userID, map[string]any{
			"role":          string(role),
			"previous_role": string(previous),
		}); err != nil {
			return err
		}
		user.Role = role
		user.UpdatedAt = s.now()
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Audit lists the trail, optionally narrowed to one entity.
func (s *AdminService) Audit(ctx context.Context, actor models.Principal, entityType string, entityID *int64, skip, limit int64) (*Page[models.AuditEvent], error) {
	if err := s.policy.Require(actor, policy.ObjConfig, policy.ActManage); err != nil {
		return nil, err
	}
	return s.audit.ForEntity(ctx, entityType, entityID, NewWindow(skip, limit, 50, 200))
}
