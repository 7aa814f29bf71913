package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"civic311-be/metrics"
	"civic311-be/models"
	"civic311-be/policy"

	"go.uber.org/zap"
)

// Admitter decides geofence admission for a coordinate.
type Admitter interface {
	Admit(ctx context.Context, lat, lon *float64) bool
}

// TriageQueue accepts classification work without blocking.
type TriageQueue interface {
	Enqueue(job TriageJob) bool
}

type lifecycleStore interface {
	TxRunner
	RequestStore
	UserStore
}

// RequestService is the request lifecycle engine. Every write runs in one
// transaction together with its audit events.
type RequestService struct {
	store  lifecycleStore
	audit  *AuditLog
	geo    Admitter
	policy *policy.Policy
	triage TriageQueue
	logger *zap.Logger
	now    func() time.Time
}

func NewRequestService(store lifecycleStore, audit *AuditLog, geo Admitter, pol *policy.Policy, triage TriageQueue, logger *zap.Logger) *RequestService {
	return &RequestService{
		store:  store,
		audit:  audit,
		geo:    geo,
		policy: pol,
		triage: triage,
		logger: logger.Named("requests"),
		now:    utcNow,
	}
}

// Create submits a new request on behalf of actor.
func (s *RequestService) Create(ctx context.Context, actor models.Principal, draft models.RequestDraft) (*models.ServiceRequest, error) {
	if err := s.policy.Require(actor, policy.ObjRequest, policy.ActCreate); err != nil {
		return nil, err
	}

	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = strings.TrimSpace(draft.Description)
	if err := validateStruct(draft); err != nil {
		return nil, err
	}
	if draft.Priority == "" {
		draft.Priority = models.PriorityMedium
	}

	if !s.geo.Admit(ctx, draft.Latitude, draft.Longitude) {
		return nil, models.ErrOutOfJurisdiction
	}

	now := s.now()
	req := &models.ServiceRequest{
		Title:       draft.Title,
		Description: draft.Description,
		Category:    draft.Category,
		Priority:    draft.Priority,
		Status:      models.StatusSubmitted,
		Latitude:    draft.Latitude,
		Longitude:   draft.Longitude,
		Address:     draft.Address,
		IsAnonymous: draft.IsAnonymous,
		CitizenID:   actor.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.store.Transaction(ctx, func(ctx context.Context) error {
		if err := s.store.InsertRequest(ctx, req); err != nil {
			return err
		}
		_, err := s.audit.Log(ctx, actor.ID, models.ActionCreateRequest, models.EntityServiceRequest, req.ID, map[string]any{
			"title":        req.Title,
			"category":     string(req.Category),
			"priority":     string(req.Priority),
			"is_anonymous": req.IsAnonymous,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.RequestsCreated.WithLabelValues(string(req.Category)).Inc()
	if s.triage != nil && !s.triage.Enqueue(TriageJob{RequestID: req.ID, ActorID: actor.ID, Description: req.Description}) {
		s.logger.Warn("triage queue full, suggestion dropped", zap.Int64("request_id", req.ID))
	}
	return req, nil
}

// Get returns a request the actor may see. Existence is checked first.
func (s *RequestService) Get(ctx context.Context, actor models.Principal, id int64) (*models.ServiceRequest, error) {
	req, err := s.store.FindRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AuthorizeRequestAccess(actor, req); err != nil {
		return nil, err
	}
	return req, nil
}

// PublicStatus exposes only id and status, for unauthenticated lookups.
func (s *RequestService) PublicStatus(ctx context.Context, id int64) (*models.PublicStatus, error) {
	req, err := s.store.FindRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.PublicStatus{ID: req.ID, Status: req.Status}, nil
}

// Update applies a partial update and records one update_request event.
func (s *RequestService) Update(ctx context.Context, actor models.Principal, id int64, patch models.RequestPatch) (*models.ServiceRequest, error) {
	return s.mutate(ctx, actor, id, patch, nil)
}

// Assign sets the assignee and forces status=assigned.
func (s *RequestService) Assign(ctx context.Context, actor models.Principal, id, staffID int64) (*models.ServiceRequest, error) {
	status := models.StatusAssigned
	patch := models.RequestPatch{
		Status:          &status,
		AssignedStaffID: models.Some(staffID),
	}
	return s.mutate(ctx, actor, id, patch, &auditEntry{
		action: models.ActionAssignRequest,
		detail: map[string]any{"assigned_staff_id": staffID},
	})
}

// SetStatus changes only the status. Any status may follow any other.
func (s *RequestService) SetStatus(ctx context.Context, actor models.Principal, id int64, status models.RequestStatus) (*models.ServiceRequest, error) {
	patch := models.RequestPatch{Status: &status}
	return s.mutate(ctx, actor, id, patch, &auditEntry{
		action: models.ActionUpdateStatus,
		detail: map[string]any{"status": string(status)},
	})
}

type auditEntry struct {
	action string
	detail map[string]any
}

func (s *RequestService) mutate(ctx context.Context, actor models.Principal, id int64, patch models.RequestPatch, extra *auditEntry) (*models.ServiceRequest, error) {
	var updated *models.ServiceRequest
	err := s.store.Transaction(ctx, func(ctx context.Context) error {
		req, err := s.store.FindRequest(ctx, id)
		if err != nil {
			return err
		}
		if err := s.policy.Require(actor, policy.ObjRequest, policy.ActMutate); err != nil {
			return err
		}
		if err := patch.Validate(); err != nil {
			return err
		}
		if patch.Empty() {
			return fmt.Errorf("%w: no fields to update", models.ErrInvalidArgument)
		}
		if patch.AssignedStaffID.Valid {
			if err := s.checkAssignee(ctx, patch.AssignedStaffID.Value); err != nil {
				return err
			}
		}

		previous := req.Status
		applyPatch(req, &patch, s.now())
		if err := s.store.ReplaceRequest(ctx, req); err != nil {
			return err
		}

		if _, err := s.audit.Log(ctx, actor.ID, models.ActionUpdateRequest, models.EntityServiceRequest, req.ID, patch.Fields()); err != nil {
			return err
		}
		if extra != nil {
			detail := map[string]any{"previous_status": string(previous)}
			for k, v := range extra.detail {
				detail[k] = v
			}
			if _, err := s.audit.Log(ctx, actor.ID, extra.action, models.EntityServiceRequest, req.ID, detail); err != nil {
				return err
			}
		}
		updated = req
		return nil
	})
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		metrics.StatusChanges.WithLabelValues(string(*patch.Status)).Inc()
	}
	return updated, nil
}

// checkAssignee requires an existing staff or admin account.
func (s *RequestService) checkAssignee(ctx context.Context, staffID int64) error {
	user, err := s.store.FindUserByID(ctx, staffID)
	if errors.Is(err, models.ErrNotFound) {
		return fmt.Errorf("%w: assignee %d does not exist", models.ErrInvalidArgument, staffID)
	}
	if err != nil {
		return err
	}
	if !user.Role.IsStaff() || !user.IsActive {
		return fmt.Errorf("%w: user %d cannot be assigned requests", models.ErrInvalidArgument, staffID)
	}
	return nil
}

// applyPatch copies the present fields onto req. completed_at is stamped the
// first time the request reaches completed and is never touched afterwards.
func applyPatch(req *models.ServiceRequest, p *models.RequestPatch, now time.Time) {
	if p.Title != nil {
		req.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		req.Description = strings.TrimSpace(*p.Description)
	}
	if p.Category != nil {
		req.Category = *p.Category
	}
	if p.Priority != nil {
		req.Priority = *p.Priority
	}
	if p.Status != nil {
		if *p.Status == models.StatusCompleted && req.CompletedAt == nil {
			completed := now
			req.CompletedAt = &completed
		}
		req.Status = *p.Status
	}
	if p.AssignedStaffID.Set {
		req.AssignedStaffID = p.AssignedStaffID.Ptr()
	}
	if p.EstimatedCompletionDate.Set {
		req.EstimatedCompletionDate = p.EstimatedCompletionDate.Ptr()
	}
	req.UpdatedAt = now
}
