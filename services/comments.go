package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"civic311-be/models"
	"civic311-be/policy"
)

const (
	defaultCommentLimit = 50
	maxCommentLimit     = 100
	maxCommentLength    = 2000
)

type commentStore interface {
	RequestStore
	CommentStore
}

type CommentService struct {
	store  commentStore
	policy *policy.Policy
	now    func() time.Time
}

func NewCommentService(store commentStore, pol *policy.Policy) *CommentService {
	return &CommentService{store: store, policy: pol, now: utcNow}
}

// Create adds a comment to a request the actor can see. Internal notes need
// the create_internal capability.
func (s *CommentService) Create(ctx context.Context, actor models.Principal, requestID int64, content string, internal bool) (*models.Comment, error) {
	if _, err := s.accessibleRequest(ctx, actor, requestID); err != nil {
		return nil, err
	}
	if err := s.policy.Require(actor, policy.ObjComment, policy.ActCreate); err != nil {
		return nil, err
	}
	if internal {
		if err := s.policy.Require(actor, policy.ObjComment, policy.ActCreateInternal); err != nil {
			return nil, err
		}
	}
	content, err := cleanContent(content)
	if err != nil {
		return nil, err
	}

	c := &models.Comment{
		RequestID:  requestID,
		AuthorID:   actor.ID,
		Content:    content,
		IsInternal: internal,
		CreatedAt:  s.now(),
	}
	if err := s.store.InsertComment(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// List returns the thread newest first. Internal notes are included only when
// asked for and the actor may read them.
func (s *CommentService) List(ctx context.Context, actor models.Principal, requestID int64, includeInternal bool, skip, limit int64) (*Page[models.Comment], error) {
	if _, err := s.accessibleRequest(ctx, actor, requestID); err != nil {
		return nil, err
	}
	includeInternal = includeInternal && s.policy.IncludeInternal(actor)

	w := NewWindow(skip, limit, defaultCommentLimit, maxCommentLimit)
	items, total, err := s.store.ListComments(ctx, requestID, includeInternal, w.Skip, w.Limit)
	if err != nil {
		return nil, err
	}
	return newPage(items, total, w), nil
}

// Edit changes the text of the actor's own comment.
func (s *CommentService) Edit(ctx context.Context, actor models.Principal, id int64, content string) (*models.Comment, error) {
	c, err := s.store.FindComment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.Active || c.AuthorID != actor.ID {
		return nil, fmt.Errorf("%w: only the author may edit comment %d", models.ErrForbidden, id)
	}
	content, err = cleanContent(content)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := s.store.UpdateCommentContent(ctx, id, content, now); err != nil {
		return nil, err
	}
	c.Content = content
	c.UpdatedAt = &now
	return c, nil
}

// Delete removes a comment. Authors may delete their own; moderators any.
func (s *CommentService) Delete(ctx context.Context, actor models.Principal, id int64) error {
	c, err := s.store.FindComment(ctx, id)
	if err != nil {
		return err
	}
	if !(actor.Active && c.AuthorID == actor.ID) && !s.policy.Can(actor, policy.ObjComment, policy.ActModerate) {
		return fmt.Errorf("%w: comment %d belongs to another user", models.ErrForbidden, id)
	}
	return s.store.DeleteComment(ctx, id)
}

func (s *CommentService) accessibleRequest(ctx context.Context, actor models.Principal, id int64) (*models.ServiceRequest, error) {
	req, err := s.store.FindRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.AuthorizeRequestAccess(actor, req); err != nil {
		return nil, err
	}
	return req, nil
}

func cleanContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("%w: comment is empty", models.ErrInvalidArgument)
	}
	if utf8.RuneCountInString(content) > maxCommentLength {
		return "", fmt.Errorf("%w: comment exceeds %d characters", models.ErrInvalidArgument, maxCommentLength)
	}
	return content, nil
}
