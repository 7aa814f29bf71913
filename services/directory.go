package services

import (
	"context"
	"strings"
	"time"

	"civic311-be/models"
	"civic311-be/policy"
)

const maxMapPoints = 500

// Directory serves role-scoped request listings and summaries.
type Directory struct {
	store        RequestStore
	policy       *policy.Policy
	defaultLimit int64
	maxLimit     int64
	now          func() time.Time
}

func NewDirectory(store RequestStore, pol *policy.Policy, defaultLimit, maxLimit int64) *Directory {
	return &Directory{
		store:        store,
		policy:       pol,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		now:          utcNow,
	}
}

// List returns one page, newest first. Scope is applied before the filters,
// so a citizen can never widen the view.
func (d *Directory) List(ctx context.Context, actor models.Principal, filter models.RequestFilter, skip, limit int64) (*Page[models.ServiceRequest], error) {
	if err := d.policy.Require(actor, policy.ObjRequest, policy.ActReadOwn); err != nil {
		return nil, err
	}
	filter.Search = strings.TrimSpace(filter.Search)

	w := NewWindow(skip, limit, d.defaultLimit, d.maxLimit)
	items, total, err := d.store.ListRequests(ctx, models.RequestQuery{
		Filter: d.policy.Scope(actor, filter),
		Skip:   w.Skip,
		Limit:  w.Limit,
	})
	if err != nil {
		return nil, err
	}
	return newPage(items, total, w), nil
}

func (d *Directory) Stats(ctx context.Context, actor models.Principal) (*models.RequestStats, error) {
	if err := d.policy.Require(actor, policy.ObjRequest, policy.ActReadOwn); err != nil {
		return nil, err
	}
	return d.store.RequestStats(ctx, d.policy.Scope(actor, models.RequestFilter{}), d.now())
}

// RecentLocated feeds the map view with the newest geolocated requests.
func (d *Directory) RecentLocated(ctx context.Context, actor models.Principal, n int64) ([]models.LocatedRequest, error) {
	if err := d.policy.Require(actor, policy.ObjRequest, policy.ActReadOwn); err != nil {
		return nil, err
	}
	if n < 1 || n > maxMapPoints {
		n = maxMapPoints
	}
	return d.store.RecentLocated(ctx, d.policy.Scope(actor, models.RequestFilter{}), n)
}
