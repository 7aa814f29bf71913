package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"civic311-be/models"
)

// memStore is an in-memory Store. Transaction snapshots every table and
// restores it when fn fails, so rollback is observable in tests.
type memStore struct {
	mu sync.Mutex

	seq         int64
	users       map[int64]models.User
	requests    map[int64]models.ServiceRequest
	comments    map[int64]models.Comment
	attachments map[int64]models.Attachment
	audit       []models.AuditEvent
	boundaries  []models.GeoBoundary
	credentials map[string]models.ApiCredential

	failAudit error
	txCount   int
}

func newMemStore() *memStore {
	return &memStore{
		users:       map[int64]models.User{},
		requests:    map[int64]models.ServiceRequest{},
		comments:    map[int64]models.Comment{},
		attachments: map[int64]models.Attachment{},
		credentials: map[string]models.ApiCredential{},
	}
}

func (m *memStore) next() int64 {
	m.seq++
	return m.seq
}

func (m *memStore) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	m.txCount++
	snap := m.snapshot()
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		m.restore(snap)
		m.mu.Unlock()
		return err
	}
	return nil
}

type memSnapshot struct {
	users       map[int64]models.User
	requests    map[int64]models.ServiceRequest
	comments    map[int64]models.Comment
	attachments map[int64]models.Attachment
	audit       []models.AuditEvent
	boundaries  []models.GeoBoundary
	credentials map[string]models.ApiCredential
}

func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (m *memStore) snapshot() memSnapshot {
	return memSnapshot{
		users:       copyMap(m.users),
		requests:    copyMap(m.requests),
		comments:    copyMap(m.comments),
		attachments: copyMap(m.attachments),
		audit:       append([]models.AuditEvent(nil), m.audit...),
		boundaries:  append([]models.GeoBoundary(nil), m.boundaries...),
		credentials: copyMap(m.credentials),
	}
}

func (m *memStore) restore(s memSnapshot) {
	m.users = s.users
	m.requests = s.requests
	m.comments = s.comments
	m.attachments = s.attachments
	m.audit = s.audit
	m.boundaries = s.boundaries
	m.credentials = s.credentials
}

// requests

func (m *memStore) InsertRequest(_ context.Context, req *models.ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	req.ID = m.next()
	m.requests[req.ID] = *req
	return nil
}

func (m *memStore) FindRequest(_ context.Context, id int64) (*models.ServiceRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[id]
	if !ok {
		return nil, fmt.Errorf("%w: service request %d", models.ErrNotFound, id)
	}
	return &req, nil
}

func (m *memStore) ReplaceRequest(_ context.Context, req *models.ServiceRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[req.ID]; !ok {
		return fmt.Errorf("%w: service request %d", models.ErrNotFound, req.ID)
	}
	m.requests[req.ID] = *req
	return nil
}

func (m *memStore) matches(req models.ServiceRequest, f models.RequestFilter) bool {
	if f.Status != nil && req.Status != *f.Status {
		return false
	}
	if f.Category != nil && req.Category != *f.Category {
		return false
	}
	if f.Priority != nil && req.Priority != *f.Priority {
		return false
	}
	if f.CitizenID != nil && req.CitizenID != *f.CitizenID {
		return false
	}
	if f.AssignedStaffID != nil && (req.AssignedStaffID == nil || *req.AssignedStaffID != *f.AssignedStaffID) {
		return false
	}
	if f.Search != "" {
		term := strings.ToLower(f.Search)
		name := strings.ToLower(m.users[req.CitizenID].FullName)
		if !strings.Contains(strings.ToLower(req.Title), term) &&
			!strings.Contains(strings.ToLower(req.Description), term) &&
			!strings.Contains(name, term) {
			return false
		}
	}
	return true
}

func (m *memStore) filtered(f models.RequestFilter) []models.ServiceRequest {
	var out []models.ServiceRequest
	for _, req := range m.requests {
		if m.matches(req, f) {
			out = append(out, req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func window[T any](items []T, skip, limit int64) []T {
	if skip >= int64(len(items)) {
		return []T{}
	}
	end := skip + limit
	if end > int64(len(items)) {
		end = int64(len(items))
	}
	return items[skip:end]
}

func (m *memStore) ListRequests(_ context.Context, q models.RequestQuery) ([]models.ServiceRequest, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.filtered(q.Filter)
	return window(all, q.Skip, q.Limit), int64(len(all)), nil
}

func (m *memStore) RequestStats(_ context.Context, f models.RequestFilter, now time.Time) (*models.RequestStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.RequestStats{ByStatus: map[string]int64{}, ByCategory: map[string]int64{}}
	all := m.filtered(f)
	for _, req := range all {
		stats.Total++
		stats.ByStatus[string(req.Status)]++
		stats.ByCategory[string(req.Category)]++
	}
	for _, st := range models.OpenStatuses {
		stats.Open += stats.ByStatus[string(st)]
	}
	for i := 6; i >= 0; i-- {
		day := now.AddDate(0, 0, -i).Format("2006-01-02")
		var n int64
		for _, req := range all {
			if req.CreatedAt.Format("2006-01-02") == day {
				n++
			}
		}
		stats.Last7Days = append(stats.Last7Days, models.DailyCount{Date: day, Count: n})
	}
	return stats, nil
}

func (m *memStore) RecentLocated(_ context.Context, f models.RequestFilter, limit int64) ([]models.LocatedRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LocatedRequest
	for _, req := range m.filtered(f) {
		if !req.HasLocation() {
			continue
		}
		out = append(out, models.LocatedRequest{
			ID: req.ID, Title: req.Title, Category: req.Category, Status: req.Status,
			Latitude: *req.Latitude, Longitude: *req.Longitude, Address: req.Address, CreatedAt: req.CreatedAt,
		})
	}
	return window(out, 0, limit), nil
}

// users

func (m *memStore) InsertUser(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.Email = strings.ToLower(user.Email)
	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("%w: user %s already exists", models.ErrConflict, user.Email)
		}
	}
	user.ID = m.next()
	m.users[user.ID] = *user
	return nil
}

func (m *memStore) FindUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("%w: user %d", models.ErrNotFound, id)
	}
	return &u, nil
}

func (m *memStore) FindUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("%w: user %s", models.ErrNotFound, email)
}

func (m *memStore) UpdateUserRole(_ context.Context, id int64, role models.Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return fmt.Errorf("%w: user %d", models.ErrNotFound, id)
	}
	u.Role = role
	m.users[id] = u
	return nil
}

// comments

func (m *memStore) InsertComment(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = m.next()
	m.comments[c.ID] = *c
	return nil
}

func (m *memStore) FindComment(_ context.Context, id int64) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, fmt.Errorf("%w: comment %d", models.ErrNotFound, id)
	}
	return &c, nil
}

func (m *memStore) UpdateCommentContent(_ context.Context, id int64, content string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return fmt.Errorf("%w: comment %d", models.ErrNotFound, id)
	}
	c.Content = content
	c.UpdatedAt = &at
	m.comments[id] = c
	return nil
}

func (m *memStore) DeleteComment(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return fmt.Errorf("%w: comment %d", models.ErrNotFound, id)
	}
	delete(m.comments, id)
	return nil
}

func (m *memStore) ListComments(_ context.Context, requestID int64, includeInternal bool, skip, limit int64) ([]models.Comment, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Comment
	for _, c := range m.comments {
		if c.RequestID == requestID && (includeInternal || !c.IsInternal) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return window(out, skip, limit), int64(len(out)), nil
}

// attachments

func (m *memStore) InsertAttachment(_ context.Context, a *models.Attachment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a.ID = m.next()
	m.attachments[a.ID] = *a
	return nil
}

func (m *memStore) ListAttachments(_ context.Context, requestID int64) ([]models.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Attachment{}
	for _, a := range m.attachments {
		if a.RequestID == requestID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListPendingAttachments(_ context.Context, limit int64) ([]models.Attachment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Attachment
	for _, a := range m.attachments {
		if a.ScanState == models.ScanPending {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return window(out, 0, limit), nil
}

func (m *memStore) ResolveScan(_ context.Context, id int64, state models.ScanState, result string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attachments[id]
	if !ok || a.ScanState != models.ScanPending {
		return false, nil
	}
	a.ScanState = state
	a.ScanResult = result
	m.attachments[id] = a
	return true, nil
}

// audit

func (m *memStore) InsertAudit(_ context.Context, e *models.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAudit != nil {
		return m.failAudit
	}
	e.ID = m.next()
	m.audit = append(m.audit, *e)
	return nil
}

func (m *memStore) ListAudit(_ context.Context, entityType string, entityID *int64, skip, limit int64) ([]models.AuditEvent, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditEvent
	for i := len(m.audit) - 1; i >= 0; i-- {
		e := m.audit[i]
		if entityType != "" && e.EntityType != entityType {
			continue
		}
		if entityID != nil && e.EntityID != *entityID {
			continue
		}
		out = append(out, e)
	}
	return window(out, skip, limit), int64(len(out)), nil
}

func (m *memStore) auditFor(entityID int64) []models.AuditEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.AuditEvent
	for _, e := range m.audit {
		if e.EntityID == entityID {
			out = append(out, e)
		}
	}
	return out
}

// boundaries and credentials

func (m *memStore) InsertBoundary(_ context.Context, b *models.GeoBoundary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = m.next()
	m.boundaries = append(m.boundaries, *b)
	return nil
}

func (m *memStore) LatestBoundary(_ context.Context) (*models.GeoBoundary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.boundaries) == 0 {
		return nil, fmt.Errorf("%w: geo boundary", models.ErrNotFound)
	}
	b := m.boundaries[len(m.boundaries)-1]
	return &b, nil
}

func (m *memStore) ListBoundaries(_ context.Context) ([]models.GeoBoundary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.GeoBoundary, 0, len(m.boundaries))
	for i := len(m.boundaries) - 1; i >= 0; i-- {
		out = append(out, m.boundaries[i])
	}
	return out, nil
}

func (m *memStore) SaveCredential(_ context.Context, c *models.ApiCredential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.credentials[c.ServiceName]; ok {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
	} else {
		c.ID = m.next()
	}
	m.credentials[c.ServiceName] = *c
	return nil
}

func (m *memStore) FindCredential(_ context.Context, service string) (*models.ApiCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.credentials[service]
	if !ok {
		return nil, fmt.Errorf("%w: credential %s", models.ErrNotFound, service)
	}
	return &c, nil
}

func (m *memStore) ListCredentials(_ context.Context) ([]models.ApiCredential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.ApiCredential, 0, len(m.credentials))
	for _, c := range m.credentials {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ServiceName < out[j].ServiceName })
	return out, nil
}

var _ Store = (*memStore)(nil)

var errBoom = errors.New("boom")
