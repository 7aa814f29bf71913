package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"civic311-be/geo"
	"civic311-be/models"
	"civic311-be/policy"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testNow = time.Date(2026, 5, 4, 10, 30, 0, 0, time.UTC)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []TriageJob
	full bool
}

func (q *recordingQueue) Enqueue(job TriageJob) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.full {
		return false
	}
	q.jobs = append(q.jobs, job)
	return true
}

type fixture struct {
	store    *memStore
	policy   *policy.Policy
	audit    *AuditLog
	requests *RequestService
	dir      *Directory
	queue    *recordingQueue
	clock    time.Time

	citizen models.Principal
	other   models.Principal
	staff   models.Principal
	admin   models.Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pol, err := policy.New()
	require.NoError(t, err)

	f := &fixture{store: newMemStore(), policy: pol, queue: &recordingQueue{}, clock: testNow}
	now := func() time.Time { return f.clock }

	f.audit = NewAuditLog(f.store)
	f.audit.now = now
	f.requests = NewRequestService(f.store, f.audit, geo.NewChecker(f.store, zap.NewNop()), pol, f.queue, zap.NewNop())
	f.requests.now = now
	f.dir = NewDirectory(f.store, pol, 20, 100)
	f.dir.now = now

	f.citizen = f.addUser(t, "ada@example.com", "Ada Lovelace", models.RoleCitizen)
	f.other = f.addUser(t, "bob@example.com", "Bob Stone", models.RoleCitizen)
	f.staff = f.addUser(t, "sam@city.gov", "Sam Staff", models.RoleStaff)
	f.admin = f.addUser(t, "root@city.gov", "Alex Admin", models.RoleAdmin)
	return f
}

func (f *fixture) addUser(t *testing.T, email, name string, role models.Role) models.Principal {
	t.Helper()
	u := &models.User{Email: email, FullName: name, Role: role, IsActive: true, CreatedAt: f.clock}
	require.NoError(t, f.store.InsertUser(context.Background(), u))
	return u.Principal()
}

func (f *fixture) create(t *testing.T, who models.Principal, title string) *models.ServiceRequest {
	t.Helper()
	req, err := f.requests.Create(context.Background(), who, models.RequestDraft{
		Title:       title,
		Description: "Reported by a resident of the district",
		Category:    models.CategoryRoadMaintenance,
	})
	require.NoError(t, err)
	return req
}

func (f *fixture) setBoundary(geojson string) {
	f.store.mu.Lock()
	defer f.store.mu.Unlock()
	f.store.boundaries = append(f.store.boundaries, models.GeoBoundary{ID: f.store.next(), Name: "city", GeoJSON: geojson, CreatedAt: f.clock})
}

func actions(events []models.AuditEvent) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Action)
	}
	return out
}

func ptr[T any](v T) *T { return &v }

const smallSquare = `{"type":"Polygon","coordinates":[[[-74.0,40.0],[-73.9,40.0],[-73.9,40.1],[-74.0,40.1],[-74.0,40.0]]]}`
