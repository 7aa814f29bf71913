package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"civic311-be/classifier"
	"civic311-be/middlewares"
	"civic311-be/models"
	"civic311-be/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var staffUser = &models.User{ID: 5, Email: "staff@city.gov", Role: models.RoleStaff, IsActive: true}

type staticAuth struct{ user *models.User }

func (a staticAuth) Authenticate(context.Context, string) (*models.User, error) {
	return a.user, nil
}

func authed() gin.HandlerFunc {
	return middlewares.AuthMiddleware(staticAuth{user: staffUser})
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			buf = bytes.NewBufferString(b)
		default:
			raw, _ := json.Marshal(b)
			buf = bytes.NewReader(raw)
		}
	}
	req := httptest.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: title", models.ErrInvalidArgument), http.StatusBadRequest},
		{models.ErrOutOfJurisdiction, http.StatusBadRequest},
		{models.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("%w: not yours", models.ErrForbidden), http.StatusForbidden},
		{fmt.Errorf("%w: request 9", models.ErrNotFound), http.StatusNotFound},
		{models.ErrConflict, http.StatusConflict},
		{models.ErrRateLimited, http.StatusTooManyRequests},
		{errors.New("socket closed"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, tc.err)
		assert.Equal(t, tc.status, w.Code, tc.err.Error())
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, errors.New("mongo: connection pool exhausted"))
	assert.NotContains(t, w.Body.String(), "mongo")
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
	assert.Len(t, c.Errors, 1)
}

type fakeLifecycle struct {
	draft  models.RequestDraft
	actor  models.Principal
	patch  models.RequestPatch
	status models.RequestStatus
	err    error
}

func (f *fakeLifecycle) Create(_ context.Context, actor models.Principal, draft models.RequestDraft) (*models.ServiceRequest, error) {
	f.actor, f.draft = actor, draft
	if f.err != nil {
		return nil, f.err
	}
	return &models.ServiceRequest{ID: 1, Title: draft.Title, Status: models.StatusSubmitted, CitizenID: actor.ID}, nil
}

func (f *fakeLifecycle) Get(_ context.Context, _ models.Principal, id int64) (*models.ServiceRequest, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ServiceRequest{ID: id}, nil
}

func (f *fakeLifecycle) Update(_ context.Context, _ models.Principal, id int64, patch models.RequestPatch) (*models.ServiceRequest, error) {
	f.patch = patch
	return &models.ServiceRequest{ID: id}, f.err
}

func (f *fakeLifecycle) Assign(_ context.Context, _ models.Principal, id, staffID int64) (*models.ServiceRequest, error) {
	return &models.ServiceRequest{ID: id, AssignedStaffID: &staffID, Status: models.StatusAssigned}, f.err
}

func (f *fakeLifecycle) SetStatus(_ context.Context, _ models.Principal, id int64, status models.RequestStatus) (*models.ServiceRequest, error) {
	f.status = status
	return &models.ServiceRequest{ID: id, Status: status}, f.err
}

func (f *fakeLifecycle) PublicStatus(_ context.Context, id int64) (*models.PublicStatus, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.PublicStatus{ID: id, Status: models.StatusInProgress}, nil
}

type fakeDirectory struct {
	filter      models.RequestFilter
	skip, limit int64
	mapLimit    int64
}

func (f *fakeDirectory) List(_ context.Context, _ models.Principal, filter models.RequestFilter, skip, limit int64) (*services.Page[models.ServiceRequest], error) {
	f.filter, f.skip, f.limit = filter, skip, limit
	return &services.Page[models.ServiceRequest]{Items: []models.ServiceRequest{}, Page: 1, Size: limit}, nil
}

func (f *fakeDirectory) Stats(context.Context, models.Principal) (*models.RequestStats, error) {
	return &models.RequestStats{Total: 3}, nil
}

func (f *fakeDirectory) RecentLocated(_ context.Context, _ models.Principal, n int64) ([]models.LocatedRequest, error) {
	f.mapLimit = n
	return []models.LocatedRequest{}, nil
}

func requestEngine(l *fakeLifecycle, d *fakeDirectory) *gin.Engine {
	ctrl := NewRequestController(l, d, services.NewTriageDispatcher(classifier.Heuristic{}, nil, 0, zap.NewNop()))
	r := gin.New()
	g := r.Group("/api/requests", authed())
	g.POST("", ctrl.CreateRequest)
	g.GET("", ctrl.ListRequests)
	g.GET("/stats", ctrl.GetStats)
	g.GET("/map", ctrl.GetMapRequests)
	g.POST("/triage", ctrl.TriageRequest)
	g.GET("/:id", ctrl.GetRequest)
	g.PUT("/:id", ctrl.UpdateRequest)
	g.POST("/:id/assign", ctrl.AssignRequest)
	g.POST("/:id/status", ctrl.SetRequestStatus)
	return r
}

func TestCreateRequest(t *testing.T) {
	l := &fakeLifecycle{}
	r := requestEngine(l, &fakeDirectory{})

	w := doJSON(r, http.MethodPost, "/api/requests", map[string]any{
		"title":       "Pothole on Main",
		"description": "Deep pothole near the bus stop",
		"category":    "road_maintenance",
		"latitude":    40.1,
		"longitude":   -75.2,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, staffUser.ID, l.actor.ID)
	assert.Equal(t, models.CategoryRoadMaintenance, l.draft.Category)
	require.NotNil(t, l.draft.Latitude)
	assert.InDelta(t, 40.1, *l.draft.Latitude, 1e-9)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "submitted", body["status"])
}

func TestCreateRequestOutsideBoundary(t *testing.T) {
	r := requestEngine(&fakeLifecycle{err: models.ErrOutOfJurisdiction}, &fakeDirectory{})
	w := doJSON(r, http.MethodPost, "/api/requests", map[string]any{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "jurisdiction")
}

func TestListRequestsParsesQuery(t *testing.T) {
	d := &fakeDirectory{}
	r := requestEngine(&fakeLifecycle{}, d)

	w := doJSON(r, http.MethodGet, "/api/requests?status=in_progress&category=all&priority=urgent&assigned_staff_id=5&search=+lamp+&skip=40&limit=20", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, d.filter.Status)
	assert.Equal(t, models.StatusInProgress, *d.filter.Status)
	assert.Nil(t, d.filter.Category)
	assert.Equal(t, models.PriorityUrgent, *d.filter.Priority)
	assert.Equal(t, int64(5), *d.filter.AssignedStaffID)
	assert.Equal(t, "lamp", d.filter.Search)
	assert.Equal(t, int64(40), d.skip)
	assert.Equal(t, int64(20), d.limit)

	w = doJSON(r, http.MethodGet, "/api/requests?page=3&limit=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(20), d.skip)

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/api/requests?status=done", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/api/requests?limit=ten", nil).Code)
}

func TestStatsMapAndTriage(t *testing.T) {
	d := &fakeDirectory{}
	r := requestEngine(&fakeLifecycle{}, d)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/api/requests/stats", nil).Code)

	require.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/api/requests/map?limit=25", nil).Code)
	assert.Equal(t, int64(25), d.mapLimit)

	w := doJSON(r, http.MethodPost, "/api/requests/triage", map[string]string{"description": "The traffic light is broken, this is dangerous!"})
	require.Equal(t, http.StatusOK, w.Code)
	var s classifier.Suggestion
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &s))
	assert.Equal(t, models.CategoryTrafficSignals, s.Category)
}

func TestUpdateRequestKeepsExplicitNull(t *testing.T) {
	l := &fakeLifecycle{}
	r := requestEngine(l, &fakeDirectory{})

	w := doJSON(r, http.MethodPut, "/api/requests/12", `{"priority":"high","assigned_staff_id":null}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, l.patch.Priority)
	assert.Equal(t, models.PriorityHigh, *l.patch.Priority)
	assert.True(t, l.patch.AssignedStaffID.Set)
	assert.False(t, l.patch.AssignedStaffID.Valid)
	assert.False(t, l.patch.EstimatedCompletionDate.Set)
}

func TestStatusAndAssignInput(t *testing.T) {
	l := &fakeLifecycle{}
	r := requestEngine(l, &fakeDirectory{})

	require.Equal(t, http.StatusOK, doJSON(r, http.MethodPost, "/api/requests/3/status", map[string]string{"status": "completed"}).Code)
	assert.Equal(t, models.StatusCompleted, l.status)

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, "/api/requests/3/status", map[string]string{"status": "finished"}).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, "/api/requests/3/assign", map[string]any{}).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodPost, "/api/requests/3/assign", map[string]any{"staff_id": 5}).Code)
	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodPost, "/api/requests/3/assign?staff_id=5", nil).Code)

	require.Equal(t, http.StatusOK, doJSON(r, http.MethodPost, "/api/requests/3/status?status=rejected", nil).Code)
	assert.Equal(t, models.StatusRejected, l.status)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/api/requests/abc", nil).Code)
}

func TestGetRequestNotFound(t *testing.T) {
	r := requestEngine(&fakeLifecycle{err: fmt.Errorf("%w: service request 9", models.ErrNotFound)}, &fakeDirectory{})
	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/api/requests/9", nil).Code)
}

type fakeAccounts struct {
	anon *models.User
}

func (f *fakeAccounts) Register(_ context.Context, reg models.Registration) (*models.User, error) {
	return &models.User{ID: 2, Email: reg.Email, Role: models.RoleCitizen, IsActive: true}, nil
}

func (f *fakeAccounts) Login(_ context.Context, email, password string) (string, *models.User, error) {
	if password != "secret1" {
		return "", nil, models.ErrUnauthorized
	}
	return "signed.jwt.token", &models.User{ID: 2, Email: email}, nil
}

func (f *fakeAccounts) Anonymous(context.Context) (*models.User, error) {
	return f.anon, nil
}

func TestLoginSetsCookie(t *testing.T) {
	ctrl := NewAuthController(&fakeAccounts{}, CookieOptions{Domain: "localhost", MaxAge: time.Hour})
	r := gin.New()
	r.POST("/login", ctrl.LoginUser)
	r.POST("/register", ctrl.RegisterUser)

	w := doJSON(r, http.MethodPost, "/login", map[string]string{"email": "a@b.co", "password": "secret1"})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, middlewares.AuthCookie, cookies[0].Name)
	assert.Equal(t, "signed.jwt.token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	assert.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodPost, "/login", map[string]string{"email": "a@b.co", "password": "nope"}).Code)

	w = doJSON(r, http.MethodPost, "/register", map[string]string{"email": "new@b.co", "password": "secret1", "full_name": "New Person"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodPost, "/register", map[string]string{"email": "not-an-email", "password": "secret1", "full_name": "X"}).Code)
}

func TestPublicSubmissionIsAnonymous(t *testing.T) {
	anon := &models.User{ID: 99, Role: models.RoleCitizen, IsActive: true}
	l := &fakeLifecycle{}
	ctrl := NewPublicController(&fakeAccounts{anon: anon}, l)
	r := gin.New()
	r.POST("/public", ctrl.SubmitRequest)
	r.GET("/public/:id/status", ctrl.GetRequestStatus)

	w := doJSON(r, http.MethodPost, "/public", map[string]any{"title": "Noise", "description": "Loud music every night", "category": "noise_complaint"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, l.draft.IsAnonymous)
	assert.Equal(t, int64(99), l.actor.ID)
	assert.NotContains(t, w.Body.String(), "citizen_id")

	w = doJSON(r, http.MethodGet, "/public/4/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"id":4,"status":"in_progress"}`, w.Body.String())
}

type fakeComments struct {
	includeInternal bool
	deleted         int64
}

func (f *fakeComments) Create(_ context.Context, actor models.Principal, requestID int64, content string, internal bool) (*models.Comment, error) {
	return &models.Comment{ID: 1, RequestID: requestID, AuthorID: actor.ID, Content: content, IsInternal: internal}, nil
}

func (f *fakeComments) List(_ context.Context, _ models.Principal, _ int64, includeInternal bool, _, _ int64) (*services.Page[models.Comment], error) {
	f.includeInternal = includeInternal
	return &services.Page[models.Comment]{Items: []models.Comment{}}, nil
}

func (f *fakeComments) Edit(_ context.Context, _ models.Principal, id int64, content string) (*models.Comment, error) {
	return nil, fmt.Errorf("%w: comment %d belongs to another user", models.ErrForbidden, id)
}

func (f *fakeComments) Delete(_ context.Context, _ models.Principal, id int64) error {
	f.deleted = id
	return nil
}

func TestCommentRoutes(t *testing.T) {
	f := &fakeComments{}
	ctrl := NewCommentController(f)
	r := gin.New()
	r.Use(authed())
	r.POST("/requests/:id/comments", ctrl.CreateComment)
	r.GET("/requests/:id/comments", ctrl.ListComments)
	r.PUT("/comments/:id", ctrl.UpdateComment)
	r.DELETE("/comments/:id", ctrl.DeleteComment)

	w := doJSON(r, http.MethodPost, "/requests/3/comments", map[string]any{"content": "Crew dispatched", "is_internal": true})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"is_internal":true`)

	require.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/requests/3/comments?include_internal=true", nil).Code)
	assert.True(t, f.includeInternal)

	assert.Equal(t, http.StatusForbidden, doJSON(r, http.MethodPut, "/comments/8", map[string]string{"content": "edit"}).Code)

	assert.Equal(t, http.StatusNoContent, doJSON(r, http.MethodDelete, "/comments/8", nil).Code)
	assert.Equal(t, int64(8), f.deleted)
}

type fakeAttachments struct {
	name        string
	description *string
	data        []byte
}

func (f *fakeAttachments) Upload(_ context.Context, actor models.Principal, requestID int64, originalName string, description *string, r io.Reader) (*models.Attachment, error) {
	f.name, f.description = originalName, description
	f.data, _ = io.ReadAll(r)
	return &models.Attachment{ID: 1, RequestID: requestID, UploadedByID: actor.ID, OriginalFilename: originalName, ScanState: models.ScanPending}, nil
}

func (f *fakeAttachments) List(context.Context, models.Principal, int64) ([]models.Attachment, error) {
	return []models.Attachment{}, nil
}

func TestUploadAttachment(t *testing.T) {
	f := &fakeAttachments{}
	ctrl := NewAttachmentController(f)
	r := gin.New()
	r.POST("/requests/:id/attachments", authed(), ctrl.UploadAttachment)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "photo.png")
	require.NoError(t, err)
	_, _ = part.Write([]byte("png bytes"))
	require.NoError(t, mw.WriteField("description", "north side"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/requests/3/attachments", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer token")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "photo.png", f.name)
	require.NotNil(t, f.description)
	assert.Equal(t, "north side", *f.description)
	assert.Equal(t, []byte("png bytes"), f.data)

	missing := httptest.NewRequest(http.MethodPost, "/requests/3/attachments", nil)
	missing.Header.Set("Authorization", "Bearer token")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, missing)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGeoJSONText(t *testing.T) {
	obj := json.RawMessage(`{"type":"Polygon","coordinates":[]}`)
	text, err := geoJSONText(obj)
	require.NoError(t, err)
	assert.Equal(t, string(obj), text)

	text, err = geoJSONText(json.RawMessage(`"{\"type\":\"Polygon\"}"`))
	require.NoError(t, err)
	assert.Equal(t, `{"type":"Polygon"}`, text)

	_, err = geoJSONText(json.RawMessage(`[1,2]`))
	assert.Error(t, err)
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestHealth(t *testing.T) {
	r := gin.New()
	r.GET("/ok", NewHealthController(fakePinger{}).Health)
	r.GET("/down", NewHealthController(fakePinger{err: errors.New("no primary")}).Health)

	assert.Equal(t, http.StatusOK, doJSON(r, http.MethodGet, "/ok", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, doJSON(r, http.MethodGet, "/down", nil).Code)
}
