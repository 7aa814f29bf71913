package controllers

import (
	"context"
	"net/http"
	"strings"

	"civic311-be/classifier"
	"civic311-be/middlewares"
	"civic311-be/models"
	"civic311-be/services"

	"github.com/gin-gonic/gin"
)

type lifecycle interface {
	Create(ctx context.Context, actor models.Principal, draft models.RequestDraft) (*models.ServiceRequest, error)
	Get(ctx context.Context, actor models.Principal, id int64) (*models.ServiceRequest, error)
	Update(ctx context.Context, actor models.Principal, id int64, patch models.RequestPatch) (*models.ServiceRequest, error)
	Assign(ctx context.Context, actor models.Principal, id, staffID int64) (*models.ServiceRequest, error)
	SetStatus(ctx context.Context, actor models.Principal, id int64, status models.RequestStatus) (*models.ServiceRequest, error)
}

type directory interface {
	List(ctx context.Context, actor models.Principal, filter models.RequestFilter, skip, limit int64) (*services.Page[models.ServiceRequest], error)
	Stats(ctx context.Context, actor models.Principal) (*models.RequestStats, error)
	RecentLocated(ctx context.Context, actor models.Principal, n int64) ([]models.LocatedRequest, error)
}

type suggester interface {
	Suggest(description string) classifier.Suggestion
}

type RequestController struct {
	requests  lifecycle
	directory directory
	triage    suggester
}

func NewRequestController(requests lifecycle, dir directory, triage suggester) *RequestController {
	return &RequestController{requests: requests, directory: dir, triage: triage}
}

// CreateRequest handles the creation of a new service request
func (r *RequestController) CreateRequest(c *gin.Context) {
	var draft models.RequestDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}

	req, err := r.requests.Create(c.Request.Context(), middlewares.Principal(c), draft)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

// ListRequests returns one page of the requests the caller may see
func (r *RequestController) ListRequests(c *gin.Context) {
	filter, err := requestFilter(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	skip, limit, err := pageWindow(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	page, err := r.directory.List(c.Request.Context(), middlewares.Principal(c), filter, skip, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// requestFilter reads the listing filters. "all" is treated as no filter.
func requestFilter(c *gin.Context) (models.RequestFilter, error) {
	filter := models.RequestFilter{Search: strings.TrimSpace(c.Query("search"))}

	if v := c.Query("status"); v != "" && v != "all" {
		st, err := models.ParseStatus(v)
		if err != nil {
			return filter, err
		}
		filter.Status = &st
	}
	if v := c.Query("category"); v != "" && v != "all" {
		cat, err := models.ParseCategory(v)
		if err != nil {
			return filter, err
		}
		filter.Category = &cat
	}
	if v := c.Query("priority"); v != "" && v != "all" {
		p, err := models.ParsePriority(v)
		if err != nil {
			return filter, err
		}
		filter.Priority = &p
	}

	var err error
	if filter.AssignedStaffID, err = queryInt64(c, "assigned_staff_id"); err != nil {
		return filter, err
	}
	if filter.CitizenID, err = queryInt64(c, "citizen_id"); err != nil {
		return filter, err
	}
	return filter, nil
}

// GetStats returns dashboard counters for the caller's scope
func (r *RequestController) GetStats(c *gin.Context) {
	stats, err := r.directory.Stats(c.Request.Context(), middlewares.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// GetMapRequests returns the newest requests that carry coordinates
func (r *RequestController) GetMapRequests(c *gin.Context) {
	limit, err := queryInt64(c, "limit")
	if err != nil {
		badRequest(c, err)
		return
	}
	n := int64(0)
	if limit != nil {
		n = *limit
	}

	located, err := r.directory.RecentLocated(c.Request.Context(), middlewares.Principal(c), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, located)
}

// TriageRequest suggests category, priority and sentiment for a description
func (r *RequestController) TriageRequest(c *gin.Context) {
	var input struct {
		Description string `json:"description" binding:"required,max=2000"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, r.triage.Suggest(input.Description))
}

// GetRequest returns a single request
func (r *RequestController) GetRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, err := r.requests.Get(c.Request.Context(), middlewares.Principal(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// UpdateRequest applies a partial update
func (r *RequestController) UpdateRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var patch models.RequestPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}

	req, err := r.requests.Update(c.Request.Context(), middlewares.Principal(c), id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// AssignRequest assigns a staff member and moves the request to assigned.
// staff_id comes from the query string or the JSON body.
func (r *RequestController) AssignRequest(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	staffID, err := queryInt64(c, "staff_id")
	if err != nil {
		badRequest(c, err)
		return
	}
	if staffID == nil {
		var input struct {
			StaffID int64 `json:"staff_id" binding:"required,gt=0"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}
		staffID = &input.StaffID
	}

	req, err := r.requests.Assign(c.Request.Context(), middlewares.Principal(c), id, *staffID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

// SetRequestStatus changes only the status, read from the query string or
// the JSON body.
func (r *RequestController) SetRequestStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	raw := c.Query("status")
	if raw == "" {
		var input struct {
			Status string `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			badRequest(c, err)
			return
		}
		raw = input.Status
	}
	status, err := models.ParseStatus(raw)
	if err != nil {
		respondError(c, err)
		return
	}

	req, err := r.requests.SetStatus(c.Request.Context(), middlewares.Principal(c), id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
