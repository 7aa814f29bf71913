package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"civic311-be/middlewares"
	"civic311-be/models"
	"civic311-be/services"

	"github.com/gin-gonic/gin"
)

type adminService interface {
	CreateBoundary(ctx context.Context, actor models.Principal, name, geojson string) (*models.GeoBoundary, error)
	ListBoundaries(ctx context.Context, actor models.Principal) ([]models.GeoBoundary, error)
	SetCredential(ctx context.Context, actor models.Principal, service, value string) (*models.ApiCredential, error)
	ListCredentials(ctx context.Context, actor models.Principal) ([]models.ApiCredential, error)
	SetRole(ctx context.Context, actor models.Principal, userID int64, role models.Role) (*models.User, error)
	Audit(ctx context.Context, actor models.Principal, entityType string, entityID *int64, skip, limit int64) (*services.Page[models.AuditEvent], error)
}

type AdminController struct {
	admin adminService
}

func NewAdminController(admin adminService) *AdminController {
	return &AdminController{admin: admin}
}

// CreateBoundary accepts the geometry either as a GeoJSON object or as a
// string holding GeoJSON text.
func (a *AdminController) CreateBoundary(c *gin.Context) {
	var input struct {
		Name    string          `json:"name" binding:"required,max=200"`
		GeoJSON json.RawMessage `json:"geojson" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}
	geojson, err := geoJSONText(input.GeoJSON)
	if err != nil {
		badRequest(c, err)
		return
	}

	boundary, err := a.admin.CreateBoundary(c.Request.Context(), middlewares.Principal(c), input.Name, geojson)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, boundary)
}

func geoJSONText(raw json.RawMessage) (string, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", errors.New("geojson must be an object or a string")
	}
	return string(raw), nil
}

func (a *AdminController) ListBoundaries(c *gin.Context) {
	boundaries, err := a.admin.ListBoundaries(c.Request.Context(), middlewares.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, boundaries)
}

func (a *AdminController) SetCredential(c *gin.Context) {
	var input struct {
		ServiceName string `json:"service_name" binding:"required,max=100"`
		Value       string `json:"value" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	cred, err := a.admin.SetCredential(c.Request.Context(), middlewares.Principal(c), input.ServiceName, input.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cred)
}

func (a *AdminController) ListCredentials(c *gin.Context) {
	creds, err := a.admin.ListCredentials(c.Request.Context(), middlewares.Principal(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, creds)
}

func (a *AdminController) SetUserRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Role models.Role `json:"role" binding:"required,oneof=citizen staff admin"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	user, err := a.admin.SetRole(c.Request.Context(), middlewares.Principal(c), id, input.Role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListAudit reads the trail, optionally narrowed by entity_type and entity_id.
func (a *AdminController) ListAudit(c *gin.Context) {
	entityID, err := queryInt64(c, "entity_id")
	if err != nil {
		badRequest(c, err)
		return
	}
	skip, limit, err := pageWindow(c)
	if err != nil {
		badRequest(c, err)
		return
	}

	page, err := a.admin.Audit(c.Request.Context(), middlewares.Principal(c), c.Query("entity_type"), entityID, skip, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
