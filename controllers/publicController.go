package controllers

import (
	"context"
	"net/http"

	"civic311-be/models"

	"github.com/gin-gonic/gin"
)

type anonymousAccount interface {
	Anonymous(ctx context.Context) (*models.User, error)
}

type publicLifecycle interface {
	Create(ctx context.Context, actor models.Principal, draft models.RequestDraft) (*models.ServiceRequest, error)
	PublicStatus(ctx context.Context, id int64) (*models.PublicStatus, error)
}

// PublicController serves callers without an account.
type PublicController struct {
	users    anonymousAccount
	requests publicLifecycle
}

func NewPublicController(users anonymousAccount, requests publicLifecycle) *PublicController {
	return &PublicController{users: users, requests: requests}
}

// SubmitRequest files a request on behalf of the system anonymous account.
func (p *PublicController) SubmitRequest(c *gin.Context) {
	var draft models.RequestDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		badRequest(c, err)
		return
	}
	draft.IsAnonymous = true

	anon, err := p.users.Anonymous(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	req, err := p.requests.Create(c.Request.Context(), anon.Principal(), draft)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":         req.ID,
		"status":     req.Status,
		"created_at": req.CreatedAt,
	})
}

func (p *PublicController) GetRequestStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	status, err := p.requests.PublicStatus(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
