package controllers

import (
	"context"
	"net/http"

	"civic311-be/middlewares"
	"civic311-be/models"
	"civic311-be/services"

	"github.com/gin-gonic/gin"
)

type commentService interface {
	Create(ctx context.Context, actor models.Principal, requestID int64, content string, internal bool) (*models.Comment, error)
	List(ctx context.Context, actor models.Principal, requestID int64, includeInternal bool, skip, limit int64) (*services.Page[models.Comment], error)
	Edit(ctx context.Context, actor models.Principal, id int64, content string) (*models.Comment, error)
	Delete(ctx context.Context, actor models.Principal, id int64) error
}

type CommentController struct {
	comments commentService
}

func NewCommentController(comments commentService) *CommentController {
	return &CommentController{comments: comments}
}

func (cc *CommentController) CreateComment(c *gin.Context) {
	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Content    string `json:"content" binding:"required"`
		IsInternal bool   `json:"is_internal"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	comment, err := cc.comments.Create(c.Request.Context(), middlewares.Principal(c), requestID, input.Content, input.IsInternal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ListComments returns the request's comments, newest first. Internal notes
// are included only when asked for and the caller may read them.
func (cc *CommentController) ListComments(c *gin.Context) {
	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}
	skip, limit, err := pageWindow(c)
	if err != nil {
		badRequest(c, err)
		return
	}
	includeInternal := c.Query("include_internal") == "true"

	page, err := cc.comments.List(c.Request.Context(), middlewares.Principal(c), requestID, includeInternal, skip, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (cc *CommentController) UpdateComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var input struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	comment, err := cc.comments.Edit(c.Request.Context(), middlewares.Principal(c), id, input.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (cc *CommentController) DeleteComment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := cc.comments.Delete(c.Request.Context(), middlewares.Principal(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
