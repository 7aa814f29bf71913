package controllers

import (
	"context"
	"io"
	"net/http"

	"civic311-be/middlewares"
	"civic311-be/models"

	"github.com/gin-gonic/gin"
)

type attachmentService interface {
	Upload(ctx context.Context, actor models.Principal, requestID int64, originalName string, description *string, r io.Reader) (*models.Attachment, error)
	List(ctx context.Context, actor models.Principal, requestID int64) ([]models.Attachment, error)
}

type AttachmentController struct {
	attachments attachmentService
}

func NewAttachmentController(attachments attachmentService) *AttachmentController {
	return &AttachmentController{attachments: attachments}
}

// UploadAttachment accepts a multipart "file" field and an optional
// "description" field.
func (a *AttachmentController) UploadAttachment(c *gin.Context) {
	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	var description *string
	if d, ok := c.GetPostForm("description"); ok && d != "" {
		description = &d
	}

	attachment, err := a.attachments.Upload(c.Request.Context(), middlewares.Principal(c), requestID, header.Filename, description, file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, attachment)
}

func (a *AttachmentController) ListAttachments(c *gin.Context) {
	requestID, ok := pathID(c, "id")
	if !ok {
		return
	}
	attachments, err := a.attachments.List(c.Request.Context(), middlewares.Principal(c), requestID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, attachments)
}
