package routes

import (
	"github.com/gin-gonic/gin"
)

// RequestRoutes sets up the authenticated request, comment and attachment routes
func RequestRoutes(r *gin.Engine, h Handlers) {
	requests := r.Group("/api/requests", h.Authenticate)
	{
		requests.POST("", h.Requests.CreateRequest)
		requests.GET("", h.Requests.ListRequests)
		requests.GET("/stats", h.Requests.GetStats)
		requests.GET("/map", h.Requests.GetMapRequests)
		requests.POST("/triage", h.Requests.TriageRequest)
		requests.GET("/:id", h.Requests.GetRequest)
		requests.PUT("/:id", h.Requests.UpdateRequest)
		requests.POST("/:id/assign", h.Requests.AssignRequest)
		requests.POST("/:id/status", h.Requests.SetRequestStatus)

		requests.POST("/:id/comments", h.Comments.CreateComment)
		requests.GET("/:id/comments", h.Comments.ListComments)
		requests.POST("/:id/attachments", h.Attachments.UploadAttachment)
		requests.GET("/:id/attachments", h.Attachments.ListAttachments)
	}

	comments := r.Group("/api/comments", h.Authenticate)
	{
		comments.PUT("/:id", h.Comments.UpdateComment)
		comments.DELETE("/:id", h.Comments.DeleteComment)
	}
}
