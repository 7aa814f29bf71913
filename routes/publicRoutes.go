package routes

import (
	"github.com/gin-gonic/gin"
)

func PublicRoutes(r *gin.Engine, h Handlers) {
	public := r.Group("/api/public")
	{
		public.POST("/requests", limited(h.PublicCreateLimit, h.Public.SubmitRequest)...)
		public.GET("/requests/:id/status", limited(h.PublicStatusLimit, h.Public.GetRequestStatus)...)
	}
}
