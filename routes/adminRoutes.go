package routes

import (
	"github.com/gin-gonic/gin"
)

// AdminRoutes sets up configuration and user management. Every handler checks
// config:manage itself.
func AdminRoutes(r *gin.Engine, h Handlers) {
	admin := r.Group("/api/admin", h.Authenticate)
	{
		admin.POST("/geo-boundaries", h.Admin.CreateBoundary)
		admin.GET("/geo-boundaries", h.Admin.ListBoundaries)
		admin.POST("/credentials", h.Admin.SetCredential)
		admin.GET("/credentials", h.Admin.ListCredentials)
		admin.PUT("/users/:id/role", h.Admin.SetUserRole)
		admin.GET("/audit", h.Admin.ListAudit)
	}
}
