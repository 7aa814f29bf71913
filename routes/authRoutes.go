package routes

import (
	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(r *gin.Engine, h Handlers) {
	auth := r.Group("/api/auth")
	{
		auth.POST("/register", limited(h.AuthLimit, h.Auth.RegisterUser)...)
		auth.POST("/login", limited(h.AuthLimit, h.Auth.LoginUser)...)
		auth.GET("/me", h.Authenticate, h.Auth.GetMe)
		auth.POST("/logout", h.Auth.LogoutUser)
	}
}
