package routes

import (
	"net/http"
	"time"

	"civic311-be/controllers"
	"civic311-be/middlewares"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Auth        *controllers.AuthController
	Requests    *controllers.RequestController
	Comments    *controllers.CommentController
	Attachments *controllers.AttachmentController
	Admin       *controllers.AdminController
	Public      *controllers.PublicController
	Health      *controllers.HealthController

	Authenticate gin.HandlerFunc

	// Per-route limiters; nil disables limiting.
	AuthLimit         gin.HandlerFunc
	PublicCreateLimit gin.HandlerFunc
	PublicStatusLimit gin.HandlerFunc
}

type RouterOptions struct {
	CORSOrigins        []string
	MaxMultipartMemory int64
}

func NewRouter(h Handlers, opts RouterOptions, logger *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(middlewares.Recovery(logger), middlewares.RequestLogger(logger))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     opts.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	if opts.MaxMultipartMemory > 0 {
		r.MaxMultipartMemory = opts.MaxMultipartMemory
	}

	r.GET("/health", h.Health.Health)
	r.GET("/api/health", h.Health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	AuthRoutes(r, h)
	RequestRoutes(r, h)
	AdminRoutes(r, h)
	PublicRoutes(r, h)
	return r
}

// limited prepends the limiter when one is configured.
func limited(limiter gin.HandlerFunc, handler gin.HandlerFunc) []gin.HandlerFunc {
	if limiter == nil {
		return []gin.HandlerFunc{handler}
	}
	return []gin.HandlerFunc{limiter, handler}
}
