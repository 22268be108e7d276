package server

import (
	"time"

	httpHandler "social-publisher/interfaces/http"
	"social-publisher/interfaces/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Handlers struct {
	Job        httpHandler.IJobHandler
	Queue      httpHandler.IQueueHandler
	RateLimit  httpHandler.IRateLimitHandler
	Connection httpHandler.IConnectionHandler
	Health     httpHandler.IHealthHandler
	// Stream serves the per-tenant job event feed.
	Stream gin.HandlerFunc
}

func InitiateRouter(h Handlers, secretKey string, origins []string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if len(origins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
			ExposeHeaders:    []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", h.Health.Healthz)

	api := router.Group("api")
	api.Use(middleware.Auth(secretKey))

	tenant := api.Group("")
	tenant.Use(middleware.RequireTenant())

	jobs := tenant.Group("/jobs")
	{
		jobs.POST("", h.Job.Create)
		if h.Stream != nil {
			jobs.GET("/stream", h.Stream)
		}
		jobs.GET("/:id", h.Job.Get)
		jobs.POST("/:id/cancel", h.Job.Cancel)
		jobs.POST("/:id/retry", h.Job.Retry)
	}

	// stats are tenant-scoped for tenant tokens and global for operators
	queue := api.Group("/queue")
	{
		queue.GET("/stats", h.Queue.Stats)
		queue.POST("/pause", h.Queue.Pause)
		queue.POST("/resume", h.Queue.Resume)
		queue.POST("/drain", h.Queue.Drain)
	}

	tenant.GET("/rate-limits/:platform", h.RateLimit.Status)
	tenant.DELETE("/rate-limits/:platform", h.RateLimit.Reset)
	tenant.POST("/connections", h.Connection.Connect)

	return router
}
