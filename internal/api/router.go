package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/landmark/internal/api/handlers"
	"github.com/your-org/landmark/internal/api/ws"
	"github.com/your-org/landmark/internal/auth"
	"github.com/your-org/landmark/internal/pipeline"
	"github.com/your-org/landmark/internal/queue"
	"github.com/your-org/landmark/internal/storage"
)

type RouterConfig struct {
	APIKey      string
	AdminAPIKey string
	DB          *storage.PostgresStore
	Blobs       *storage.MinIOStore
	Pipeline    *pipeline.Pipeline
	Producer    *queue.Producer
	Hub         *ws.Hub
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	// System endpoints (no auth)
	systemH := handlers.NewSystemHandler(cfg.DB, cfg.Blobs, cfg.Producer)
	r.GET("/healthz", systemH.Healthz)
	r.GET("/readyz", systemH.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1 (with auth)
	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))

	// WebSocket
	v1.GET("/ws", cfg.Hub.HandleWS)

	// Image records
	recordH := handlers.NewRecordHandler(cfg.DB, cfg.Blobs, cfg.Pipeline, cfg.Producer)
	v1.POST("/images", recordH.Upload)
	v1.GET("/images", recordH.List)
	v1.GET("/images/:id", recordH.Get)
	v1.GET("/images/:id/file", recordH.File)
	v1.PUT("/images/:id", recordH.Update)

	// Destructive operations need the admin key on top of the API key
	admin := v1.Group("")
	admin.Use(auth.AdminKeyMiddleware(cfg.AdminAPIKey))
	admin.DELETE("/images/:id", recordH.Delete)
	admin.DELETE("/images", recordH.DeleteAll)

	return r
}
