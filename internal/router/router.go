package router

import (
	"github.com/gin-gonic/gin"

	"docdesk/internal/handler"
	"docdesk/internal/middleware"
	"docdesk/internal/service"
)

// Handlers groups the dashboard handlers.
type Handlers struct {
	Session *handler.SessionHandler
	Jobs    *handler.JobHandler
	Batches *handler.BatchHandler
	Exports *handler.ExportHandler
	Insight *handler.InsightHandler
	Keys    *handler.KeyHandler
	Health  *handler.HealthHandler
}

// Options carries the request-independent settings of the dashboard.
type Options struct {
	AllowedOrigins []string
	Environment    middleware.EnvironmentOptions
}

// Setup configures the Gin engine with all routes and middleware.
func Setup(base service.ClientContext, h Handlers, opts Options) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger("/healthz", "/readyz"))
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Health checks
	r.GET("/healthz", h.Health.Liveness)
	r.GET("/readyz", h.Health.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.ClientContext(base, opts.Environment))
	v1.Use(middleware.RequireClientContext())

	// Session and credentials
	session := v1.Group("/session")
	session.GET("", h.Session.Get)
	session.PUT("/api-key", h.Session.SetAPIKey)
	session.DELETE("/api-key", h.Session.ClearAPIKey)
	session.POST("/admin", h.Session.EnableAdmin)
	session.DELETE("/admin", h.Session.DisableAdmin)

	v1.DELETE("/cache", h.Session.ClearCache)
	v1.GET("/notices", h.Session.Notices)
	v1.DELETE("/notices", h.Session.ClearNotices)

	// Single-document jobs
	jobs := v1.Group("/jobs")
	jobs.GET("", h.Jobs.List)
	jobs.POST("", h.Jobs.Submit)
	jobs.GET("/export/csv", h.Jobs.ExportCSV)
	jobs.POST("/resume", h.Jobs.Resume)
	jobs.GET("/:id", h.Jobs.Get)
	jobs.POST("/:id/select", h.Jobs.Select)
	jobs.DELETE("/:id/track", h.Jobs.Release)

	// Batches
	batches := v1.Group("/batches")
	batches.POST("", h.Batches.Submit)
	batches.GET("/:id", h.Batches.Get)
	batches.POST("/:id/watch", h.Batches.Watch)
	batches.DELETE("/:id/track", h.Batches.Release)
	batches.POST("/:id/export", h.Batches.Export)
	batches.GET("/:id/workbook", h.Batches.Workbook)

	// Exports, reconciliation and validation
	v1.POST("/exports", h.Exports.Download)
	v1.GET("/samples", h.Insight.Samples)
	v1.POST("/samples/:filename/download", h.Exports.DownloadSample)
	v1.GET("/reconcile/itc", h.Insight.ITC)
	v1.GET("/validate/:doc_type/:job_id", h.Insight.Validate)
	v1.GET("/usage", h.Insight.Usage)

	// API keys
	keys := v1.Group("/keys")
	keys.GET("", h.Keys.List)
	keys.POST("", h.Keys.Create)
	keys.POST("/:id/revoke", h.Keys.Revoke)
	keys.POST("/:id/activate", h.Keys.Activate)

	return r
}
