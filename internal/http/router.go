package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/pagecraft-backend/internal/http/handlers"
	httpMW "github.com/yungbote/pagecraft-backend/internal/http/middleware"
	"github.com/yungbote/pagecraft-backend/internal/observability"
	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	TemplateHandler      *httpH.TemplateHandler
	PotentialPageHandler *httpH.PotentialPageHandler
	ContentHandler       *httpH.ContentHandler
	GenerationHandler    *httpH.GenerationHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachRequestContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	{
		// Patterns & templates
		if cfg.TemplateHandler != nil {
			api.POST("/patterns/parse", cfg.TemplateHandler.ParsePattern)
			api.POST("/templates/validate", cfg.TemplateHandler.Validate)
			api.POST("/templates", cfg.TemplateHandler.Create)
			api.GET("/templates", cfg.TemplateHandler.List)
			api.GET("/templates/:id", cfg.TemplateHandler.Get)
		}

		// Potential pages
		if cfg.PotentialPageHandler != nil {
			api.POST("/templates/:id/potential-pages", cfg.PotentialPageHandler.Generate)
			api.GET("/templates/:id/potential-pages", cfg.PotentialPageHandler.List)
		}

		// Rotation, variation, quality
		if cfg.ContentHandler != nil {
			api.POST("/rotation/select", cfg.ContentHandler.Select)
			api.POST("/rotation/performance", cfg.ContentHandler.RecordPerformance)
			api.GET("/rotation/report", cfg.ContentHandler.RotationReport)
			api.POST("/variations", cfg.ContentHandler.Vary)
			api.POST("/variations/patterns", cfg.ContentHandler.DetectPatterns)
			api.GET("/variations/stats", cfg.ContentHandler.VariationStats)
			api.POST("/quality/score", cfg.ContentHandler.Score)
		}

		// Generation runs
		if cfg.GenerationHandler != nil {
			api.POST("/generation-runs", cfg.GenerationHandler.Start)
			api.GET("/generation-runs/:id", cfg.GenerationHandler.Get)
			api.POST("/generation-runs/:id/cancel", cfg.GenerationHandler.Cancel)
		}
	}

	return r
}
