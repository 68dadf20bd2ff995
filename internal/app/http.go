package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/pagecraft-backend/internal/http"
	httpH "github.com/yungbote/pagecraft-backend/internal/http/handlers"
	"github.com/yungbote/pagecraft-backend/internal/observability"
	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
)

type Handlers struct {
	Health        *httpH.HealthHandler
	Template      *httpH.TemplateHandler
	PotentialPage *httpH.PotentialPageHandler
	Content       *httpH.ContentHandler
	Generation    *httpH.GenerationHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:        httpH.NewHealthHandler(db),
		Template:      httpH.NewTemplateHandler(services.Templates),
		PotentialPage: httpH.NewPotentialPageHandler(services.Pages),
		Content:       httpH.NewContentHandler(services.Content),
		Generation:    httpH.NewGenerationHandler(services.Generation),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *http.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return http.NewServer(http.RouterConfig{
		Log:                  log,
		Metrics:              metrics,
		ServiceName:          serviceName,
		CORSOrigins:          cfg.HTTP.CORSOrigins,
		HealthHandler:        handlers.Health,
		TemplateHandler:      handlers.Template,
		PotentialPageHandler: handlers.PotentialPage,
		ContentHandler:       handlers.Content,
		GenerationHandler:    handlers.Generation,
	})
}
