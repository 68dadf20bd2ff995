package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/pagecraft-backend/internal/data/repos"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/quality"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/rotation"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/steps"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/variation"
	"github.com/yungbote/pagecraft-backend/internal/observability"
	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
	"github.com/yungbote/pagecraft-backend/internal/services"
)

type Services struct {
	Templates  services.TemplateService
	Pages      services.PageService
	Content    services.ContentService
	Generation services.GenerationService
}

// wireServices builds the engines once; the content endpoints and generation
// runs share rotation state, variation stats and the pattern log.
func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r repos.Repos, clients Clients, metrics *observability.Metrics) (Services, error) {
	log.Info("Wiring services...")

	rot := rotation.NewEngine(rotation.NewState(), rotation.WithLogger(log))
	vary, err := variation.NewDefaultEngine(log)
	if err != nil {
		return Services{}, fmt.Errorf("init variation engine: %w", err)
	}
	scorer := quality.NewScorer(
		quality.WithMinWords(cfg.Quality.MinWords),
		quality.WithThreshold(cfg.Quality.Threshold),
	)
	plog := variation.NewPatternLog(cfg.Generation.PatternLogSize)

	deps := steps.GeneratePagesDeps{
		DB:        db,
		Log:       log.With("step", "generate_pages"),
		Templates: r.Templates,
		Pages:     r.PotentialPages,
		Results:   r.GeneratedPages,
		AI:        clients.AI,
		Rotation:  rot,
		Variation: vary,
		Scorer:    scorer,
		Bus:       clients.Bus,
		Metrics:   metrics,
	}

	return Services{
		Templates: services.NewTemplateService(log, r.Templates),
		Pages:     services.NewPageService(log, r.Templates, r.PotentialPages, metrics, cfg.Generation.MaxCombinations),
		Content:   services.NewContentService(log, rot, vary, scorer, plog, metrics, cfg.Generation.Strategy()),
		Generation: services.NewGenerationService(log, deps, r.Runs, services.GenerationSettings{
			BatchSize:       cfg.Generation.BatchSize,
			Strategy:        cfg.Generation.Strategy(),
			TotalVariations: cfg.Generation.TotalVariations,
			MaxAttempts:     cfg.Generation.MaxAttempts,
			RetryBackoff:    cfg.Generation.RetryBackoff,
			PatternLogSize:  cfg.Generation.PatternLogSize,
			MinWords:        cfg.Quality.MinWords,
		}),
	}, nil
}
