package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/pagecraft-backend/internal/data/repos"
	types "github.com/yungbote/pagecraft-backend/internal/domain"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/combination"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/pattern"
	"github.com/yungbote/pagecraft-backend/internal/observability"
	"github.com/yungbote/pagecraft-backend/internal/platform/apierr"
	"github.com/yungbote/pagecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
)

const (
	DefaultMaxCombinations = 10000
	HardMaxCombinations    = 100000
)

type GeneratePotentialPagesInput struct {
	TemplateID      uuid.UUID             `json:"template_id"`
	ValueSets       combination.ValueSets `json:"value_sets"`
	MaxCombinations int                   `json:"max_combinations"`
	// DryRun returns the pages without storing them.
	DryRun bool `json:"dry_run"`
}

type GeneratePotentialPagesOutput struct {
	combination.Result
	MaxCombinations int   `json:"max_combinations"`
	Stored          int64 `json:"stored"`
}

type PageService interface {
	GeneratePotentialPages(ctx context.Context, in GeneratePotentialPagesInput) (GeneratePotentialPagesOutput, error)
	ListPotentialPages(ctx context.Context, templateID uuid.UUID, limit, offset int) ([]*types.PotentialPage, int64, error)
}

type pageService struct {
	log             *logger.Logger
	templates       repos.TemplateRepo
	pages           repos.PotentialPageRepo
	metrics         *observability.Metrics
	maxCombinations int
}

// NewPageService caps every request at maxCombinations, itself bounded by
// HardMaxCombinations.
func NewPageService(log *logger.Logger, templates repos.TemplateRepo, pages repos.PotentialPageRepo, metrics *observability.Metrics, maxCombinations int) PageService {
	return &pageService{
		log:             log.With("service", "PageService"),
		templates:       templates,
		pages:           pages,
		metrics:         metrics,
		maxCombinations: EffectiveMaxCombinations(0, maxCombinations),
	}
}

// EffectiveMaxCombinations picks the cap for one request. A non-positive
// request uses the configured limit; nothing exceeds HardMaxCombinations.
func EffectiveMaxCombinations(requested, configured int) int {
	if configured <= 0 || configured > HardMaxCombinations {
		if configured <= 0 {
			configured = DefaultMaxCombinations
		} else {
			configured = HardMaxCombinations
		}
	}
	if requested <= 0 || requested > configured {
		return configured
	}
	return requested
}

func (s *pageService) GeneratePotentialPages(ctx context.Context, in GeneratePotentialPagesInput) (GeneratePotentialPagesOutput, error) {
	out := GeneratePotentialPagesOutput{}
	tmpl, err := s.templates.GetByID(dbctx.Of(ctx), in.TemplateID)
	if errors.Is(err, repos.ErrNotFound) {
		return out, apierr.NotFound("template_not_found", fmt.Errorf("template %s not found", in.TemplateID))
	}
	if err != nil {
		return out, apierr.Internal(err)
	}

	limit := EffectiveMaxCombinations(in.MaxCombinations, s.maxCombinations)
	res, err := combination.Generate(combination.Template{
		ID:      tmpl.ID,
		Pattern: tmpl.Pattern,
		Title:   tmpl.TitleTemplate,
	}, in.ValueSets, limit)
	switch {
	case errors.Is(err, combination.ErrTemplateVariableMismatch):
		return out, apierr.Unprocessable("template_variable_mismatch", err)
	case errors.Is(err, pattern.ErrInvalidPattern):
		return out, apierr.Unprocessable("invalid_pattern", err)
	case err != nil:
		return out, apierr.Internal(err)
	}
	out.Result = res
	out.MaxCombinations = limit
	s.metrics.AddCombinations(len(res.Pages), res.Truncated)
	if res.Truncated {
		s.log.Warn("potential pages truncated",
			"template_id", tmpl.ID,
			"total_combinations", res.TotalCombinations,
			"max_combinations", limit,
		)
	}
	if in.DryRun {
		return out, nil
	}

	rows := make([]*types.PotentialPage, 0, len(res.Pages))
	for _, p := range res.Pages {
		raw, _ := json.Marshal(p.Variables)
		rows = append(rows, &types.PotentialPage{
			ID:          p.ID,
			Ordinal:     p.Ordinal,
			IdentityKey: p.IdentityKey,
			Variables:   datatypes.JSON(raw),
			Title:       p.Title,
			Slug:        p.Slug,
		})
	}
	stored, err := s.pages.ReplaceForTemplate(dbctx.Of(ctx), tmpl.ID, rows)
	if errors.Is(err, repos.ErrConflict) {
		return out, apierr.Conflict("potential_page_conflict", err)
	}
	if err != nil {
		return out, apierr.Internal(fmt.Errorf("store potential pages: %w", err))
	}
	out.Stored = stored
	return out, nil
}

func (s *pageService) ListPotentialPages(ctx context.Context, templateID uuid.UUID, limit, offset int) ([]*types.PotentialPage, int64, error) {
	rows, total, err := s.pages.ListByTemplate(dbctx.Of(ctx), templateID, limit, offset)
	if err != nil {
		return nil, 0, apierr.Internal(err)
	}
	return rows, total, nil
}
