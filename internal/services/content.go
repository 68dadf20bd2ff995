package services

import (
	"errors"
	"strings"

	"github.com/yungbote/pagecraft-backend/internal/modules/pages/quality"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/rotation"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/variation"
	"github.com/yungbote/pagecraft-backend/internal/observability"
	"github.com/yungbote/pagecraft-backend/internal/platform/apierr"
	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
)

type SelectInput struct {
	PromptKey  string   `json:"prompt_key"`
	Variations []string `json:"variations"`
	Strategy   string   `json:"strategy"`
}

type PerformanceInput struct {
	PromptKey    string  `json:"prompt_key"`
	VariationID  string  `json:"variation_id"`
	Success      bool    `json:"success"`
	QualityScore float64 `json:"quality_score"`
}

type VaryInput struct {
	variation.Request
	// LeastRepetitive probes nearby indices and keeps the one whose
	// structures repeat least against recent content.
	LeastRepetitive bool `json:"least_repetitive"`
}

type ScoreInput struct {
	Content          string   `json:"content"`
	MinWords         int      `json:"min_words"`
	RequiredSections []string `json:"required_sections"`
	// Record adds the content's structures to the shared pattern log.
	Record bool `json:"record"`
}

// ContentService exposes the rotation, variation and quality engines that
// the generation step also drives. All of them share process-wide state.
type ContentService interface {
	Select(in SelectInput) (rotation.Selection, error)
	RecordPerformance(in PerformanceInput) error
	RotationReport() rotation.Report
	Vary(in VaryInput) variation.Result
	DetectPatterns(content string) ContentPatterns
	VariationStats() variation.Stats
	Score(in ScoreInput) quality.Result
	PatternLog() *variation.PatternLog
}

type ContentPatterns struct {
	Patterns   map[variation.PatternType][]string `json:"patterns"`
	Signatures []string                           `json:"signatures"`
	Overused   []string                           `json:"overused"`
}

type contentService struct {
	log             *logger.Logger
	rotation        *rotation.Engine
	variation       *variation.Engine
	scorer          *quality.Scorer
	plog            *variation.PatternLog
	metrics         *observability.Metrics
	defaultStrategy rotation.Strategy
	overuseAt       int
}

const defaultOveruseThreshold = 3

func NewContentService(
	log *logger.Logger,
	rot *rotation.Engine,
	vary *variation.Engine,
	scorer *quality.Scorer,
	plog *variation.PatternLog,
	metrics *observability.Metrics,
	defaultStrategy rotation.Strategy,
) ContentService {
	if plog == nil {
		plog = variation.NewPatternLog(variation.DefaultPatternLogSize)
	}
	if !defaultStrategy.Valid() {
		defaultStrategy = rotation.DefaultStrategy
	}
	return &contentService{
		log:             log.With("service", "ContentService"),
		rotation:        rot,
		variation:       vary,
		scorer:          scorer,
		plog:            plog,
		metrics:         metrics,
		defaultStrategy: defaultStrategy,
		overuseAt:       defaultOveruseThreshold,
	}
}

func (s *contentService) PatternLog() *variation.PatternLog { return s.plog }

func (s *contentService) Select(in SelectInput) (rotation.Selection, error) {
	strategy := s.defaultStrategy
	if raw := strings.TrimSpace(in.Strategy); raw != "" {
		parsed, err := rotation.ParseStrategy(raw)
		if err != nil {
			return rotation.Selection{}, apierr.BadRequest("unknown_strategy", err)
		}
		strategy = parsed
	}
	if strings.TrimSpace(in.PromptKey) == "" {
		return rotation.Selection{}, apierr.BadRequest("missing_prompt_key", errors.New("prompt_key is required"))
	}
	sel, err := s.rotation.Select(in.PromptKey, in.Variations, strategy)
	if errors.Is(err, rotation.ErrNoVariationsAvailable) {
		return sel, apierr.Unprocessable("no_variations_available", err)
	}
	if err != nil {
		return sel, apierr.Internal(err)
	}
	s.metrics.IncSelection(strategy.String())
	return sel, nil
}

func (s *contentService) RecordPerformance(in PerformanceInput) error {
	err := s.rotation.RecordPerformance(in.PromptKey, in.VariationID, in.Success, rotation.PerformanceMeta{QualityScore: in.QualityScore})
	if errors.Is(err, rotation.ErrUnknownVariation) {
		return apierr.BadRequest("unknown_variation", err)
	}
	if err != nil {
		return apierr.Internal(err)
	}
	return nil
}

func (s *contentService) RotationReport() rotation.Report {
	return s.rotation.Report()
}

func (s *contentService) Vary(in VaryInput) variation.Result {
	if in.LeastRepetitive {
		return s.variation.CreateLeastRepetitive(in.Request, s.plog)
	}
	return s.variation.CreateVariedContent(in.Request)
}

func (s *contentService) DetectPatterns(content string) ContentPatterns {
	patterns := s.variation.DetectContentPatterns(content)
	overused := s.plog.Overused(s.overuseAt)
	if overused == nil {
		overused = []string{}
	}
	return ContentPatterns{
		Patterns:   patterns,
		Signatures: variation.Signatures(patterns),
		Overused:   overused,
	}
}

func (s *contentService) VariationStats() variation.Stats {
	return s.variation.Stats()
}

func (s *contentService) Score(in ScoreInput) quality.Result {
	exp := quality.Expectations{MinWords: in.MinWords, RequiredSections: in.RequiredSections}
	if in.Record {
		return s.scorer.ScoreAndRecord(in.Content, exp, s.plog)
	}
	return s.scorer.Score(in.Content, exp, s.plog.Snapshot())
}
