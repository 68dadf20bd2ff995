package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/pagecraft-backend/internal/data/repos"
	types "github.com/yungbote/pagecraft-backend/internal/domain"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/quality"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/rotation"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/variation"
	"github.com/yungbote/pagecraft-backend/internal/observability"
	"github.com/yungbote/pagecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
	"github.com/yungbote/pagecraft-backend/internal/platform/openai"
	"github.com/yungbote/pagecraft-backend/internal/platform/redisbus"
)

const (
	DefaultBatchSize       = 4
	MaxBatchSize           = 32
	DefaultMaxAttempts     = 3
	DefaultRetryBackoff    = 500 * time.Millisecond
	DefaultTotalVariations = 3
	maxRetryBackoff        = 30 * time.Second
)

const (
	PageSucceeded = "succeeded"
	PageFailed    = "failed"
	PageSkipped   = "skipped"
	PageCanceled  = "canceled"
)

type GeneratePagesDeps struct {
	DB        *gorm.DB
	Log       *logger.Logger
	Templates repos.TemplateRepo
	Pages     repos.PotentialPageRepo
	Results   repos.GeneratedPageRepo
	AI        openai.Client
	Rotation  *rotation.Engine
	Variation *variation.Engine
	Scorer    *quality.Scorer
	// Optional.
	Bus     redisbus.Bus
	Metrics *observability.Metrics
}

type GeneratePagesInput struct {
	RunID            uuid.UUID
	PotentialPageIDs []uuid.UUID
	BatchSize        int
	Strategy         rotation.Strategy
	TotalVariations  int
	MaxAttempts      int
	RetryBackoff     time.Duration
	Expectations     quality.Expectations
	// PatternLog is shared by every page of the batch; a fresh one is used when nil.
	PatternLog *variation.PatternLog
	// OnPage is called once per page as it settles, from worker goroutines.
	OnPage func(PageOutcome)
}

type PageOutcome struct {
	PotentialPageID uuid.UUID `json:"potential_page_id"`
	Status          string    `json:"status"`
	Attempts        int       `json:"attempts"`
	VariationID     string    `json:"variation_id,omitempty"`
	QualityScore    float64   `json:"quality_score,omitempty"`
	Flagged         bool      `json:"flagged,omitempty"`
	Error           string    `json:"error,omitempty"`
}

type GeneratePagesOutput struct {
	Requested int           `json:"requested"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Skipped   int           `json:"skipped"`
	Canceled  int           `json:"canceled"`
	Pages     []PageOutcome `json:"pages"`
}

// Status folds the per-page outcomes into a run status.
func (o GeneratePagesOutput) Status() string {
	switch {
	case o.Canceled > 0:
		return types.RunStatusCanceled
	case o.Failed == 0:
		return types.RunStatusSucceeded
	case o.Succeeded == 0 && o.Skipped == 0:
		return types.RunStatusFailed
	default:
		return types.RunStatusPartial
	}
}

// ClampBatchSize bounds the worker pool size.
func ClampBatchSize(n int) int {
	if n <= 0 {
		return DefaultBatchSize
	}
	if n > MaxBatchSize {
		return MaxBatchSize
	}
	return n
}

// GeneratePages synthesizes content for the given potential pages with at most
// BatchSize syntheses in flight. A page that fails is reported in the output
// and never aborts the others. Once ctx is canceled no new page is started,
// and pages whose synthesis returns after cancellation are not persisted.
func GeneratePages(ctx context.Context, deps GeneratePagesDeps, in GeneratePagesInput) (GeneratePagesOutput, error) {
	out := GeneratePagesOutput{Pages: []PageOutcome{}}
	if deps.DB == nil || deps.Log == nil || deps.Templates == nil || deps.Pages == nil || deps.Results == nil ||
		deps.AI == nil || deps.Rotation == nil || deps.Variation == nil || deps.Scorer == nil {
		return out, fmt.Errorf("generate_pages: missing deps")
	}
	if !in.Strategy.Valid() {
		in.Strategy = rotation.DefaultStrategy
	}
	if in.TotalVariations <= 0 {
		in.TotalVariations = DefaultTotalVariations
	}
	if in.MaxAttempts <= 0 {
		in.MaxAttempts = DefaultMaxAttempts
	}
	if in.RetryBackoff < 0 {
		in.RetryBackoff = 0
	} else if in.RetryBackoff == 0 {
		in.RetryBackoff = DefaultRetryBackoff
	}
	if in.PatternLog == nil {
		in.PatternLog = variation.NewPatternLog(variation.DefaultPatternLogSize)
	}
	if deps.Bus == nil {
		deps.Bus = redisbus.Noop{}
	}
	batchSize := ClampBatchSize(in.BatchSize)

	ctx, span := observability.Tracer().Start(ctx, "pages.generate_batch")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", in.RunID.String()),
		attribute.Int("requested", len(in.PotentialPageIDs)),
		attribute.Int("batch_size", batchSize),
		attribute.String("strategy", in.Strategy.String()),
	)

	ids := DedupeIDs(in.PotentialPageIDs)
	out.Requested = len(ids)
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := deps.Pages.GetByIDs(dbctx.Context{Ctx: ctx}, ids)
	if err != nil {
		span.RecordError(err)
		return out, fmt.Errorf("generate_pages: load potential pages: %w", err)
	}
	byID := make(map[uuid.UUID]*types.PotentialPage, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}

	templates := map[uuid.UUID]*types.Template{}
	outcomes := make([]PageOutcome, len(ids))
	settle := func(i int, o PageOutcome) {
		outcomes[i] = o
		deps.Metrics.ObservePage(o.Status, o.QualityScore)
		if in.OnPage != nil {
			in.OnPage(o)
		}
		publish(ctx, deps, in.RunID, o)
	}

	g := new(errgroup.Group)
	g.SetLimit(batchSize)
	for i, id := range ids {
		if ctx.Err() != nil {
			settle(i, PageOutcome{PotentialPageID: id, Status: PageCanceled, Error: ctx.Err().Error()})
			continue
		}
		page := byID[id]
		if page == nil {
			settle(i, PageOutcome{PotentialPageID: id, Status: PageFailed, Error: "potential page not found"})
			continue
		}
		if page.Generated {
			settle(i, PageOutcome{PotentialPageID: id, Status: PageSkipped, Error: "already generated"})
			continue
		}
		tmpl, ok := templates[page.TemplateID]
		if !ok {
			tmpl, err = deps.Templates.GetByID(dbctx.Context{Ctx: ctx}, page.TemplateID)
			if err != nil {
				deps.Log.Warn("generate_pages: template lookup failed", "template_id", page.TemplateID, "error", err)
				tmpl = nil
			}
			templates[page.TemplateID] = tmpl
		}
		if tmpl == nil {
			settle(i, PageOutcome{PotentialPageID: id, Status: PageFailed, Error: "template not found"})
			continue
		}

		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				settle(i, PageOutcome{PotentialPageID: id, Status: PageCanceled, Error: err.Error()})
				return nil
			}
			settle(i, generateOne(ctx, deps, in, tmpl, page))
			return nil
		})
	}
	_ = g.Wait()

	out.Pages = outcomes
	for _, o := range outcomes {
		switch o.Status {
		case PageSucceeded:
			out.Succeeded++
		case PageFailed:
			out.Failed++
		case PageSkipped:
			out.Skipped++
		case PageCanceled:
			out.Canceled++
		}
	}
	span.SetAttributes(
		attribute.Int("succeeded", out.Succeeded),
		attribute.Int("failed", out.Failed),
		attribute.Int("canceled", out.Canceled),
	)
	deps.Log.Info("generate_pages: batch done",
		"run_id", in.RunID,
		"requested", out.Requested,
		"succeeded", out.Succeeded,
		"failed", out.Failed,
		"skipped", out.Skipped,
		"canceled", out.Canceled,
	)
	return out, nil
}

// PromptKey identifies the rotation state of a template's body block.
func PromptKey(templateID uuid.UUID) string {
	return "template:" + templateID.String() + ":body"
}

// VariationIDs names the n variations of a content block.
func VariationIDs(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("v%d", i)
	}
	return out
}

func generateOne(ctx context.Context, deps GeneratePagesDeps, in GeneratePagesInput, tmpl *types.Template, page *types.PotentialPage) PageOutcome {
	o := PageOutcome{PotentialPageID: page.ID}
	ctx, span := observability.Tracer().Start(ctx, "pages.generate_page")
	defer span.End()
	span.SetAttributes(attribute.String("potential_page_id", page.ID.String()), attribute.String("slug", page.Slug))

	promptKey := PromptKey(tmpl.ID)
	sel, err := deps.Rotation.Select(promptKey, VariationIDs(in.TotalVariations), in.Strategy)
	if err != nil {
		o.Status, o.Error = PageFailed, err.Error()
		return o
	}
	deps.Metrics.IncSelection(in.Strategy.String())

	vars := map[string]string{}
	if len(page.Variables) > 0 {
		if err := json.Unmarshal(page.Variables, &vars); err != nil {
			o.Status, o.Error = PageFailed, fmt.Sprintf("decode variables: %v", err)
			return o
		}
	}
	if _, ok := vars["title"]; !ok {
		vars["title"] = page.Title
	}

	// Start at the rotation's pick and walk away from structures the run
	// has already overused.
	varied := deps.Variation.CreateLeastRepetitive(variation.Request{
		BaseContent:     basePageContent(tmpl),
		ContentType:     "body",
		ContextValues:   vars,
		VariationIndex:  sel.Position,
		TotalVariations: in.TotalVariations,
	}, in.PatternLog)
	variationID := sel.VariationID
	if varied.Metadata.VariationIndex != sel.Position {
		variationID = fmt.Sprintf("v%d", varied.Metadata.VariationIndex)
	}
	o.VariationID = variationID
	prompt := pagePrompt{
		Title:     page.Title,
		Meta:      renderSection(tmpl.MetaTemplate, vars),
		Heading:   renderSection(tmpl.HeadingTemplate, vars),
		Variables: vars,
		Draft:     varied.Content,
	}

	text, attempts, err := synthesize(ctx, deps, pageSystemPrompt, prompt.String(), in.MaxAttempts, in.RetryBackoff)
	o.Attempts = attempts
	if err != nil {
		if ctx.Err() != nil {
			o.Status, o.Error = PageCanceled, ctx.Err().Error()
			return o
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "synthesis failed")
		_ = deps.Rotation.RecordPerformance(promptKey, variationID, false, rotation.PerformanceMeta{})
		o.Status, o.Error = PageFailed, err.Error()
		deps.Log.Warn("generate_pages: page failed", "potential_page_id", page.ID, "attempts", attempts, "error", err)
		return o
	}
	if ctx.Err() != nil {
		// Abandoned: the result arrived after cancellation.
		o.Status, o.Error = PageCanceled, ctx.Err().Error()
		return o
	}

	score := deps.Scorer.ScoreAndRecord(text, in.Expectations, in.PatternLog)
	meta, _ := json.Marshal(struct {
		Selection rotation.Selection `json:"selection"`
		Variation variation.Metadata `json:"variation"`
		Quality   quality.Breakdown  `json:"quality"`
	}{sel, varied.Metadata, score.Breakdown})

	result := &types.GeneratedPage{
		PotentialPageID:   page.ID,
		Content:           text,
		WordCount:         score.Breakdown.WordCount,
		QualityScore:      score.Score,
		Flagged:           score.Flagged,
		VariationID:       variationID,
		VariationMetadata: datatypes.JSON(meta),
	}
	if in.RunID != uuid.Nil {
		runID := in.RunID
		result.RunID = &runID
	}
	err = deps.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := deps.Results.Create(dbc, result); err != nil {
			return err
		}
		return deps.Pages.MarkGenerated(dbc, page.ID)
	})
	if err != nil {
		if errors.Is(err, repos.ErrConflict) {
			o.Status, o.Error = PageSkipped, "already generated"
			return o
		}
		if ctx.Err() != nil {
			o.Status, o.Error = PageCanceled, ctx.Err().Error()
			return o
		}
		span.RecordError(err)
		o.Status, o.Error = PageFailed, fmt.Sprintf("persist: %v", err)
		return o
	}

	_ = deps.Rotation.RecordPerformance(promptKey, variationID, true, rotation.PerformanceMeta{QualityScore: score.Score})
	o.Status, o.QualityScore, o.Flagged = PageSucceeded, score.Score, score.Flagged
	span.SetAttributes(attribute.Float64("quality_score", score.Score))
	return o
}

// synthesize calls the text capability up to maxAttempts times with
// exponential backoff between attempts.
func synthesize(ctx context.Context, deps GeneratePagesDeps, system, user string, maxAttempts int, backoff time.Duration) (string, int, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		text, err := deps.AI.GenerateText(ctx, system, user)
		if err == nil && strings.TrimSpace(text) == "" {
			err = errors.New("empty completion")
		}
		if err == nil {
			deps.Metrics.ObserveSynthesis("ok", time.Since(start))
			return text, attempt, nil
		}
		deps.Metrics.ObserveSynthesis("error", time.Since(start))
		lastErr = err
		if ctx.Err() != nil {
			return "", attempt, ctx.Err()
		}
		if attempt == maxAttempts {
			break
		}
		delay := backoff << (attempt - 1)
		if delay > maxRetryBackoff || delay <= 0 {
			delay = maxRetryBackoff
		}
		if backoff == 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", attempt, ctx.Err()
		case <-timer.C:
		}
	}
	return "", maxAttempts, &SynthesisError{Attempts: maxAttempts, Err: lastErr}
}

func publish(ctx context.Context, deps GeneratePagesDeps, runID uuid.UUID, o PageOutcome) {
	if runID == uuid.Nil {
		return
	}
	ev := redisbus.Event{
		Type:            redisbus.EventPageDone,
		RunID:           runID.String(),
		PotentialPageID: o.PotentialPageID.String(),
		Status:          o.Status,
		Attempts:        o.Attempts,
		QualityScore:    o.QualityScore,
		Error:           o.Error,
	}
	// Publish even when ctx is done so listeners see canceled pages.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := deps.Bus.Publish(pubCtx, ev); err != nil {
		deps.Log.Debug("generate_pages: publish failed", "run_id", runID, "error", err)
	}
}

// DedupeIDs drops uuid.Nil and repeats, keeping first-seen order.
func DedupeIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
