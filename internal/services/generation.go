package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/pagecraft-backend/internal/data/repos"
	types "github.com/yungbote/pagecraft-backend/internal/domain"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/quality"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/rotation"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/steps"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/variation"
	"github.com/yungbote/pagecraft-backend/internal/platform/apierr"
	"github.com/yungbote/pagecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
	"github.com/yungbote/pagecraft-backend/internal/platform/redisbus"
)

// GenerationSettings are the process-wide defaults for generation runs.
type GenerationSettings struct {
	BatchSize       int
	Strategy        rotation.Strategy
	TotalVariations int
	MaxAttempts     int
	RetryBackoff    time.Duration
	PatternLogSize  int
	MinWords        int
}

type GenerateInput struct {
	PotentialPageIDs []uuid.UUID `json:"potential_page_ids"`
	BatchSize        int         `json:"batch_size"`
	Strategy         string      `json:"strategy"`
	RequiredSections []string    `json:"required_sections"`
}

type GenerationService interface {
	// Start records a run and generates its pages in the background.
	Start(ctx context.Context, in GenerateInput) (*types.GenerationRun, error)
	// GenerateSelected generates the pages before returning.
	GenerateSelected(ctx context.Context, in GenerateInput) (*types.GenerationRun, steps.GeneratePagesOutput, error)
	Get(ctx context.Context, id uuid.UUID) (*types.GenerationRun, error)
	Cancel(ctx context.Context, id uuid.UUID) (*types.GenerationRun, error)
	// Shutdown cancels every active run and waits for them to settle.
	Shutdown(ctx context.Context) error
}

type generationService struct {
	log      *logger.Logger
	deps     steps.GeneratePagesDeps
	runs     repos.GenerationRunRepo
	settings GenerationSettings

	// base is the parent of every background run context.
	base       context.Context
	baseCancel context.CancelFunc

	mu     sync.Mutex
	active map[uuid.UUID]context.CancelFunc
	wg     sync.WaitGroup
}

func NewGenerationService(log *logger.Logger, deps steps.GeneratePagesDeps, runs repos.GenerationRunRepo, settings GenerationSettings) GenerationService {
	base, cancel := context.WithCancel(context.Background())
	if deps.Bus == nil {
		deps.Bus = redisbus.Noop{}
	}
	return &generationService{
		log:        log.With("service", "GenerationService"),
		deps:       deps,
		runs:       runs,
		settings:   settings,
		base:       base,
		baseCancel: cancel,
		active:     map[uuid.UUID]context.CancelFunc{},
	}
}

func (s *generationService) strategy(raw string) (rotation.Strategy, error) {
	if raw == "" {
		if s.settings.Strategy.Valid() {
			return s.settings.Strategy, nil
		}
		return rotation.DefaultStrategy, nil
	}
	st, err := rotation.ParseStrategy(raw)
	if err != nil {
		return 0, apierr.BadRequest("unknown_strategy", err)
	}
	return st, nil
}

// prepare validates the request and stores a queued run for it.
func (s *generationService) prepare(ctx context.Context, in GenerateInput) (*types.GenerationRun, steps.GeneratePagesInput, error) {
	var stepIn steps.GeneratePagesInput
	ids := steps.DedupeIDs(in.PotentialPageIDs)
	if len(ids) == 0 {
		return nil, stepIn, apierr.BadRequest("missing_potential_page_ids", errors.New("potential_page_ids is required"))
	}
	strategy, err := s.strategy(in.Strategy)
	if err != nil {
		return nil, stepIn, err
	}
	batch := in.BatchSize
	if batch <= 0 {
		batch = s.settings.BatchSize
	}
	batch = steps.ClampBatchSize(batch)

	rows, err := s.deps.Pages.GetByIDs(dbctx.Of(ctx), ids)
	if err != nil {
		return nil, stepIn, apierr.Internal(err)
	}
	if len(rows) == 0 {
		return nil, stepIn, apierr.NotFound("potential_pages_not_found", errors.New("none of the potential pages exist"))
	}
	// A run belongs to the template of the first requested page that exists.
	templateID := rows[0].TemplateID
	found := make(map[uuid.UUID]uuid.UUID, len(rows))
	for _, r := range rows {
		found[r.ID] = r.TemplateID
	}
	for _, id := range ids {
		if tid, ok := found[id]; ok {
			templateID = tid
			break
		}
	}

	run, err := s.runs.Create(dbctx.Of(ctx), &types.GenerationRun{
		TemplateID: templateID,
		Status:     types.RunStatusQueued,
		Strategy:   strategy.String(),
		BatchSize:  batch,
		Requested:  len(ids),
	})
	if err != nil {
		return nil, stepIn, apierr.Internal(fmt.Errorf("create run: %w", err))
	}

	stepIn = steps.GeneratePagesInput{
		RunID:            run.ID,
		PotentialPageIDs: ids,
		BatchSize:        batch,
		Strategy:         strategy,
		TotalVariations:  s.settings.TotalVariations,
		MaxAttempts:      s.settings.MaxAttempts,
		RetryBackoff:     s.settings.RetryBackoff,
		Expectations:     quality.Expectations{MinWords: s.settings.MinWords, RequiredSections: in.RequiredSections},
		PatternLog:       variation.NewPatternLog(s.settings.PatternLogSize),
	}
	return run, stepIn, nil
}

func (s *generationService) Start(ctx context.Context, in GenerateInput) (*types.GenerationRun, error) {
	run, stepIn, err := s.prepare(ctx, in)
	if err != nil {
		return nil, err
	}
	runCtx, cancel := context.WithCancel(s.base)
	s.mu.Lock()
	s.active[run.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			s.mu.Lock()
			delete(s.active, run.ID)
			s.mu.Unlock()
			cancel()
		}()
		if _, err := s.execute(runCtx, run.ID, stepIn); err != nil {
			s.log.Error("generation run failed", "run_id", run.ID, "error", err)
		}
	}()
	s.log.Info("generation run started", "run_id", run.ID, "requested", run.Requested, "batch_size", run.BatchSize)
	return run, nil
}

func (s *generationService) GenerateSelected(ctx context.Context, in GenerateInput) (*types.GenerationRun, steps.GeneratePagesOutput, error) {
	run, stepIn, err := s.prepare(ctx, in)
	if err != nil {
		return nil, steps.GeneratePagesOutput{}, err
	}
	out, err := s.execute(ctx, run.ID, stepIn)
	if err != nil {
		return nil, out, apierr.Internal(err)
	}
	final, err := s.runs.GetByID(dbctx.Of(context.WithoutCancel(ctx)), run.ID)
	if err != nil {
		return nil, out, apierr.Internal(err)
	}
	return final, out, nil
}

// execute drives one run from running to a terminal status. Status writes
// use a context detached from ctx so a canceled run still records itself.
func (s *generationService) execute(ctx context.Context, runID uuid.UUID, in steps.GeneratePagesInput) (steps.GeneratePagesOutput, error) {
	store := dbctx.Of(context.WithoutCancel(ctx))
	now := time.Now().UTC()
	started, err := s.runs.UpdateFieldsUnlessStatus(store, runID, terminalStatuses, map[string]interface{}{
		"status":     types.RunStatusRunning,
		"started_at": now,
	})
	if err != nil {
		return steps.GeneratePagesOutput{}, fmt.Errorf("mark run running: %w", err)
	}
	if !started {
		s.log.Info("generation run ended before start", "run_id", runID)
		return steps.GeneratePagesOutput{Pages: []steps.PageOutcome{}}, nil
	}

	out, genErr := steps.GeneratePages(ctx, s.deps, in)
	status := out.Status()
	if genErr != nil {
		status = types.RunStatusFailed
	}
	errs := runErrors(out, genErr)
	raw, _ := json.Marshal(errs)
	finished := time.Now().UTC()
	if err := s.runs.UpdateFields(store, runID, map[string]interface{}{
		"status":      status,
		"succeeded":   out.Succeeded,
		"failed":      out.Failed,
		"skipped":     out.Skipped,
		"errors":      datatypes.JSON(raw),
		"finished_at": finished,
	}); err != nil {
		return out, fmt.Errorf("finish run: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := s.deps.Bus.Publish(pubCtx, redisbus.Event{
		Type:   redisbus.EventRunDone,
		RunID:  runID.String(),
		Status: status,
		At:     finished,
	}); err != nil {
		s.log.Warn("publish run_done failed", "run_id", runID, "error", err)
	}
	s.log.Info("generation run finished",
		"run_id", runID,
		"status", status,
		"succeeded", out.Succeeded,
		"failed", out.Failed,
		"skipped", out.Skipped,
		"canceled", out.Canceled,
		"duration", finished.Sub(now),
	)
	return out, genErr
}

type runError struct {
	PotentialPageID string `json:"potential_page_id,omitempty"`
	Status          string `json:"status"`
	Attempts        int    `json:"attempts,omitempty"`
	Error           string `json:"error"`
}

func runErrors(out steps.GeneratePagesOutput, genErr error) []runError {
	errs := []runError{}
	if genErr != nil {
		errs = append(errs, runError{Status: types.RunStatusFailed, Error: genErr.Error()})
	}
	for _, p := range out.Pages {
		if p.Status == steps.PageFailed || p.Status == steps.PageCanceled {
			errs = append(errs, runError{
				PotentialPageID: p.PotentialPageID.String(),
				Status:          p.Status,
				Attempts:        p.Attempts,
				Error:           p.Error,
			})
		}
	}
	return errs
}

func (s *generationService) Get(ctx context.Context, id uuid.UUID) (*types.GenerationRun, error) {
	run, err := s.runs.GetByID(dbctx.Of(ctx), id)
	if errors.Is(err, repos.ErrNotFound) {
		return nil, apierr.NotFound("generation_run_not_found", fmt.Errorf("generation run %s not found", id))
	}
	if err != nil {
		return nil, apierr.Internal(err)
	}
	return run, nil
}

// Cancel stops an active run. A run that is still queued in the store but
// not owned by this process is marked canceled directly.
func (s *generationService) Cancel(ctx context.Context, id uuid.UUID) (*types.GenerationRun, error) {
	run, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.Terminal() {
		return run, nil
	}
	s.mu.Lock()
	cancel, ok := s.active[id]
	s.mu.Unlock()
	if ok {
		cancel()
		s.log.Info("generation run cancel requested", "run_id", id)
		return run, nil
	}

	now := time.Now().UTC()
	if _, err := s.runs.UpdateFieldsUnlessStatus(dbctx.Of(ctx), id, terminalStatuses, map[string]interface{}{
		"status":      types.RunStatusCanceled,
		"finished_at": now,
	}); err != nil {
		return nil, apierr.Internal(err)
	}
	return s.Get(ctx, id)
}

var terminalStatuses = []string{
	types.RunStatusSucceeded,
	types.RunStatusPartial,
	types.RunStatusFailed,
	types.RunStatusCanceled,
}

func (s *generationService) Shutdown(ctx context.Context) error {
	s.baseCancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
