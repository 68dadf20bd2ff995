package steps

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/pagecraft-backend/internal/data/repos"
	"github.com/yungbote/pagecraft-backend/internal/data/repos/testutil"
	types "github.com/yungbote/pagecraft-backend/internal/domain"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/combination"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/quality"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/rotation"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/variation"
	"github.com/yungbote/pagecraft-backend/internal/platform/dbctx"
	"github.com/yungbote/pagecraft-backend/internal/platform/openai"
)

type fixture struct {
	db    *gorm.DB
	repos repos.Repos
	deps  GeneratePagesDeps
	tmpl  *types.Template
	ids   []uuid.UUID
}

func newFixture(t *testing.T, ai openai.Client) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	r := repos.New(db, log)
	ctx := context.Background()

	tmpl, err := r.Templates.Create(dbctx.Of(ctx), &types.Template{
		Name:         "services",
		Pattern:      "{Service} in {City}",
		BodyTemplate: "We offer the best {Service} for customers in {City}.\n\nOur team is reliable and fast.",
	})
	if err != nil {
		t.Fatalf("create template: %v", err)
	}
	res, err := combination.Generate(combination.Template{ID: tmpl.ID, Pattern: tmpl.Pattern}, combination.ValueSets{
		"Service": {{Value: "Plumbers"}, {Value: "Electricians"}},
		"City":    {{Value: "Toronto"}, {Value: "Vancouver"}},
	}, 0)
	if err != nil {
		t.Fatalf("generate combinations: %v", err)
	}
	rows := make([]*types.PotentialPage, 0, len(res.Pages))
	ids := make([]uuid.UUID, 0, len(res.Pages))
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
		ids = append(ids, p.ID)
	}
	if _, err := r.PotentialPages.ReplaceForTemplate(dbctx.Of(ctx), tmpl.ID, rows); err != nil {
		t.Fatalf("store potential pages: %v", err)
	}

	engine, err := variation.NewDefaultEngine(log)
	if err != nil {
		t.Fatalf("variation engine: %v", err)
	}
	return &fixture{
		db:    db,
		repos: r,
		tmpl:  tmpl,
		ids:   ids,
		deps: GeneratePagesDeps{
			DB:        db,
			Log:       log,
			Templates: r.Templates,
			Pages:     r.PotentialPages,
			Results:   r.GeneratedPages,
			AI:        ai,
			Rotation:  rotation.NewEngine(rotation.NewState()),
			Variation: engine,
			Scorer:    quality.NewScorer(quality.WithMinWords(10)),
		},
	}
}

func (f *fixture) generatedCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := f.db.Model(&types.GeneratedPage{}).Count(&n).Error; err != nil {
		t.Fatalf("count generated pages: %v", err)
	}
	return n
}

type funcClient func(ctx context.Context, system, user string) (string, error)

func (f funcClient) GenerateText(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

func TestGeneratePages_AllSucceed(t *testing.T) {
	f := newFixture(t, openai.NewMockClient())
	out, err := GeneratePages(context.Background(), f.deps, GeneratePagesInput{
		RunID:            uuid.New(),
		PotentialPageIDs: f.ids,
		BatchSize:        2,
		Strategy:         rotation.LeastUsed,
	})
	if err != nil {
		t.Fatalf("GeneratePages: %v", err)
	}
	if out.Requested != 4 || out.Succeeded != 4 || out.Status() != types.RunStatusSucceeded {
		t.Fatalf("unexpected output %+v", out)
	}
	if n := f.generatedCount(t); n != 4 {
		t.Fatalf("expected 4 generated pages, got %d", n)
	}

	gp, err := f.repos.GeneratedPages.GetByPotentialPageID(dbctx.Of(context.Background()), f.ids[0])
	if err != nil {
		t.Fatalf("GetByPotentialPageID: %v", err)
	}
	if !strings.HasPrefix(gp.Content, "# Plumbers in Toronto") || !strings.Contains(gp.Content, "Toronto") {
		t.Fatalf("unexpected content %q", gp.Content)
	}
	if gp.QualityScore <= 0 || gp.QualityScore > 1 {
		t.Fatalf("quality score out of range: %v", gp.QualityScore)
	}

	// Rotation state saw one selection per page, balanced by least_used.
	rep := f.deps.Rotation.Report()
	if rep.TotalSelections != 4 {
		t.Fatalf("expected 4 selections, got %d", rep.TotalSelections)
	}

	again, err := GeneratePages(context.Background(), f.deps, GeneratePagesInput{PotentialPageIDs: f.ids})
	if err != nil {
		t.Fatalf("GeneratePages again: %v", err)
	}
	if again.Skipped != 4 {
		t.Fatalf("already generated pages should be skipped, got %+v", again)
	}
}

func TestGeneratePages_SteersAwayFromOverusedPatterns(t *testing.T) {
	mock := openai.NewMockClient()
	var mu sync.Mutex
	var prompts []string
	f := newFixture(t, funcClient(func(ctx context.Context, system, user string) (string, error) {
		mu.Lock()
		prompts = append(prompts, user)
		mu.Unlock()
		return mock.GenerateText(ctx, system, user)
	}))
	err := f.db.Model(&types.Template{}).Where("id = ?", f.tmpl.ID).
		Update("body_template", "Our team is here.\n\nIn conclusion, call today.").Error
	if err != nil {
		t.Fatalf("update body: %v", err)
	}

	state := rotation.NewState()
	f.deps.Rotation = rotation.NewEngine(state)
	plog := variation.NewPatternLog(variation.DefaultPatternLogSize)
	for i := 0; i < 10; i++ {
		plog.Record("conclusion_closer:in conclusion")
	}

	out, err := GeneratePages(context.Background(), f.deps, GeneratePagesInput{
		PotentialPageIDs: f.ids[:1],
		BatchSize:        1,
		Strategy:         rotation.Sequential,
		TotalVariations:  4,
		PatternLog:       plog,
	})
	if err != nil {
		t.Fatalf("GeneratePages: %v", err)
	}
	if out.Succeeded != 1 {
		t.Fatalf("unexpected output %+v", out)
	}
	if len(prompts) != 1 {
		t.Fatalf("expected one synthesis call, got %d", len(prompts))
	}
	if strings.Contains(prompts[0], "In conclusion") || !strings.Contains(prompts[0], "To sum up") {
		t.Fatalf("draft reused the overused closer: %q", prompts[0])
	}
	if got := out.Pages[0].VariationID; got != "v1" {
		t.Fatalf("expected the variation actually used (v1), got %q", got)
	}

	gp, err := f.repos.GeneratedPages.GetByPotentialPageID(dbctx.Of(context.Background()), f.ids[0])
	if err != nil {
		t.Fatalf("GetByPotentialPageID: %v", err)
	}
	if gp.VariationID != "v1" {
		t.Fatalf("stored variation %q", gp.VariationID)
	}
	perf := state.Snapshot()[PromptKey(f.tmpl.ID)].Performance
	if perf["v1"].Successes != 1 || perf["v0"].Attempts != 0 {
		t.Fatalf("performance not recorded against v1: %+v", perf)
	}
}

func TestGeneratePages_PartialFailure(t *testing.T) {
	mock := openai.NewMockClient()
	var calls atomic.Int32
	f := newFixture(t, funcClient(func(ctx context.Context, system, user string) (string, error) {
		calls.Add(1)
		if strings.Contains(user, "TITLE: Plumbers in Vancouver") {
			return "", errors.New("provider unavailable")
		}
		return mock.GenerateText(ctx, system, user)
	}))

	out, err := GeneratePages(context.Background(), f.deps, GeneratePagesInput{
		PotentialPageIDs: f.ids,
		BatchSize:        4,
		MaxAttempts:      2,
		RetryBackoff:     time.Millisecond,
	})
	if err != nil {
		t.Fatalf("GeneratePages: %v", err)
	}
	if out.Succeeded != 3 || out.Failed != 1 || out.Status() != types.RunStatusPartial {
		t.Fatalf("unexpected output %+v", out)
	}
	failed := out.Pages[1]
	if failed.Status != PageFailed || failed.Attempts != 2 || !strings.Contains(failed.Error, ErrExternalSynthesis.Error()) {
		t.Fatalf("unexpected failed outcome %+v", failed)
	}
	if got := calls.Load(); got != 5 {
		t.Fatalf("expected 5 synthesis calls (3 + 2 retries), got %d", got)
	}
	if n := f.generatedCount(t); n != 3 {
		t.Fatalf("failed page must not be persisted, got %d rows", n)
	}
}

func TestGeneratePages_RetriesTransientErrors(t *testing.T) {
	mock := openai.NewMockClient()
	var mu sync.Mutex
	failures := map[string]int{}
	f := newFixture(t, funcClient(func(ctx context.Context, system, user string) (string, error) {
		mu.Lock()
		n := failures[user]
		failures[user] = n + 1
		mu.Unlock()
		if n < 2 {
			return "", errors.New("timeout")
		}
		return mock.GenerateText(ctx, system, user)
	}))
	out, err := GeneratePages(context.Background(), f.deps, GeneratePagesInput{
		PotentialPageIDs: f.ids[:1],
		MaxAttempts:      3,
		RetryBackoff:     time.Millisecond,
	})
	if err != nil {
		t.Fatalf("GeneratePages: %v", err)
	}
	if out.Succeeded != 1 || out.Pages[0].Attempts != 3 {
		t.Fatalf("expected success on third attempt, got %+v", out.Pages[0])
	}
}

func TestGeneratePages_BoundedConcurrency(t *testing.T) {
	mock := openai.NewMockClient()
	var cur, peak atomic.Int32
	f := newFixture(t, funcClient(func(ctx context.Context, system, user string) (string, error) {
		n := cur.Add(1)
		defer cur.Add(-1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		return mock.GenerateText(ctx, system, user)
	}))
	out, err := GeneratePages(context.Background(), f.deps, GeneratePagesInput{PotentialPageIDs: f.ids, BatchSize: 2})
	if err != nil {
		t.Fatalf("GeneratePages: %v", err)
	}
	if out.Succeeded != 4 {
		t.Fatalf("unexpected output %+v", out)
	}
	if p := peak.Load(); p > 2 {
		t.Fatalf("expected at most 2 concurrent syntheses, saw %d", p)
	}
}

func TestGeneratePages_CancelDoesNotPersistAbandonedPages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	started := make(chan struct{}, 4)
	f := newFixture(t, funcClient(func(callCtx context.Context, system, user string) (string, error) {
		started <- struct{}{}
		<-callCtx.Done()
		// A late answer from a provider that ignored cancellation.
		return "# Late\n\nlate content", nil
	}))

	done := make(chan GeneratePagesOutput, 1)
	go func() {
		out, err := GeneratePages(ctx, f.deps, GeneratePagesInput{PotentialPageIDs: f.ids, BatchSize: 1})
		if err != nil {
			t.Errorf("GeneratePages: %v", err)
		}
		done <- out
	}()

	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatalf("synthesis never started")
	}
	cancel()

	var out GeneratePagesOutput
	select {
	case out = <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("GeneratePages did not return after cancel")
	}
	if out.Canceled != 4 || out.Succeeded != 0 || out.Status() != types.RunStatusCanceled {
		t.Fatalf("unexpected output %+v", out)
	}
	if len(started) != 0 {
		t.Fatalf("no new page should start after cancellation")
	}
	if n := f.generatedCount(t); n != 0 {
		t.Fatalf("abandoned pages must not be persisted, got %d", n)
	}
}

func TestGeneratePages_UnknownIDs(t *testing.T) {
	f := newFixture(t, openai.NewMockClient())
	missing := uuid.New()
	out, err := GeneratePages(context.Background(), f.deps, GeneratePagesInput{PotentialPageIDs: []uuid.UUID{missing, missing, f.ids[0]}})
	if err != nil {
		t.Fatalf("GeneratePages: %v", err)
	}
	if out.Requested != 2 || out.Failed != 1 || out.Succeeded != 1 {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestGeneratePages_MissingDeps(t *testing.T) {
	if _, err := GeneratePages(context.Background(), GeneratePagesDeps{}, GeneratePagesInput{}); err == nil {
		t.Fatalf("expected error for missing deps")
	}
}

func TestSynthesisErrorIs(t *testing.T) {
	err := error(&SynthesisError{Attempts: 3, Err: errors.New("boom")})
	if !errors.Is(err, ErrExternalSynthesis) {
		t.Fatalf("SynthesisError should match ErrExternalSynthesis")
	}
	if !strings.Contains(err.Error(), "3 attempt") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestClampBatchSize(t *testing.T) {
	cases := map[int]int{0: DefaultBatchSize, -3: DefaultBatchSize, 1: 1, 8: 8, 100: MaxBatchSize}
	for in, want := range cases {
		if got := ClampBatchSize(in); got != want {
			t.Fatalf("ClampBatchSize(%d)=%d want %d", in, got, want)
		}
	}
}
