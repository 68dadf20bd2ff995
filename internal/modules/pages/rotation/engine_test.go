package rotation

import (
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
)

var fourVariations = []string{"v0", "v1", "v2", "v3"}

func TestSelect_EmptyVariations(t *testing.T) {
	e := NewEngine(NewState())
	for _, s := range []Strategy{Sequential, LeastUsed, WeightedRandom, PerformanceBased} {
		if _, err := e.Select("k", nil, s); !errors.Is(err, ErrNoVariationsAvailable) {
			t.Fatalf("%s: expected ErrNoVariationsAvailable, got %v", s, err)
		}
	}
}

func TestSelect_UnknownStrategy(t *testing.T) {
	e := NewEngine(NewState())
	if _, err := e.Select("k", fourVariations, Strategy(99)); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestSelect_SequentialWraps(t *testing.T) {
	e := NewEngine(NewState())
	var got []string
	for i := 0; i < 6; i++ {
		sel, err := e.Select("intro", []string{"a", "b", "c"}, Sequential)
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		got = append(got, sel.VariationID)
	}
	want := []string{"a", "b", "c", "a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sequence: %#v", got)
		}
	}
	// Other keys keep their own cursor.
	sel, _ := e.Select("outro", []string{"a", "b", "c"}, Sequential)
	if sel.VariationID != "a" {
		t.Fatalf("independent key should start at a, got %q", sel.VariationID)
	}
}

func TestSelect_LeastUsedBalanced(t *testing.T) {
	e := NewEngine(NewState())
	const n = 10
	counts := map[string]int{}
	for i := 0; i < n; i++ {
		sel, err := e.Select("k", fourVariations, LeastUsed)
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		counts[sel.VariationID]++
	}
	for _, v := range fourVariations {
		if c := counts[v]; c != n/4 && c != n/4+1 {
			t.Fatalf("unbalanced distribution: %#v", counts)
		}
	}
	// Ties go to list order: the first two calls after 8 selections were v0, v1.
	if counts["v0"] != 3 || counts["v1"] != 3 {
		t.Fatalf("tie-break by list order violated: %#v", counts)
	}
}

func TestSelect_WeightedRandomFavorsUnused(t *testing.T) {
	e := NewEngine(NewState(), WithRand(rand.New(rand.NewPCG(1, 2))))
	for i := 0; i < 50; i++ {
		if _, err := e.Select("k", []string{"hot"}, WeightedRandom); err != nil {
			t.Fatalf("Select: %v", err)
		}
	}
	counts := map[string]int{}
	for i := 0; i < 200; i++ {
		sel, err := e.Select("k", []string{"hot", "cold"}, WeightedRandom)
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		counts[sel.VariationID]++
	}
	if counts["cold"] <= counts["hot"] {
		t.Fatalf("expected cold variation to dominate: %#v", counts)
	}
	if counts["hot"] == 0 {
		t.Fatalf("hot variation must keep a non-zero probability: %#v", counts)
	}
}

func TestSelect_PerformanceBasedExploresThenExploits(t *testing.T) {
	e := NewEngine(NewState())
	seen := map[string]bool{}
	for i := 0; i < len(fourVariations); i++ {
		sel, err := e.Select("k", fourVariations, PerformanceBased)
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		seen[sel.VariationID] = true
		success := sel.VariationID == "v2"
		if err := e.RecordPerformance("k", sel.VariationID, success, PerformanceMeta{QualityScore: 0.5}); err != nil {
			t.Fatalf("RecordPerformance: %v", err)
		}
	}
	if len(seen) != 4 {
		t.Fatalf("expected every variation explored first: %#v", seen)
	}
	for i := 0; i < 20; i++ {
		sel, err := e.Select("k", fourVariations, PerformanceBased)
		if err != nil {
			t.Fatalf("Select: %v", err)
		}
		if sel.VariationID != "v2" {
			t.Fatalf("expected best performer v2, got %q (%s)", sel.VariationID, sel.Reason)
		}
	}
}

func TestSelect_PerformanceBasedPrefersUnattempted(t *testing.T) {
	e := NewEngine(NewState(), WithMinAttempts(2))
	_ = e.RecordPerformance("k", "a", true, PerformanceMeta{})
	_ = e.RecordPerformance("k", "a", true, PerformanceMeta{})
	_ = e.RecordPerformance("k", "b", false, PerformanceMeta{})
	sel, err := e.Select("k", []string{"a", "b"}, PerformanceBased)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.VariationID != "b" {
		t.Fatalf("variation below attempt threshold must be explored first, got %q", sel.VariationID)
	}
}

func TestSelect_UpdatesUsageAndLastSelected(t *testing.T) {
	st := NewState()
	e := NewEngine(st)
	first, _ := e.Select("k", []string{"x", "y"}, Sequential)
	second, _ := e.Select("k", []string{"x", "y"}, Sequential)
	if second.Previous != first.VariationID {
		t.Fatalf("previous should be %q, got %q", first.VariationID, second.Previous)
	}
	snap := st.Snapshot()["k"]
	if snap.UsageCount["x"] != 1 || snap.UsageCount["y"] != 1 || snap.LastSelected != "y" || snap.Selections != 2 {
		t.Fatalf("unexpected snapshot: %#v", snap)
	}
}

func TestSelect_ConcurrentSameKeyNoLostUpdates(t *testing.T) {
	e := NewEngine(NewState())
	const workers, perWorker = 16, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				sel, err := e.Select("shared", fourVariations, WeightedRandom)
				if err != nil {
					t.Errorf("Select: %v", err)
					return
				}
				_ = e.RecordPerformance("shared", sel.VariationID, i%2 == 0, PerformanceMeta{QualityScore: 1})
			}
		}()
	}
	wg.Wait()
	snap := e.State().Snapshot()["shared"]
	total, attempts := 0, 0
	for _, n := range snap.UsageCount {
		total += n
	}
	for _, p := range snap.Performance {
		attempts += p.Attempts
	}
	if total != workers*perWorker || attempts != workers*perWorker || snap.Selections != workers*perWorker {
		t.Fatalf("lost updates: usage=%d attempts=%d selections=%d", total, attempts, snap.Selections)
	}
}

func TestReport(t *testing.T) {
	e := NewEngine(NewState())
	for i := 0; i < 4; i++ {
		_, _ = e.Select("a", []string{"v0", "v1"}, Sequential)
	}
	_, _ = e.Select("b", []string{"only"}, LeastUsed)
	_ = e.RecordPerformance("a", "v1", true, PerformanceMeta{QualityScore: 0.9})
	_ = e.RecordPerformance("a", "v0", false, PerformanceMeta{QualityScore: 0.2})

	rep := e.Report()
	if rep.TotalSelections != 5 || rep.DistinctVariationsUsed != 3 {
		t.Fatalf("unexpected totals: %#v", rep)
	}
	if rep.PatternDiversity != 0.6 {
		t.Fatalf("diversity: %v", rep.PatternDiversity)
	}
	if len(rep.MostUsed) == 0 || rep.MostUsed[0].PromptKey != "a" || rep.MostUsed[0].VariationID != "v0" {
		t.Fatalf("most used: %#v", rep.MostUsed)
	}
	if len(rep.BestPerforming) == 0 || rep.BestPerforming[0].VariationID != "v1" || rep.BestPerforming[0].AvgQuality != 0.9 {
		t.Fatalf("best performing: %#v", rep.BestPerforming)
	}
	if rep.Keys["a"].PatternDiversity != 0.5 {
		t.Fatalf("key diversity: %#v", rep.Keys["a"])
	}

	empty := NewEngine(NewState()).Report()
	if empty.PatternDiversity != 0 || empty.TotalSelections != 0 {
		t.Fatalf("empty report: %#v", empty)
	}
}

func TestParseStrategy(t *testing.T) {
	if s, err := ParseStrategy(""); err != nil || s != WeightedRandom {
		t.Fatalf("default: %v %v", s, err)
	}
	if s, err := ParseStrategy(" Least_Used "); err != nil || s != LeastUsed {
		t.Fatalf("least_used: %v %v", s, err)
	}
	if _, err := ParseStrategy("round_robin"); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestStateReset_KeepsHeldStateLive(t *testing.T) {
	s := NewState()
	e := NewEngine(s)
	if _, err := e.Select("k", fourVariations, Sequential); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := e.RecordPerformance("k", "v0", true, PerformanceMeta{QualityScore: 0.9}); err != nil {
		t.Fatalf("RecordPerformance: %v", err)
	}

	held := s.key("k")
	s.Reset("k")
	snap := s.Snapshot()["k"]
	if snap.Selections != 0 || len(snap.UsageCount) != 0 || len(snap.Performance) != 0 {
		t.Fatalf("expected cleared state, got %+v", snap)
	}
	if s.key("k") != held {
		t.Fatalf("reset must not replace the key's state")
	}

	// An update from a caller that fetched the state before the reset.
	held.mu.Lock()
	held.usage["v2"]++
	held.mu.Unlock()
	if err := e.RecordPerformance("k", "v1", false, PerformanceMeta{}); err != nil {
		t.Fatalf("RecordPerformance: %v", err)
	}
	snap = s.Snapshot()["k"]
	if snap.UsageCount["v2"] != 1 || snap.Performance["v1"].Attempts != 1 {
		t.Fatalf("update after reset was lost: %+v", snap)
	}

	sel, err := e.Select("k", fourVariations, Sequential)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if sel.VariationID != "v0" {
		t.Fatalf("sequential should restart at v0, got %s", sel.VariationID)
	}
}

func TestStateReset_UnknownKey(t *testing.T) {
	s := NewState()
	s.Reset("missing")
	if _, ok := s.Snapshot()["missing"]; ok {
		t.Fatalf("reset must not create state")
	}
}
