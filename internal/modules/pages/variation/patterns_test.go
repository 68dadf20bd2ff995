package variation

import (
	"reflect"
	"testing"
)

func TestDetectContentPatterns(t *testing.T) {
	content := "# What makes a plumber great?\n\nAccording to surveys, 75% of homeowners call twice. Compared to last year that is up.\n\nIn conclusion, book early."
	got := DetectContentPatterns(content)

	if q := got[OpeningQuestion]; len(q) != 1 || q[0] != "What makes a plumber great?" {
		t.Fatalf("opening question: %q", q)
	}
	if s := got[StatisticCitation]; len(s) != 2 {
		t.Fatalf("statistics: %q", s)
	}
	if c := got[ConclusionCloser]; len(c) != 1 {
		t.Fatalf("closers: %q", c)
	}
	if c := got[ComparisonConnective]; len(c) != 1 {
		t.Fatalf("comparisons: %q", c)
	}

	want := []string{
		"comparison_connective:compared to",
		"conclusion_closer:in conclusion",
		"opening_question:what",
		"statistic_citation:#%",
		"statistic_citation:according to",
	}
	if sigs := Signatures(got); !reflect.DeepEqual(sigs, want) {
		t.Fatalf("signatures: got %q want %q", sigs, want)
	}
}

func TestDetectContentPatterns_Empty(t *testing.T) {
	if got := DetectContentPatterns("   "); len(got) != 0 {
		t.Fatalf("expected no patterns, got %v", got)
	}
	if got := DetectContentPatterns("Plain statement. Is this a question?"); len(got[OpeningQuestion]) != 0 {
		t.Fatalf("only the first sentence counts as an opening question")
	}
}

func TestSignatures_NormalizeDigits(t *testing.T) {
	a := Signatures(DetectContentPatterns("Rates fell 12% in spring."))
	b := Signatures(DetectContentPatterns("Rates fell 85% in spring."))
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("digit shapes should match: %q vs %q", a, b)
	}
}

func TestPatternLog_BoundedFIFO(t *testing.T) {
	l := NewPatternLog(2)
	l.Record("a", "b", "c")
	if l.Len() != 2 {
		t.Fatalf("Len=%d", l.Len())
	}
	if l.Count("a") != 0 || l.Count("b") != 1 || l.Count("c") != 1 {
		t.Fatalf("unexpected counts %v", l.Snapshot())
	}
}

func TestPatternLog_ObserveReturnsPriorCounts(t *testing.T) {
	l := NewPatternLog(0)
	first := l.Observe([]string{"x"})
	second := l.Observe([]string{"x", "y"})
	if first.Count("x") != 0 {
		t.Fatalf("first observation should see 0, got %d", first.Count("x"))
	}
	if second.Count("x") != 1 || second.Count("y") != 0 {
		t.Fatalf("second observation: %v", second)
	}
	if got := l.Overused(2); !reflect.DeepEqual(got, []string{"x"}) {
		t.Fatalf("Overused(2)=%v", got)
	}
}
