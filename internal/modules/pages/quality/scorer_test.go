package quality

import (
	"strings"
	"testing"

	"github.com/yungbote/pagecraft-backend/internal/modules/pages/variation"
)

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func TestScore_PerfectPage(t *testing.T) {
	s := NewScorer(WithMinWords(20))
	content := "# Plumbers in Toronto\n\n" + words(10) + "\n\n" + words(10)
	res := s.Score(content, Expectations{}, nil)
	if res.Score != 1 {
		t.Fatalf("expected 1, got %v (%+v)", res.Score, res.Breakdown)
	}
	if res.Flagged {
		t.Fatalf("perfect page should not be flagged")
	}
	if res.Breakdown.Paragraphs != 2 || len(res.Breakdown.Headings) != 1 || res.Breakdown.Headings[0] != "Plumbers in Toronto" {
		t.Fatalf("unexpected outline %+v", res.Breakdown)
	}
}

func TestScore_ShortPagePenalized(t *testing.T) {
	s := NewScorer(WithMinWords(100))
	res := s.Score("# Title\n\n"+words(49)+"\n\n"+words(50), Expectations{}, nil)
	if res.Breakdown.WordCount != 100 {
		t.Fatalf("WordCount=%d", res.Breakdown.WordCount)
	}
	short := s.Score("# Title\n\n"+words(9)+"\n\n"+words(10), Expectations{}, nil)
	if short.Score >= res.Score {
		t.Fatalf("shorter page should score lower: %v >= %v", short.Score, res.Score)
	}
	if short.Breakdown.Length != 0.2 {
		t.Fatalf("Length=%v", short.Breakdown.Length)
	}
}

func TestScore_RequiredSections(t *testing.T) {
	s := NewScorer(WithMinWords(5))
	content := "# Overview\n\nSome text here today.\n\n## Pricing\n\nMore text follows here."
	res := s.Score(content, Expectations{RequiredSections: []string{"overview", "pricing", "FAQ", "contact"}}, nil)
	if res.Breakdown.Structure != 0.5 {
		t.Fatalf("Structure=%v", res.Breakdown.Structure)
	}
	if len(res.Breakdown.SectionsMissing) != 2 {
		t.Fatalf("missing=%v", res.Breakdown.SectionsMissing)
	}
}

func TestScore_UniquenessDecreasesWithRepeats(t *testing.T) {
	s := NewScorer(WithMinWords(5))
	content := "# Guide\n\nAbout 40% of owners agree.\n\nIn conclusion, act now."
	plog := variation.NewPatternLog(64)

	var prev float64 = 2
	for i := 0; i < 4; i++ {
		res := s.ScoreAndRecord(content, Expectations{}, plog)
		if i == 0 && res.Breakdown.Uniqueness != 1 {
			t.Fatalf("first occurrence should not be penalized, got %v", res.Breakdown.Uniqueness)
		}
		if res.Score >= prev {
			t.Fatalf("score did not decrease on repeat %d: %v >= %v", i, res.Score, prev)
		}
		prev = res.Score
	}
}

func TestScore_Deterministic(t *testing.T) {
	s := NewScorer()
	prior := variation.Counts{"statistic_citation:#%": 2}
	content := "## Costs\n\nRoughly 30% of jobs run late."
	a := s.Score(content, Expectations{MinWords: 10}, prior)
	b := s.Score(content, Expectations{MinWords: 10}, prior)
	if a.Score != b.Score {
		t.Fatalf("non-deterministic: %v vs %v", a.Score, b.Score)
	}
	if a.Breakdown.PriorRepeats != 2 {
		t.Fatalf("PriorRepeats=%d", a.Breakdown.PriorRepeats)
	}
}

func TestScore_EmptyContent(t *testing.T) {
	res := NewScorer().Score("", Expectations{}, nil)
	if res.Score < 0 || res.Score > 1 {
		t.Fatalf("score out of range: %v", res.Score)
	}
	if !res.Flagged {
		t.Fatalf("empty page should be flagged")
	}
}

func TestCountWords(t *testing.T) {
	if got := CountWords("# Heading\n\n- item one\n| a | b |\n"); got != 5 {
		t.Fatalf("CountWords=%d", got)
	}
}
