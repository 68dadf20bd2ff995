package quality

import (
	"math"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"github.com/yungbote/pagecraft-backend/internal/modules/pages/variation"
)

const (
	DefaultMinWords  = 300
	DefaultThreshold = 0.5

	weightLength     = 0.4
	weightStructure  = 0.3
	weightUniqueness = 0.3

	// repeatPenalty is how much each prior sighting of a signature costs.
	repeatPenalty = 0.25
)

// Expectations describe what a page should contain.
type Expectations struct {
	MinWords         int      `json:"min_words,omitempty"`
	RequiredSections []string `json:"required_sections,omitempty"`
}

type Breakdown struct {
	WordCount       int      `json:"word_count"`
	Length          float64  `json:"length"`
	Structure       float64  `json:"structure"`
	Uniqueness      float64  `json:"uniqueness"`
	Headings        []string `json:"headings"`
	Paragraphs      int      `json:"paragraphs"`
	SectionsFound   []string `json:"sections_found,omitempty"`
	SectionsMissing []string `json:"sections_missing,omitempty"`
	Signatures      []string `json:"signatures"`
	PriorRepeats    int      `json:"prior_repeats"`
}

type Result struct {
	Score     float64   `json:"score"`
	Flagged   bool      `json:"flagged"`
	Breakdown Breakdown `json:"breakdown"`
}

type Option func(*Scorer)

func WithMinWords(n int) Option {
	return func(s *Scorer) {
		if n > 0 {
			s.minWords = n
		}
	}
}

// WithThreshold sets the score below which a page is flagged.
func WithThreshold(v float64) Option {
	return func(s *Scorer) {
		if v >= 0 && v <= 1 {
			s.threshold = v
		}
	}
}

type Scorer struct {
	md        goldmark.Markdown
	minWords  int
	threshold float64
}

func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{md: goldmark.New(), minWords: DefaultMinWords, threshold: DefaultThreshold}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Scorer) MinWords() int { return s.minWords }

// Score is deterministic for identical content, expectations and prior counts.
// prior holds how often each signature was already seen in the current run.
func (s *Scorer) Score(content string, exp Expectations, prior variation.Counts) Result {
	var b Breakdown
	src := []byte(content)
	doc := s.md.Parser().Parse(text.NewReader(src))

	b.Headings, b.Paragraphs = outline(doc, src)
	b.WordCount = CountWords(content)

	minWords := exp.MinWords
	if minWords <= 0 {
		minWords = s.minWords
	}
	b.Length = math.Min(1, float64(b.WordCount)/float64(minWords))

	if len(exp.RequiredSections) > 0 {
		for _, want := range exp.RequiredSections {
			if hasSection(b.Headings, want) {
				b.SectionsFound = append(b.SectionsFound, want)
			} else {
				b.SectionsMissing = append(b.SectionsMissing, want)
			}
		}
		b.Structure = float64(len(b.SectionsFound)) / float64(len(exp.RequiredSections))
	} else {
		if len(b.Headings) > 0 {
			b.Structure += 0.5
		}
		if b.Paragraphs >= 2 {
			b.Structure += 0.5
		}
	}

	b.Signatures = variation.Signatures(variation.DetectContentPatterns(content))
	for _, sig := range b.Signatures {
		b.PriorRepeats += prior.Count(sig)
	}
	b.Uniqueness = 1 / (1 + repeatPenalty*float64(b.PriorRepeats))

	score := weightLength*b.Length + weightStructure*b.Structure + weightUniqueness*b.Uniqueness
	score = math.Round(clamp01(score)*10000) / 10000
	return Result{Score: score, Flagged: score < s.threshold, Breakdown: b}
}

// ScoreAndRecord scores content against plog and records its signatures in the
// same critical section.
func (s *Scorer) ScoreAndRecord(content string, exp Expectations, plog *variation.PatternLog) Result {
	if plog == nil {
		return s.Score(content, exp, nil)
	}
	sigs := variation.Signatures(variation.DetectContentPatterns(content))
	return s.Score(content, exp, plog.Observe(sigs))
}

func outline(doc ast.Node, src []byte) ([]string, int) {
	headings := []string{}
	paragraphs := 0
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.Kind() {
		case ast.KindHeading:
			headings = append(headings, strings.TrimSpace(nodeText(n, src)))
			return ast.WalkSkipChildren, nil
		case ast.KindParagraph:
			paragraphs++
		}
		return ast.WalkContinue, nil
	})
	return headings, paragraphs
}

func nodeText(n ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if entering {
			if t, ok := c.(*ast.Text); ok {
				sb.Write(t.Segment.Value(src))
				if t.SoftLineBreak() {
					sb.WriteByte(' ')
				}
			}
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

func hasSection(headings []string, want string) bool {
	want = strings.ToLower(strings.TrimSpace(want))
	if want == "" {
		return true
	}
	for _, h := range headings {
		if strings.Contains(strings.ToLower(h), want) {
			return true
		}
	}
	return false
}

// CountWords counts whitespace separated tokens that contain a letter or digit.
func CountWords(content string) int {
	n := 0
	for _, f := range strings.Fields(content) {
		if strings.IndexFunc(f, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) >= 0 {
			n++
		}
	}
	return n
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
