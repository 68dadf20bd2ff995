package variation

import (
	"sort"
	"strings"
	"sync"

	"github.com/yungbote/pagecraft-backend/internal/modules/pages/pattern"
	"github.com/yungbote/pagecraft-backend/internal/platform/logger"
)

// Content types too short to reorder.
var fixedOrderTypes = map[string]bool{
	"title":            true,
	"meta":             true,
	"meta_description": true,
	"heading":          true,
}

type Request struct {
	BaseContent     string            `json:"base_content"`
	ContentType     string            `json:"content_type"`
	ContextValues   map[string]string `json:"context_values,omitempty"`
	VariationIndex  int               `json:"variation_index"`
	TotalVariations int               `json:"total_variations"`
}

type Metadata struct {
	VariationIndex  int                      `json:"variation_index"`
	TotalVariations int                      `json:"total_variations"`
	ContentType     string                   `json:"content_type"`
	Changes         []Change                 `json:"changes"`
	Patterns        map[PatternType][]string `json:"patterns"`
	Signatures      []string                 `json:"signatures"`
	// RepeatScore is the summed prior count of Signatures in the pattern log
	// consulted by CreateLeastRepetitive.
	RepeatScore int `json:"repeat_score,omitempty"`
}

// AnyChanged reports whether at least one transformation changed the content.
func (m Metadata) AnyChanged() bool {
	for _, c := range m.Changes {
		if c.Changed {
			return true
		}
	}
	return false
}

type Result struct {
	Content  string   `json:"content"`
	Metadata Metadata `json:"metadata"`
}

type Stats struct {
	VariationsCreated    int                 `json:"variations_created"`
	TransformsApplied    map[string]int      `json:"transforms_applied"`
	SynonymSubstitutions map[string]int      `json:"synonym_substitutions"`
	PatternTypeCounts    map[PatternType]int `json:"pattern_type_counts"`
	PatternTypesTracked  int                 `json:"pattern_types_tracked"`
}

type Engine struct {
	tables *Tables
	log    *logger.Logger

	mu                sync.Mutex
	created           int
	transforms        map[string]int
	synonymFrequency  map[string]int
	patternTypeCounts map[PatternType]int
}

func NewEngine(tables *Tables, log *logger.Logger) *Engine {
	if log == nil {
		log = logger.Nop()
	}
	return &Engine{
		tables:            tables,
		log:               log.With("component", "VariationEngine"),
		transforms:        map[string]int{},
		synonymFrequency:  map[string]int{},
		patternTypeCounts: map[PatternType]int{},
	}
}

// NewDefaultEngine uses the embedded tables.
func NewDefaultEngine(log *logger.Logger) (*Engine, error) {
	t, err := DefaultTables()
	if err != nil {
		return nil, err
	}
	return NewEngine(t, log), nil
}

func normalizeIndex(index, total int) (int, int) {
	if total <= 0 {
		total = 1
	}
	index %= total
	if index < 0 {
		index += total
	}
	return index, total
}

// CreateVariedContent substitutes context values, then applies opener
// rotation, lexical substitution and (for index > 0) structural reordering.
// When total > 1 and none of those changed anything, a lead-in keyed by the
// index is added so every index yields distinct text.
func (e *Engine) CreateVariedContent(req Request) Result {
	res := e.vary(req)
	e.track(res.Metadata)
	return res
}

func (e *Engine) vary(req Request) Result {
	index, total := normalizeIndex(req.VariationIndex, req.TotalVariations)
	content := pattern.Substitute(req.BaseContent, req.ContextValues)
	ctype := strings.ToLower(strings.TrimSpace(req.ContentType))

	var changes []Change
	var ch Change

	content, ch = e.tables.rotateOpeners(content, index)
	changes = append(changes, ch)

	content, ch = e.tables.substituteSynonyms(content, index)
	changes = append(changes, ch)

	if !fixedOrderTypes[ctype] && index > 0 {
		content, ch = reorder(content, index)
		changes = append(changes, ch)
	}

	meta := Metadata{VariationIndex: index, TotalVariations: total, ContentType: ctype, Changes: changes}
	if total > 1 && !meta.AnyChanged() {
		content, ch = e.tables.prependLeadIn(content, index)
		meta.Changes = append(meta.Changes, ch)
	}

	meta.Patterns = DetectContentPatterns(content)
	meta.Signatures = Signatures(meta.Patterns)
	return Result{Content: content, Metadata: meta}
}

// maxRepetitionProbes bounds how many indices CreateLeastRepetitive tries.
const maxRepetitionProbes = 8

// CreateLeastRepetitive starts at req.VariationIndex and walks forward through
// the indices until one produces content whose signatures were never seen in
// plog. Otherwise the candidate with the lowest summed count wins, earliest first.
// plog is read, not written.
func (e *Engine) CreateLeastRepetitive(req Request, plog *PatternLog) Result {
	if plog == nil {
		return e.CreateVariedContent(req)
	}
	_, total := normalizeIndex(req.VariationIndex, req.TotalVariations)
	probes := total
	if probes > maxRepetitionProbes {
		probes = maxRepetitionProbes
	}
	counts := plog.Snapshot()

	var best Result
	bestScore := -1
	for i := 0; i < probes; i++ {
		candidate := req
		candidate.VariationIndex = req.VariationIndex + i
		res := e.vary(candidate)
		score := 0
		for _, sig := range res.Metadata.Signatures {
			score += counts.Count(sig)
		}
		res.Metadata.RepeatScore = score
		if bestScore < 0 || score < bestScore {
			best, bestScore = res, score
		}
		if score == 0 {
			break
		}
	}
	e.track(best.Metadata)
	return best
}

// DetectContentPatterns detects patterns and counts them in the engine stats.
func (e *Engine) DetectContentPatterns(content string) map[PatternType][]string {
	patterns := DetectContentPatterns(content)
	e.mu.Lock()
	for typ, frags := range patterns {
		e.patternTypeCounts[typ] += len(frags)
	}
	e.mu.Unlock()
	return patterns
}

func (e *Engine) track(meta Metadata) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.created++
	for _, c := range meta.Changes {
		if !c.Changed {
			continue
		}
		e.transforms[c.Type]++
		if c.Type == ChangeLexical {
			for _, s := range c.Substitutions {
				e.synonymFrequency[strings.ToLower(s.To)]++
			}
		}
	}
	for typ, frags := range meta.Patterns {
		e.patternTypeCounts[typ] += len(frags)
	}
}

// Stats returns a copy of the usage counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Stats{
		VariationsCreated:    e.created,
		TransformsApplied:    make(map[string]int, len(e.transforms)),
		SynonymSubstitutions: make(map[string]int, len(e.synonymFrequency)),
		PatternTypeCounts:    make(map[PatternType]int, len(e.patternTypeCounts)),
	}
	for k, v := range e.transforms {
		st.TransformsApplied[k] = v
	}
	for k, v := range e.synonymFrequency {
		st.SynonymSubstitutions[k] = v
	}
	for k, v := range e.patternTypeCounts {
		st.PatternTypeCounts[k] = v
	}
	st.PatternTypesTracked = len(st.PatternTypeCounts)
	return st
}

// TopSynonyms returns the n most used replacement words, most used first.
func (st Stats) TopSynonyms(n int) []string {
	words := make([]string, 0, len(st.SynonymSubstitutions))
	for w := range st.SynonymSubstitutions {
		words = append(words, w)
	}
	sort.Slice(words, func(i, j int) bool {
		a, b := st.SynonymSubstitutions[words[i]], st.SynonymSubstitutions[words[j]]
		if a != b {
			return a > b
		}
		return words[i] < words[j]
	})
	if n >= 0 && n < len(words) {
		words = words[:n]
	}
	return words
}
