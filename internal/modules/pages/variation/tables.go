package variation

import (
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var tablesYAML []byte

type rawTables struct {
	Synonyms [][]string `yaml:"synonyms"`
	Openers  [][]string `yaml:"openers"`
	LeadIns  []string   `yaml:"lead_ins"`
}

// Tables are the fixed, deterministic inputs of the variation transforms.
type Tables struct {
	Synonyms [][]string
	Openers  [][]string
	LeadIns  []string

	synonymGroup map[string]int
	synonymRe    *regexp.Regexp
	openerRe     *regexp.Regexp
	openerGroup  map[string]int
}

var (
	defaultOnce   sync.Once
	defaultTables *Tables
	defaultErr    error
)

// DefaultTables returns the embedded tables.
func DefaultTables() (*Tables, error) {
	defaultOnce.Do(func() {
		defaultTables, defaultErr = ParseTables(tablesYAML)
	})
	return defaultTables, defaultErr
}

// ParseTables reads tables from YAML.
func ParseTables(raw []byte) (*Tables, error) {
	var rt rawTables
	if err := yaml.Unmarshal(raw, &rt); err != nil {
		return nil, fmt.Errorf("variation tables: %w", err)
	}
	return NewTables(rt.Synonyms, rt.Openers, rt.LeadIns)
}

func NewTables(synonyms, openers [][]string, leadIns []string) (*Tables, error) {
	t := &Tables{
		synonymGroup: map[string]int{},
		openerGroup:  map[string]int{},
	}
	for _, g := range synonyms {
		g = cleanGroup(g)
		if len(g) < 2 {
			continue
		}
		idx := len(t.Synonyms)
		for _, w := range g {
			key := strings.ToLower(w)
			if _, dup := t.synonymGroup[key]; dup {
				return nil, fmt.Errorf("variation tables: %q appears in more than one synonym group", w)
			}
			t.synonymGroup[key] = idx
		}
		t.Synonyms = append(t.Synonyms, g)
	}
	for _, g := range openers {
		g = cleanGroup(g)
		if len(g) < 2 {
			continue
		}
		idx := len(t.Openers)
		for _, p := range g {
			t.openerGroup[strings.ToLower(p)] = idx
		}
		t.Openers = append(t.Openers, g)
	}
	for _, l := range leadIns {
		if l = strings.TrimSpace(l); l != "" {
			t.LeadIns = append(t.LeadIns, l)
		}
	}
	t.synonymRe = alternation(t.synonymGroup, `(?i)\b(`, `)\b`)
	// Openers only match at the start of a line or after sentence punctuation.
	t.openerRe = alternation(t.openerGroup, `(?im)(^|[.!?]\s+)(`, `)`)
	return t, nil
}

func cleanGroup(g []string) []string {
	out := make([]string, 0, len(g))
	for _, s := range g {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// alternation builds a regexp matching any key, longest first.
func alternation(set map[string]int, prefix, suffix string) *regexp.Regexp {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = regexp.QuoteMeta(k)
	}
	return regexp.MustCompile(prefix + strings.Join(quoted, "|") + suffix)
}
