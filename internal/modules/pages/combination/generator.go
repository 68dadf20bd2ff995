package combination

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/pagecraft-backend/internal/modules/pages/pattern"
)

// ErrTemplateVariableMismatch is wrapped by *MismatchError.
var ErrTemplateVariableMismatch = errors.New("template variable mismatch")

const preallocCap = 1 << 16

type MismatchError struct {
	Missing []string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("template variable mismatch: no value set for %s", strings.Join(e.Missing, ", "))
}

func (e *MismatchError) Unwrap() error { return ErrTemplateVariableMismatch }

type Value struct {
	Value      string         `json:"value"`
	SourceID   string         `json:"source_id,omitempty"`
	SourceName string         `json:"source_name,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// ValueSets maps a variable name to its ordered values.
type ValueSets map[string][]Value

// Template is the part of a stored template the generator needs. Title falls
// back to Pattern when empty.
type Template struct {
	ID      uuid.UUID
	Pattern string
	Title   string
}

type Pair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Page struct {
	ID          uuid.UUID         `json:"id"`
	TemplateID  uuid.UUID         `json:"template_id"`
	Ordinal     int               `json:"ordinal"`
	IdentityKey string            `json:"identity_key"`
	Pairs       []Pair            `json:"pairs"`
	Variables   map[string]string `json:"variables"`
	Title       string            `json:"title"`
	Slug        string            `json:"slug"`
	Generated   bool              `json:"generated"`
}

type Result struct {
	Pages []Page `json:"pages"`
	// TotalCombinations is the uncapped product size, saturated at MaxInt64.
	TotalCombinations int64          `json:"total_combinations"`
	Truncated         bool           `json:"truncated"`
	EmptyVariables    []string       `json:"empty_variables,omitempty"`
	DuplicatesRemoved map[string]int `json:"duplicates_removed,omitempty"`
}

// Generate expands the cartesian product of sets in the pattern's variable
// order. The last variable varies fastest. maxCombinations <= 0 means no cap;
// otherwise the result is the first maxCombinations pages of that order.
func Generate(tmpl Template, sets ValueSets, maxCombinations int) (Result, error) {
	res := Result{Pages: []Page{}, DuplicatesRemoved: map[string]int{}}

	names, err := pattern.ExtractVariables(tmpl.Pattern)
	if err != nil {
		return res, err
	}
	titlePattern := tmpl.Title
	if strings.TrimSpace(titlePattern) == "" {
		titlePattern = tmpl.Pattern
	}
	if _, err := pattern.Tokenize(titlePattern); err != nil {
		return res, err
	}

	var missing []string
	for _, name := range names {
		if _, ok := sets[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return res, &MismatchError{Missing: missing}
	}

	columns := make([][]string, len(names))
	total := int64(1)
	for i, name := range names {
		vals, removed := DedupeValues(sets[name])
		if removed > 0 {
			res.DuplicatesRemoved[name] = removed
		}
		if len(vals) == 0 {
			res.EmptyVariables = append(res.EmptyVariables, name)
		}
		columns[i] = vals
		total = mulSaturating(total, int64(len(vals)))
	}
	res.TotalCombinations = total
	if total == 0 {
		return res, nil
	}

	limit := total
	if maxCombinations > 0 && int64(maxCombinations) < total {
		limit = int64(maxCombinations)
		res.Truncated = true
	}

	slugs := NewSlugAllocator()
	capHint := limit
	if capHint > preallocCap {
		capHint = preallocCap
	}
	res.Pages = make([]Page, 0, capHint)
	idx := make([]int, len(names))
	for n := int64(0); n < limit; n++ {
		pairs := make([]Pair, len(names))
		vars := make(map[string]string, len(names))
		for i, name := range names {
			v := columns[i][idx[i]]
			pairs[i] = Pair{Name: name, Value: v}
			vars[name] = v
		}
		title, err := pattern.Render(titlePattern, vars)
		if err != nil {
			return res, err
		}
		title = strings.Join(strings.Fields(title), " ")
		key := IdentityKey(pairs)
		res.Pages = append(res.Pages, Page{
			ID:          PageID(tmpl.ID, key),
			TemplateID:  tmpl.ID,
			Ordinal:     int(n),
			IdentityKey: key,
			Pairs:       pairs,
			Variables:   vars,
			Title:       title,
			Slug:        slugs.Allocate(title),
		})
		advance(idx, columns)
	}
	return res, nil
}

// advance moves the odometer one step, last position fastest.
func advance(idx []int, columns [][]string) {
	for i := len(idx) - 1; i >= 0; i-- {
		idx[i]++
		if idx[i] < len(columns[i]) {
			return
		}
		idx[i] = 0
	}
}

// DedupeValues drops blank values and values equal to an earlier one after
// case-insensitive trimming. Kept values are trimmed.
func DedupeValues(in []Value) ([]string, int) {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	removed := 0
	for _, v := range in {
		trimmed := strings.TrimSpace(v.Value)
		norm := strings.ToLower(trimmed)
		if norm == "" || seen[norm] {
			removed++
			continue
		}
		seen[norm] = true
		out = append(out, trimmed)
	}
	return out, removed
}

// IdentityKey canonically encodes the ordered (name, value) pairs.
func IdentityKey(pairs []Pair) string {
	raw := make([][2]string, len(pairs))
	for i, p := range pairs {
		raw[i] = [2]string{p.Name, p.Value}
	}
	b, _ := json.Marshal(raw)
	return string(b)
}

// PageID is stable for a (template, identity key) pair.
func PageID(templateID uuid.UUID, identityKey string) uuid.UUID {
	return uuid.NewSHA1(templateID, []byte(identityKey))
}

func mulSaturating(a, b int64) int64 {
	if a == 0 || b == 0 {
		return 0
	}
	if a > math.MaxInt64/b {
		return math.MaxInt64
	}
	return a * b
}
