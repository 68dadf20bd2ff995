package variation

import (
	"hash/fnv"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxReorderSegments caps structural reordering to 4! permutations.
const MaxReorderSegments = 4

const (
	ChangeLexical = "lexical_substitution"
	ChangeOpener  = "opener_rotation"
	ChangeReorder = "structural_reorder"
	ChangeLeadIn  = "lead_in"
)

type Substitution struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Change records what one transformation did.
type Change struct {
	Type          string         `json:"type"`
	Changed       bool           `json:"changed"`
	Substitutions []Substitution `json:"substitutions,omitempty"`
	Unit          string         `json:"unit,omitempty"`
	Segments      int            `json:"segments,omitempty"`
	Permutation   []int          `json:"permutation,omitempty"`
	Phrase        string         `json:"phrase,omitempty"`
}

func wordHash(w string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(w)))
	return h.Sum32()
}

func matchCase(src, repl string) string {
	if src == "" || repl == "" {
		return repl
	}
	if strings.ToUpper(src) == src && strings.ToLower(src) != src && utf8.RuneCountInString(src) > 1 {
		return strings.ToUpper(repl)
	}
	first, _ := utf8.DecodeRuneInString(src)
	if unicode.IsUpper(first) {
		r, size := utf8.DecodeRuneInString(repl)
		return string(unicode.ToUpper(r)) + repl[size:]
	}
	return repl
}

// substituteSynonyms swaps every table word for group[(hash(word)+index) mod len(group)].
func (t *Tables) substituteSynonyms(content string, index int) (string, Change) {
	ch := Change{Type: ChangeLexical}
	if t.synonymRe == nil {
		return content, ch
	}
	out := t.synonymRe.ReplaceAllStringFunc(content, func(m string) string {
		g := t.Synonyms[t.synonymGroup[strings.ToLower(m)]]
		pick := g[int((uint64(wordHash(m))+uint64(index))%uint64(len(g)))]
		repl := matchCase(m, pick)
		if repl != m {
			ch.Substitutions = append(ch.Substitutions, Substitution{From: m, To: repl})
		}
		return repl
	})
	ch.Changed = len(ch.Substitutions) > 0
	return out, ch
}

// rotateOpeners swaps sentence openers for group[index mod len(group)].
func (t *Tables) rotateOpeners(content string, index int) (string, Change) {
	ch := Change{Type: ChangeOpener}
	if t.openerRe == nil {
		return content, ch
	}
	locs := t.openerRe.FindAllStringSubmatchIndex(content, -1)
	if len(locs) == 0 {
		return content, ch
	}
	var sb strings.Builder
	last := 0
	for _, loc := range locs {
		start, end := loc[4], loc[5]
		phrase := content[start:end]
		g := t.Openers[t.openerGroup[strings.ToLower(phrase)]]
		repl := g[index%len(g)]
		sb.WriteString(content[last:start])
		sb.WriteString(repl)
		if repl != phrase {
			ch.Substitutions = append(ch.Substitutions, Substitution{From: phrase, To: repl})
		}
		last = end
	}
	sb.WriteString(content[last:])
	ch.Changed = len(ch.Substitutions) > 0
	return sb.String(), ch
}

var paragraphSplitRe = regexp.MustCompile(`\n[ \t]*\n`)
var listItemRe = regexp.MustCompile(`^\s*(?:[-*+]|\d+[.)])\s+`)

func isProse(p string) bool {
	p = strings.TrimSpace(p)
	return p != "" && !strings.HasPrefix(p, "#") && !listItemRe.MatchString(p) && !strings.HasPrefix(p, "|")
}

func splitParagraphs(content string) []string {
	parts := paragraphSplitRe.Split(strings.TrimSpace(content), -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, strings.TrimSpace(p))
		}
	}
	return out
}

// splitSentences splits after ., ! or ? followed by whitespace.
func splitSentences(p string) []string {
	var out []string
	start := 0
	for i := 0; i < len(p); i++ {
		c := p[i]
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		j := i + 1
		for j < len(p) && (p[j] == '.' || p[j] == '!' || p[j] == '?' || p[j] == '"' || p[j] == ')') {
			j++
		}
		if j < len(p) && p[j] != ' ' && p[j] != '\n' && p[j] != '\t' {
			continue
		}
		if s := strings.TrimSpace(p[start:j]); s != "" {
			out = append(out, s)
		}
		start = j
		i = j - 1
	}
	if s := strings.TrimSpace(p[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func factorial(n int) int {
	f := 1
	for i := 2; i <= n; i++ {
		f *= i
	}
	return f
}

// nthPermutation decodes k (0 <= k < n!) as a Lehmer code over 0..n-1.
func nthPermutation(n, k int) []int {
	pool := make([]int, n)
	for i := range pool {
		pool[i] = i
	}
	out := make([]int, 0, n)
	for i := n; i >= 1; i-- {
		f := factorial(i - 1)
		pos := k / f
		k %= f
		out = append(out, pool[pos])
		pool = append(pool[:pos], pool[pos+1:]...)
	}
	return out
}

func permute(segments []string, index int) ([]string, []int) {
	k := len(segments)
	if k > MaxReorderSegments {
		k = MaxReorderSegments
	}
	perm := nthPermutation(k, index%factorial(k))
	out := make([]string, 0, len(segments))
	for _, p := range perm {
		out = append(out, segments[p])
	}
	out = append(out, segments[k:]...)
	return out, perm
}

func isIdentity(perm []int) bool {
	for i, p := range perm {
		if i != p {
			return false
		}
	}
	return true
}

// reorder permutes the longest run of prose paragraphs, or failing that the
// sentences of the first multi-sentence paragraph.
func reorder(content string, index int) (string, Change) {
	ch := Change{Type: ChangeReorder}
	paras := splitParagraphs(content)

	bestStart, bestLen := -1, 0
	for i := 0; i < len(paras); {
		if !isProse(paras[i]) {
			i++
			continue
		}
		j := i
		for j < len(paras) && isProse(paras[j]) {
			j++
		}
		if j-i > bestLen {
			bestStart, bestLen = i, j-i
		}
		i = j
	}

	if bestLen >= 2 {
		reordered, perm := permute(paras[bestStart:bestStart+bestLen], index)
		ch.Unit, ch.Segments, ch.Permutation = "paragraph", bestLen, perm
		if isIdentity(perm) {
			return content, ch
		}
		out := append(append(append([]string{}, paras[:bestStart]...), reordered...), paras[bestStart+bestLen:]...)
		ch.Changed = true
		return strings.Join(out, "\n\n"), ch
	}

	for i, p := range paras {
		if !isProse(p) {
			continue
		}
		sentences := splitSentences(p)
		if len(sentences) < 2 {
			continue
		}
		reordered, perm := permute(sentences, index)
		ch.Unit, ch.Segments, ch.Permutation = "sentence", len(sentences), perm
		if isIdentity(perm) {
			return content, ch
		}
		paras[i] = strings.Join(reordered, " ")
		ch.Changed = true
		return strings.Join(paras, "\n\n"), ch
	}
	return content, ch
}

// prependLeadIn inserts a lead-in sentence before the first prose paragraph.
func (t *Tables) prependLeadIn(content string, index int) (string, Change) {
	ch := Change{Type: ChangeLeadIn}
	if len(t.LeadIns) == 0 {
		return content, ch
	}
	phrase := t.LeadIns[index%len(t.LeadIns)]
	paras := splitParagraphs(content)
	if len(paras) == 0 {
		return phrase, Change{Type: ChangeLeadIn, Changed: true, Phrase: phrase}
	}
	inserted := false
	for i, p := range paras {
		if isProse(p) {
			paras[i] = phrase + " " + p
			inserted = true
			break
		}
	}
	if !inserted {
		paras = append([]string{phrase}, paras...)
	}
	ch.Changed, ch.Phrase = true, phrase
	return strings.Join(paras, "\n\n"), ch
}
