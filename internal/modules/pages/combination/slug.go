package combination

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const fallbackSlug = "page"

// Slugify lower-cases s, folds accents, turns whitespace, hyphens and
// underscores into single hyphens and drops everything else outside [a-z0-9].
func Slugify(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var sb strings.Builder
	sb.Grow(len(folded))
	pendingHyphen := false
	for _, r := range folded {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			if pendingHyphen && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			pendingHyphen = false
			sb.WriteRune(r)
		case r == '-' || r == '_' || unicode.IsSpace(r):
			pendingHyphen = true
		}
	}
	return sb.String()
}

// SlugAllocator hands out unique slugs in encounter order: the first use of a
// base slug is returned as is, later ones get "-2", "-3", ...
type SlugAllocator struct {
	used map[string]bool
	next map[string]int
}

func NewSlugAllocator() *SlugAllocator {
	return &SlugAllocator{used: map[string]bool{}, next: map[string]int{}}
}

func (a *SlugAllocator) Allocate(title string) string {
	base := Slugify(title)
	if base == "" {
		base = fallbackSlug
	}
	if !a.used[base] {
		a.used[base] = true
		return base
	}
	n := a.next[base]
	if n < 2 {
		n = 2
	}
	for {
		candidate := base + "-" + strconv.Itoa(n)
		n++
		if !a.used[candidate] {
			a.used[candidate] = true
			a.next[base] = n
			return candidate
		}
	}
}
