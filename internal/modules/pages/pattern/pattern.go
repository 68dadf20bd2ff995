package pattern

import (
	"strings"
)

// ExtractVariables returns the unique placeholder names of pattern in order of
// first occurrence. A pattern without placeholders yields an empty slice.
func ExtractVariables(pattern string) ([]string, error) {
	tokens, err := Tokenize(pattern)
	if err != nil {
		return nil, err
	}
	out := []string{}
	seen := map[string]bool{}
	for _, tok := range tokens {
		if tok.Kind != TokenPlaceholder || seen[tok.Name] {
			continue
		}
		seen[tok.Name] = true
		out = append(out, tok.Name)
	}
	return out, nil
}

// Render substitutes values into pattern. Placeholders without a value are
// kept verbatim.
func Render(pattern string, values map[string]string) (string, error) {
	tokens, err := Tokenize(pattern)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.Grow(len(pattern))
	for _, tok := range tokens {
		if tok.Kind == TokenPlaceholder {
			if v, ok := values[tok.Name]; ok {
				sb.WriteString(v)
				continue
			}
		}
		sb.WriteString(tok.Raw)
	}
	return sb.String(), nil
}

// Substitute replaces "{name}" and "[name]" occurrences for every key of
// values without tokenizing, so it never fails on free-form prose.
func Substitute(content string, values map[string]string) string {
	if len(values) == 0 || content == "" {
		return content
	}
	pairs := make([]string, 0, len(values)*4)
	for k, v := range values {
		pairs = append(pairs, "{"+k+"}", v, "["+k+"]", v)
	}
	return strings.NewReplacer(pairs...).Replace(content)
}
