package pattern

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// TemplateFields are the sections of a page template. Pattern declares the
// variables; Variables may declare extra ones (e.g. data columns that only
// appear in the body).
type TemplateFields struct {
	Pattern   string   `json:"pattern"`
	Title     string   `json:"title,omitempty"`
	Meta      string   `json:"meta,omitempty"`
	Heading   string   `json:"heading,omitempty"`
	Body      string   `json:"body,omitempty"`
	Variables []string `json:"variables,omitempty"`
}

type Validation struct {
	IsValid   bool     `json:"is_valid"`
	Variables []string `json:"variables"`
	Errors    []string `json:"errors"`
	Warnings  []string `json:"warnings"`
}

// ValidateTemplate cross-checks placeholders used by each section against the
// declared variables. Only an empty pattern or malformed placeholder syntax is
// an error; mismatches are warnings.
func ValidateTemplate(f TemplateFields) Validation {
	v := Validation{Variables: []string{}, Errors: []string{}, Warnings: []string{}}

	if strings.TrimSpace(f.Pattern) == "" {
		v.Errors = append(v.Errors, ErrEmptyPattern.Error())
		return v
	}

	declared, err := ExtractVariables(f.Pattern)
	if err != nil {
		v.Errors = append(v.Errors, "pattern: "+err.Error())
		return v
	}
	declaredSet := map[string]bool{}
	for _, name := range declared {
		declaredSet[name] = true
	}
	for _, name := range f.Variables {
		name = strings.TrimSpace(name)
		if name == "" || declaredSet[name] {
			continue
		}
		declaredSet[name] = true
		declared = append(declared, name)
	}
	v.Variables = declared

	used := map[string]bool{}
	sections := []struct {
		name string
		text string
	}{
		{"title", f.Title},
		{"meta", f.Meta},
		{"heading", f.Heading},
		{"body", f.Body},
	}
	anySection := false
	for _, s := range sections {
		if strings.TrimSpace(s.text) == "" {
			continue
		}
		anySection = true
		names, err := ExtractVariables(s.text)
		if err != nil {
			v.Errors = append(v.Errors, s.name+": "+err.Error())
			continue
		}
		for _, name := range names {
			used[name] = true
			if declaredSet[name] {
				continue
			}
			msg := fmt.Sprintf("%s: placeholder %q is not declared", s.name, name)
			if hint := closestName(name, declared); hint != "" {
				msg += fmt.Sprintf(" (did you mean %q?)", hint)
			}
			v.Warnings = append(v.Warnings, msg)
		}
	}

	if anySection {
		for _, name := range declared {
			if !used[name] {
				v.Warnings = append(v.Warnings, fmt.Sprintf("variable %q is declared but not used in any section", name))
			}
		}
	}

	v.IsValid = len(v.Errors) == 0
	return v
}

func closestName(name string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	matches := fuzzy.Find(strings.ToLower(name), lowerAll(candidates))
	if len(matches) == 0 {
		return ""
	}
	return candidates[matches[0].Index]
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
