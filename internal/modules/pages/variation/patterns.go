package variation

import (
	"regexp"
	"sort"
	"strings"
)

type PatternType string

const (
	OpeningQuestion      PatternType = "opening_question"
	StatisticCitation    PatternType = "statistic_citation"
	ConclusionCloser     PatternType = "conclusion_closer"
	ComparisonConnective PatternType = "comparison_connective"
)

// PatternTypes lists every tracked structure in a stable order.
var PatternTypes = []PatternType{OpeningQuestion, StatisticCitation, ConclusionCloser, ComparisonConnective}

var (
	statisticRe  = regexp.MustCompile(`(?i)\b\d+(?:[.,]\d+)?\s?(?:%|percent\b)|\baccording to\b`)
	conclusionRe = regexp.MustCompile(`(?i)\b(?:in conclusion|to sum up|in summary|all in all|ultimately|to wrap up|in short|overall)\b`)
	comparisonRe = regexp.MustCompile(`(?i)\b(?:compared (?:to|with)|in contrast|on the other hand|whereas|unlike|versus)\b|\bvs\.`)
	digitsRe     = regexp.MustCompile(`\d+`)
	headingRe    = regexp.MustCompile(`^#{1,6}\s*`)
)

// DetectContentPatterns finds the tracked structural shapes in content. Only
// types with at least one match appear in the result.
func DetectContentPatterns(content string) map[PatternType][]string {
	out := map[PatternType][]string{}
	if strings.TrimSpace(content) == "" {
		return out
	}
	if q := openingQuestion(content); q != "" {
		out[OpeningQuestion] = []string{q}
	}
	if m := statisticRe.FindAllString(content, -1); len(m) > 0 {
		out[StatisticCitation] = m
	}
	if m := conclusionRe.FindAllString(content, -1); len(m) > 0 {
		out[ConclusionCloser] = m
	}
	if m := comparisonRe.FindAllString(content, -1); len(m) > 0 {
		out[ComparisonConnective] = m
	}
	return out
}

// openingQuestion returns the first sentence when it is a question.
func openingQuestion(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(headingRe.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		sentences := splitSentences(line)
		if len(sentences) == 0 {
			return ""
		}
		first := sentences[0]
		if strings.HasSuffix(first, "?") {
			return first
		}
		return ""
	}
	return ""
}

// Signatures reduces detected fragments to comparable shapes such as
// "statistic_citation:#%" or "opening_question:what". The result is sorted and
// free of duplicates.
func Signatures(patterns map[PatternType][]string) []string {
	seen := map[string]bool{}
	for typ, frags := range patterns {
		for _, f := range frags {
			seen[string(typ)+":"+shape(typ, f)] = true
		}
	}
	out := make([]string, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

func shape(typ PatternType, fragment string) string {
	f := strings.ToLower(strings.TrimSpace(fragment))
	if typ == OpeningQuestion {
		fields := strings.Fields(f)
		if len(fields) == 0 {
			return "?"
		}
		return strings.Trim(fields[0], "?,.!")
	}
	f = digitsRe.ReplaceAllString(f, "#")
	return strings.Join(strings.Fields(f), " ")
}
