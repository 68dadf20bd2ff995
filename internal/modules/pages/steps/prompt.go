package steps

import (
	"fmt"
	"sort"
	"strings"

	types "github.com/yungbote/pagecraft-backend/internal/domain"
	"github.com/yungbote/pagecraft-backend/internal/modules/pages/pattern"
)

const pageSystemPrompt = `You write search-optimized landing pages in markdown.
Keep the facts in the draft, keep its structure, and expand it into a complete page.
Start with a single "# " heading. Use "## " subheadings. Do not invent statistics.`

// defaultBody is used for templates without a body section.
const defaultBody = "Looking for {title}? This page covers what to expect, how to compare options, and how to get started."

// basePageContent is the unvaried body for a page of tmpl.
func basePageContent(tmpl *types.Template) string {
	if body := strings.TrimSpace(tmpl.BodyTemplate); body != "" {
		return body
	}
	return defaultBody
}

type pagePrompt struct {
	Title     string
	Meta      string
	Heading   string
	Variables map[string]string
	Draft     string
}

func renderSection(section string, vars map[string]string) string {
	section = strings.TrimSpace(section)
	if section == "" {
		return ""
	}
	return pattern.Substitute(section, vars)
}

func (p pagePrompt) String() string {
	var sb strings.Builder
	sb.WriteString("Write the page described below.\n\n")
	fmt.Fprintf(&sb, "TITLE: %s\n", p.Title)
	if p.Meta != "" {
		fmt.Fprintf(&sb, "META: %s\n", p.Meta)
	}
	if p.Heading != "" {
		fmt.Fprintf(&sb, "HEADING: %s\n", p.Heading)
	}
	if len(p.Variables) > 0 {
		keys := make([]string, 0, len(p.Variables))
		for k := range p.Variables {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("FACTS:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "- %s: %s\n", k, p.Variables[k])
		}
	}
	sb.WriteString("DRAFT:\n")
	sb.WriteString(strings.TrimSpace(p.Draft))
	sb.WriteString("\n")
	return sb.String()
}
