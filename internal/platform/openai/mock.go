package openai

import (
	"context"
	"strings"
)

// MockClient turns the prompt back into a markdown document without calling a
// provider. Lines prefixed "TITLE:" become the heading; text after a "DRAFT:"
// line becomes the body.
type MockClient struct{}

func NewMockClient() Client { return MockClient{} }

func (MockClient) GenerateText(ctx context.Context, _ string, user string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	title := ""
	body := user
	lines := strings.Split(user, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "TITLE:") && title == "" {
			title = strings.TrimSpace(strings.TrimPrefix(trimmed, "TITLE:"))
		}
		if trimmed == "DRAFT:" {
			body = strings.TrimSpace(strings.Join(lines[i+1:], "\n"))
			break
		}
	}
	var sb strings.Builder
	if title != "" {
		sb.WriteString("# ")
		sb.WriteString(title)
		sb.WriteString("\n\n")
	}
	sb.WriteString(strings.TrimSpace(body))
	sb.WriteString("\n")
	return sb.String(), nil
}
