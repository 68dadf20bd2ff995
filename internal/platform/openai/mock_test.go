package openai

import (
	"context"
	"strings"
	"testing"
)

func TestMockClient_UsesTitleAndDraft(t *testing.T) {
	prompt := "Write a page.\nTITLE: Plumbers in Toronto\nRULES: be nice\nDRAFT:\nFirst paragraph.\n\nSecond paragraph."
	out, err := NewMockClient().GenerateText(context.Background(), "sys", prompt)
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if !strings.HasPrefix(out, "# Plumbers in Toronto\n\n") {
		t.Fatalf("missing heading: %q", out)
	}
	if !strings.Contains(out, "Second paragraph.") || strings.Contains(out, "RULES") {
		t.Fatalf("unexpected body: %q", out)
	}
}

func TestMockClient_RespectsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewMockClient().GenerateText(ctx, "", "x"); err == nil {
		t.Fatalf("expected error for canceled context")
	}
}
