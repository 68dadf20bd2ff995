package logger

import "testing"

func TestSanitizeKVs_RedactsSensitiveKeys(t *testing.T) {
	got := sanitizeKVs([]interface{}{"openai_api_key", "sk-123", "template_id", "abc", "dangling"})
	if len(got) != 5 {
		t.Fatalf("unexpected length: %#v", got)
	}
	if got[1] != "[REDACTED]" {
		t.Fatalf("expected api key redacted, got %#v", got[1])
	}
	if got[3] != "abc" {
		t.Fatalf("expected template_id untouched, got %#v", got[3])
	}
	if got[4] != "dangling" {
		t.Fatalf("expected dangling key kept, got %#v", got[4])
	}
}

func TestNop_DoesNotPanic(t *testing.T) {
	l := Nop().With("component", "test")
	l.Info("hello", "k", "v")
	l.Sync()
}
