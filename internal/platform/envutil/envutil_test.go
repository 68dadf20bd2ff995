package envutil

import (
	"testing"
	"time"
)

func TestLookups(t *testing.T) {
	t.Setenv("PC_INT", "12")
	t.Setenv("PC_BAD_INT", "x")
	t.Setenv("PC_BOOL", "off")
	t.Setenv("PC_DUR", "750ms")
	t.Setenv("PC_DUR_SECONDS", "3")
	t.Setenv("PC_FLOAT", "0.25")

	if got := Int("PC_INT", 1); got != 12 {
		t.Fatalf("Int: got %d", got)
	}
	if got := Int("PC_BAD_INT", 7); got != 7 {
		t.Fatalf("Int fallback: got %d", got)
	}
	if got := Bool("PC_BOOL", true); got {
		t.Fatalf("Bool: expected false")
	}
	if got := Bool("PC_MISSING", true); !got {
		t.Fatalf("Bool default: expected true")
	}
	if got := Duration("PC_DUR", time.Second); got != 750*time.Millisecond {
		t.Fatalf("Duration: got %v", got)
	}
	if got := Duration("PC_DUR_SECONDS", time.Second); got != 3*time.Second {
		t.Fatalf("Duration seconds: got %v", got)
	}
	if got := Float("PC_FLOAT", 1); got != 0.25 {
		t.Fatalf("Float: got %v", got)
	}
	if got := String("PC_MISSING", "def"); got != "def" {
		t.Fatalf("String default: got %q", got)
	}
}
