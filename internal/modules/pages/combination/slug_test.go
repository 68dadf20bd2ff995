package combination

import "testing"

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"Plumbers in Toronto":       "plumbers-in-toronto",
		"  St. John's -- Best!  ":   "st-johns-best",
		"São Paulo Café":            "sao-paulo-cafe",
		"snake_case   and--dashes":  "snake-case-and-dashes",
		"A & B":                     "a-b",
		"!!!":                       "",
		"Top 10 Roofers (2024)":     "top-10-roofers-2024",
	}
	for in, want := range cases {
		if got := Slugify(in); got != want {
			t.Fatalf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlugAllocator(t *testing.T) {
	a := NewSlugAllocator()
	got := []string{
		a.Allocate("Web Design Provider"),
		a.Allocate("Web Design Provider"),
		a.Allocate("web-design-provider-2"),
		a.Allocate("Web Design Provider"),
		a.Allocate("???"),
	}
	want := []string{"web-design-provider", "web-design-provider-2", "web-design-provider-2-2", "web-design-provider-3", "page"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("allocation %d: got %q want %q (all=%#v)", i, got[i], want[i], got)
		}
	}
}
