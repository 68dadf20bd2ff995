package combination

import (
	"errors"
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func values(vs ...string) []Value {
	out := make([]Value, 0, len(vs))
	for _, v := range vs {
		out = append(out, Value{Value: v, SourceID: "csv", SourceName: "upload.csv"})
	}
	return out
}

func titles(pages []Page) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.Title)
	}
	return out
}

func slugs(pages []Page) []string {
	out := make([]string, 0, len(pages))
	for _, p := range pages {
		out = append(out, p.Slug)
	}
	return out
}

func TestGenerate_ServiceCityExample(t *testing.T) {
	tmpl := Template{ID: uuid.New(), Pattern: "{Service} in {City}"}
	res, err := Generate(tmpl, ValueSets{
		"Service": values("Plumbers", "Electricians"),
		"City":    values("Toronto", "Vancouver"),
	}, 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	wantTitles := []string{"Plumbers in Toronto", "Plumbers in Vancouver", "Electricians in Toronto", "Electricians in Vancouver"}
	wantSlugs := []string{"plumbers-in-toronto", "plumbers-in-vancouver", "electricians-in-toronto", "electricians-in-vancouver"}
	if got := titles(res.Pages); !reflect.DeepEqual(got, wantTitles) {
		t.Fatalf("titles: %#v", got)
	}
	if got := slugs(res.Pages); !reflect.DeepEqual(got, wantSlugs) {
		t.Fatalf("slugs: %#v", got)
	}
	if res.TotalCombinations != 4 || res.Truncated {
		t.Fatalf("unexpected totals: %d truncated=%v", res.TotalCombinations, res.Truncated)
	}
	if res.Pages[2].Variables["Service"] != "Electricians" || res.Pages[2].Variables["City"] != "Toronto" {
		t.Fatalf("unexpected variables: %#v", res.Pages[2].Variables)
	}
}

func TestGenerate_ProductSizeAndUniqueIdentity(t *testing.T) {
	tmpl := Template{ID: uuid.New(), Pattern: "{A} {B} [C]"}
	res, err := Generate(tmpl, ValueSets{
		"A": values("a1", "a2", "a3"),
		"B": values("b1"),
		"C": values("c1", "c2", "c3", "c4"),
	}, 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Pages) != 12 || res.TotalCombinations != 12 {
		t.Fatalf("expected 12 pages, got %d (total %d)", len(res.Pages), res.TotalCombinations)
	}
	keys := map[string]bool{}
	ids := map[uuid.UUID]bool{}
	for _, p := range res.Pages {
		if keys[p.IdentityKey] || ids[p.ID] {
			t.Fatalf("duplicate identity: %#v", p)
		}
		keys[p.IdentityKey] = true
		ids[p.ID] = true
	}
}

func TestGenerate_DeterministicAndCappedPrefix(t *testing.T) {
	tmpl := Template{ID: uuid.New(), Pattern: "{Service} in {City}", Title: "Top {Service} | {City}"}
	sets := ValueSets{
		"Service": values("Roofers", "Painters", "Movers"),
		"City":    values("Austin", "Dallas", "Houston"),
	}
	full, err := Generate(tmpl, sets, 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	again, _ := Generate(tmpl, sets, 0)
	if !reflect.DeepEqual(full, again) {
		t.Fatalf("generation is not deterministic")
	}

	capped, err := Generate(tmpl, sets, 4)
	if err != nil {
		t.Fatalf("Generate capped: %v", err)
	}
	if len(capped.Pages) != 4 || !capped.Truncated || capped.TotalCombinations != 9 {
		t.Fatalf("unexpected capped result: len=%d truncated=%v total=%d", len(capped.Pages), capped.Truncated, capped.TotalCombinations)
	}
	if !reflect.DeepEqual(capped.Pages, full.Pages[:4]) {
		t.Fatalf("capped pages are not a prefix of the full ordering")
	}
	if capped.Pages[0].Slug != "top-roofers-austin" {
		t.Fatalf("unexpected slug: %q", capped.Pages[0].Slug)
	}
}

func TestGenerate_SlugCollisions(t *testing.T) {
	tmpl := Template{ID: uuid.New(), Pattern: "{Kind}", Title: "Web Design Provider"}
	res, err := Generate(tmpl, ValueSets{"Kind": values("agency", "freelancer", "studio")}, 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	want := []string{"web-design-provider", "web-design-provider-2", "web-design-provider-3"}
	if got := slugs(res.Pages); !reflect.DeepEqual(got, want) {
		t.Fatalf("slugs: %#v", got)
	}
}

func TestGenerate_EdgeCases(t *testing.T) {
	tmpl := Template{ID: uuid.New(), Pattern: "{Service} in {City}"}

	empty, err := Generate(tmpl, ValueSets{"Service": values("Plumbers"), "City": nil}, 0)
	if err != nil {
		t.Fatalf("zero values must not be an error: %v", err)
	}
	if len(empty.Pages) != 0 || empty.TotalCombinations != 0 || !reflect.DeepEqual(empty.EmptyVariables, []string{"City"}) {
		t.Fatalf("unexpected empty result: %#v", empty)
	}

	_, err = Generate(tmpl, ValueSets{"Service": values("Plumbers")}, 0)
	if !errors.Is(err, ErrTemplateVariableMismatch) {
		t.Fatalf("expected mismatch error, got %v", err)
	}
	var me *MismatchError
	if !errors.As(err, &me) || !reflect.DeepEqual(me.Missing, []string{"City"}) {
		t.Fatalf("unexpected mismatch detail: %#v", me)
	}

	single, err := Generate(Template{ID: uuid.New(), Pattern: "Emergency Plumbing"}, nil, 0)
	if err != nil || len(single.Pages) != 1 || single.Pages[0].Slug != "emergency-plumbing" {
		t.Fatalf("single page template: %#v err=%v", single, err)
	}
}

func TestGenerate_DedupesValues(t *testing.T) {
	tmpl := Template{ID: uuid.New(), Pattern: "{City}"}
	res, err := Generate(tmpl, ValueSets{"City": values("Toronto", " toronto ", "TORONTO", "", "Ottawa")}, 0)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := titles(res.Pages); !reflect.DeepEqual(got, []string{"Toronto", "Ottawa"}) {
		t.Fatalf("titles: %#v", got)
	}
	if res.DuplicatesRemoved["City"] != 3 {
		t.Fatalf("duplicates removed: %#v", res.DuplicatesRemoved)
	}
}

func TestPageID_StableAcrossRuns(t *testing.T) {
	tid := uuid.New()
	a, _ := Generate(Template{ID: tid, Pattern: "{X}"}, ValueSets{"X": values("one", "two")}, 0)
	b, _ := Generate(Template{ID: tid, Pattern: "{X}"}, ValueSets{"X": values("two", "one")}, 0)
	if a.Pages[0].ID != b.Pages[1].ID {
		t.Fatalf("same assignment must map to the same id regardless of order")
	}
}
