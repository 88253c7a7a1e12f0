package terminology

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCanonicalMatchesVariants(t *testing.T) {
	cat := DefaultCatalog()

	cases := map[string]string{
		"MDD":                            "depression",
		"generalized anxiety disorder":   "anxiety",
		"post-traumatic stress disorder": "ptsd",
		"depression":                     "depression",
	}
	for term, want := range cases {
		got, ok := cat.Canonical(term)
		if !ok {
			t.Fatalf("expected %q to resolve", term)
		}
		if got != want {
			t.Fatalf("expected %q for %q, got %q", want, term, got)
		}
	}

	if _, ok := cat.Canonical("broken arm"); ok {
		t.Fatal("expected unknown term to miss")
	}
	if _, ok := cat.Canonical(""); ok {
		t.Fatal("expected empty term to miss")
	}
}

func TestExpandReturnsSortedTokens(t *testing.T) {
	cat := DefaultCatalog()

	got := cat.Expand("History of PTSD and major depressive disorder, plus some anxiety.")
	want := []string{"anxiety", "depression", "ptsd"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestExpandEmptyText(t *testing.T) {
	if got := DefaultCatalog().Expand(""); got != nil {
		t.Fatalf("expected nil for empty text, got %v", got)
	}
}

func TestLoadFallsBackToDefault(t *testing.T) {
	cat, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cat.Conditions) == 0 {
		t.Fatal("expected built-in conditions")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synonyms.yaml")
	content := []byte("conditions:\n  tinnitus:\n    display: Tinnitus\n    variants:\n      - ringing ears\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("failed to write catalog: %v", err)
	}

	cat, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, ok := cat.Canonical("ringing ears"); !ok || got != "tinnitus" {
		t.Fatalf("expected tinnitus, got %q (ok=%v)", got, ok)
	}
}
