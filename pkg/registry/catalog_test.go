package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hepascope/platform/pkg/common/models"
)

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing catalog file: %v", err)
	}
	return path
}

func TestLoadOverrideCatalog(t *testing.T) {
	path := writeCatalog(t, `
metrics:
  ALT:
    display: Alanine Aminotransferase
    canonical_unit: U/L
    synonyms: [alt, sgpt]
`)

	reg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := reg.ResolveName("sgpt"); !ok {
		t.Fatal("expected override synonym to resolve")
	}
	// The override replaces the vocabulary wholesale.
	if _, ok := reg.ResolveName("Creatinine"); ok {
		t.Fatal("expected metrics absent from the override to stay unresolved")
	}
}

func TestLoadFallsBackToBuiltinVocabulary(t *testing.T) {
	cases := map[string]string{
		"malformed yaml":  writeCatalog(t, ": not yaml ["),
		"empty catalog":   writeCatalog(t, "metrics: {}"),
		"unreadable path": filepath.Join(t.TempDir(), "missing.yaml"),
	}

	for name, path := range cases {
		reg, err := Load(path)
		if err == nil {
			t.Fatalf("%s: expected an error", name)
		}
		if reg == nil {
			t.Fatalf("%s: expected the built-in registry alongside the error", name)
		}
		// Callers warn and continue, so the fallback must be usable.
		if metric, ok := reg.ResolveName("ALT"); !ok || metric != models.MetricALT {
			t.Fatalf("%s: expected built-in vocabulary to resolve ALT, got %q %v", name, metric, ok)
		}
	}
}

func TestLoadEmptyPathMeansBuiltin(t *testing.T) {
	reg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := reg.ResolveName("Total Bilirubin"); !ok {
		t.Fatal("expected built-in vocabulary")
	}
}
