package namespace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func buildTestTree(t *testing.T) *Snapshot {
	t.Helper()
	root := t.TempDir()

	files := []string{
		"htm/L0/index.htm",
		"htm/L1/XF0.htm",
		"htm/L1/XF12.htm",
		"htm/L4/index.htm",
		"new/L1/XF0.htm",
		"jpg/sn100.jpg",
		"css/main.css",
	}
	for _, f := range files {
		full := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	snapshot, err := Build(root)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	return snapshot
}

func TestBuildIndexesAllFiles(t *testing.T) {
	snapshot := buildTestTree(t)

	if snapshot.Len() != 7 {
		t.Errorf("expected 7 files, got %d", snapshot.Len())
	}
	if !snapshot.Contains("/htm/L1/XF0.htm") {
		t.Error("expected /htm/L1/XF0.htm in snapshot")
	}
	if !snapshot.Contains("/jpg/sn100.jpg") {
		t.Error("expected non-markup files in snapshot too")
	}
	if snapshot.Contains("/htm/L1/xf0.htm") {
		t.Error("Contains must be exact-case")
	}
}

func TestCaseVariants(t *testing.T) {
	snapshot := buildTestTree(t)

	variants := snapshot.CaseVariants("/htm/L4/INDEX.htm")
	if len(variants) != 1 || variants[0] != "/htm/L4/index.htm" {
		t.Errorf("expected the exact-case variant, got %v", variants)
	}

	// The exact path itself is not a variant.
	if v := snapshot.CaseVariants("/htm/L4/index.htm"); len(v) != 0 {
		t.Errorf("expected no variants for an existing exact path, got %v", v)
	}
}

func TestBasenameMatches(t *testing.T) {
	snapshot := buildTestTree(t)

	matches := snapshot.BasenameMatches("XF0.htm")
	if len(matches) != 2 {
		t.Fatalf("expected XF0.htm in two directories, got %v", matches)
	}
	for _, m := range matches {
		if !strings.HasSuffix(m, "/XF0.htm") {
			t.Errorf("unexpected basename match %q", m)
		}
	}
}

func TestDocuments(t *testing.T) {
	snapshot := buildTestTree(t)
	isMarkup := func(ext string) bool { return ext == ".htm" }

	all := snapshot.Documents(isMarkup, "")
	if len(all) != 5 {
		t.Errorf("expected 5 documents, got %d: %v", len(all), all)
	}

	htmOnly := snapshot.Documents(isMarkup, "htm")
	if len(htmOnly) != 4 {
		t.Errorf("expected 4 documents under /htm, got %d: %v", len(htmOnly), htmOnly)
	}
	for _, d := range htmOnly {
		if !strings.HasPrefix(d, "/htm/") {
			t.Errorf("selector leaked document %q", d)
		}
	}
}

func TestDocumentsDeterministicOrder(t *testing.T) {
	snapshot := buildTestTree(t)
	isMarkup := func(ext string) bool { return ext == ".htm" }

	first := snapshot.Documents(isMarkup, "")
	second := snapshot.Documents(isMarkup, "")
	if len(first) != len(second) {
		t.Fatalf("length mismatch: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("order differs at %d: %q vs %q", i, first[i], second[i])
		}
	}
}

func TestBuildMissingRoot(t *testing.T) {
	if _, err := Build(filepath.Join(t.TempDir(), "does-not-exist")); err == nil {
		t.Error("expected error for inaccessible root")
	}
}
