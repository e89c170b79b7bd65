package resolve

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name       string
		sourceFile string
		raw        string
		wantPath   string
		wantURL    string
		external   bool
		checkable  bool
	}{
		{
			name:       "sibling file",
			sourceFile: "/htm/L1/XF0.htm",
			raw:        "XF12.htm",
			wantPath:   "/htm/L1/XF12.htm",
			checkable:  true,
		},
		{
			name:       "explicit current directory",
			sourceFile: "/htm/L1/XF0.htm",
			raw:        "./XF12.htm",
			wantPath:   "/htm/L1/XF12.htm",
			checkable:  true,
		},
		{
			name:       "parent directory",
			sourceFile: "/htm/L1/XF0.htm",
			raw:        "../L3/XF12.htm",
			wantPath:   "/htm/L3/XF12.htm",
			checkable:  true,
		},
		{
			name:       "two levels up",
			sourceFile: "/htm/L1/sub/page.htm",
			raw:        "../../index.htm",
			wantPath:   "/htm/index.htm",
			checkable:  true,
		},
		{
			name:       "root-relative ignores source depth",
			sourceFile: "/htm/L1/deep/deeper/XF0.htm",
			raw:        "/auntruth/htm/L0/file.htm",
			wantPath:   "/auntruth/htm/L0/file.htm",
			checkable:  true,
		},
		{
			name:       "case preserved",
			sourceFile: "/htm/L4/page.htm",
			raw:        "INDEX.HTM",
			wantPath:   "/htm/L4/INDEX.HTM",
			checkable:  true,
		},
		{
			name:       "fragment stripped",
			sourceFile: "/htm/L1/XF0.htm",
			raw:        "XF12.htm#birth",
			wantPath:   "/htm/L1/XF12.htm",
			checkable:  true,
		},
		{
			name:       "query stripped",
			sourceFile: "/htm/L1/XF0.htm",
			raw:        "XF12.htm?from=index",
			wantPath:   "/htm/L1/XF12.htm",
			checkable:  true,
		},
		{
			name:       "bare fragment points at source",
			sourceFile: "/htm/L1/XF0.htm",
			raw:        "#top",
			wantPath:   "/htm/L1/XF0.htm",
			checkable:  true,
		},
		{
			name:       "duplicated segment preserved for the classifier",
			sourceFile: "/index.htm",
			raw:        "/auntruth/htm/htm/L0/file.htm",
			wantPath:   "/auntruth/htm/htm/L0/file.htm",
			checkable:  true,
		},
		{
			name:       "http URL is external",
			sourceFile: "/htm/L1/XF0.htm",
			raw:        "http://Example.com/page.htm#x",
			wantURL:    "http://example.com/page.htm",
			external:   true,
			checkable:  true,
		},
		{
			name:       "https URL is external",
			sourceFile: "/htm/L1/XF0.htm",
			raw:        "https://example.com/gen/tree.htm",
			wantURL:    "https://example.com/gen/tree.htm",
			external:   true,
			checkable:  true,
		},
		{
			name:       "mailto excluded from checking",
			sourceFile: "/htm/L1/XF0.htm",
			raw:        "mailto:ruth@example.com",
			wantURL:    "mailto:ruth@example.com",
			external:   true,
			checkable:  false,
		},
		{
			name:       "javascript excluded from checking",
			sourceFile: "/htm/L1/XF0.htm",
			raw:        "javascript:history.back()",
			wantURL:    "javascript:history.back()",
			external:   true,
			checkable:  false,
		},
		{
			name:       "protocol-relative becomes external http",
			sourceFile: "/htm/L1/XF0.htm",
			raw:        "//mirror.example.com/htm/L1/XF0.htm",
			wantURL:    "http://mirror.example.com/htm/L1/XF0.htm",
			external:   true,
			checkable:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := r.Resolve(tt.sourceFile, tt.raw)
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}

			if target.IsExternal != tt.external {
				t.Errorf("IsExternal = %v, want %v", target.IsExternal, tt.external)
			}
			if target.Checkable != tt.checkable {
				t.Errorf("Checkable = %v, want %v", target.Checkable, tt.checkable)
			}
			if tt.external {
				if target.URL != tt.wantURL {
					t.Errorf("URL = %q, want %q", target.URL, tt.wantURL)
				}
			} else if target.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", target.Path, tt.wantPath)
			}
		})
	}
}

func TestResolveMalformed(t *testing.T) {
	r := NewResolver()

	for _, raw := range []string{"", "   ", "\t\n"} {
		t.Run("raw="+raw, func(t *testing.T) {
			_, err := r.Resolve("/htm/L1/XF0.htm", raw)
			if !errors.Is(err, ErrMalformedReference) {
				t.Errorf("expected ErrMalformedReference, got %v", err)
			}
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	r := NewResolver()

	first, err1 := r.Resolve("/htm/L1/XF0.htm", "../L3/XF12.htm?x=1#frag")
	second, err2 := r.Resolve("/htm/L1/XF0.htm", "../L3/XF12.htm?x=1#frag")
	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v %v", err1, err2)
	}
	if first != second {
		t.Errorf("resolution not deterministic: %+v vs %+v", first, second)
	}
	if first.Fragment != "frag" || first.Query != "x=1" {
		t.Errorf("fragment/query not retained for display: %+v", first)
	}
}
