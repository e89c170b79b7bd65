package report

import (
	"fmt"
	"testing"
)

func TestAggregatorDeduplicates(t *testing.T) {
	agg := NewAggregator()

	for i := 0; i < 47; i++ {
		agg.Add(Occurrence{
			Address:    "/htm/L1/XF0.htm",
			SourceFile: "/htm/L1/index.htm",
			RawText:    "XF0.htm",
			Kind:       "hyperlink",
			Status:     "not_found",
			Reason:     "truly_missing",
		})
	}

	if agg.Len() != 1 {
		t.Fatalf("Len = %d, want 1", agg.Len())
	}

	findings := agg.Findings(7)
	if findings[0].Occurrences != 47 {
		t.Errorf("Occurrences = %d, want 47", findings[0].Occurrences)
	}
	if findings[0].RunID != 7 {
		t.Errorf("RunID = %d, want 7", findings[0].RunID)
	}
	if findings[0].RawText != "XF0.htm" {
		t.Errorf("RawText = %q, repeated identical form must not accumulate", findings[0].RawText)
	}
}

func TestAggregatorKeysOnAddressAndSource(t *testing.T) {
	agg := NewAggregator()

	// Same broken address from two different files is two findings.
	agg.Add(Occurrence{Address: "/htm/gone.htm", SourceFile: "/htm/a.htm"})
	agg.Add(Occurrence{Address: "/htm/gone.htm", SourceFile: "/htm/b.htm"})
	// Two addresses from one file is also two findings.
	agg.Add(Occurrence{Address: "/htm/other.htm", SourceFile: "/htm/a.htm"})

	if agg.Len() != 3 {
		t.Errorf("Len = %d, want 3", agg.Len())
	}
}

func TestAggregatorMergesDistinctRawForms(t *testing.T) {
	agg := NewAggregator()

	// Relative and root-anchored spellings of the same target, same file.
	agg.Add(Occurrence{Address: "/htm/L1/XF0.htm", SourceFile: "/htm/L1/a.htm", RawText: "XF0.htm"})
	agg.Add(Occurrence{Address: "/htm/L1/XF0.htm", SourceFile: "/htm/L1/a.htm", RawText: "/htm/L1/XF0.htm"})
	agg.Add(Occurrence{Address: "/htm/L1/XF0.htm", SourceFile: "/htm/L1/a.htm", RawText: "XF0.htm"})

	findings := agg.Findings(1)
	if findings[0].Occurrences != 3 {
		t.Errorf("Occurrences = %d, want 3", findings[0].Occurrences)
	}
	want := "XF0.htm | /htm/L1/XF0.htm"
	if findings[0].RawText != want {
		t.Errorf("RawText = %q, want %q", findings[0].RawText, want)
	}
}

func TestAggregatorSortOrder(t *testing.T) {
	agg := NewAggregator()

	agg.Add(Occurrence{Address: "/z.htm", SourceFile: "/a.htm"})
	for i := 0; i < 3; i++ {
		agg.Add(Occurrence{Address: "/m.htm", SourceFile: "/a.htm"})
	}
	agg.Add(Occurrence{Address: "/a.htm", SourceFile: "/b.htm"})
	agg.Add(Occurrence{Address: "/a.htm", SourceFile: "/a.htm"})

	findings := agg.Findings(1)

	var got []string
	for _, f := range findings {
		got = append(got, fmt.Sprintf("%s<-%s", f.Address, f.SourceFile))
	}

	want := []string{
		"/m.htm<-/a.htm", // highest count first
		"/a.htm<-/a.htm", // then address asc
		"/a.htm<-/b.htm", // then source file asc
		"/z.htm<-/a.htm",
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch at %d: got %v, want %v", i, got, want)
		}
	}
}
