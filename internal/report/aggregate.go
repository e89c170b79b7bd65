package report

import (
	"sort"
	"strings"
	"time"

	"github.com/linkcheck-scanner/linkcheck/internal/storage"
)

// Occurrence is one broken reference as it comes off a worker, before
// deduplication.
type Occurrence struct {
	Address    string
	SourceFile string
	RawText    string
	Kind       string
	Status     string
	Reason     string
	Suggestion string
	HTTPStatus int
	CheckedAt  time.Time
}

type findingKey struct {
	address    string
	sourceFile string
}

// Aggregator collapses occurrences into one finding per
// (address, source file) pair. It is the single writer of the aggregated
// state: workers hand results to one collector goroutine, which calls Add.
// Arrival order does not matter; Findings applies the explicit sort.
type Aggregator struct {
	byKey map[findingKey]*storage.Finding
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{byKey: make(map[findingKey]*storage.Finding)}
}

// Add records one occurrence. Repeats of the same broken address within the
// same file increment the count; a raw text not seen before for that pair is
// appended so every distinct authored form stays visible.
func (a *Aggregator) Add(occ Occurrence) {
	key := findingKey{occ.Address, occ.SourceFile}

	if existing, ok := a.byKey[key]; ok {
		existing.Occurrences++
		if occ.RawText != "" && !containsForm(existing.RawText, occ.RawText) {
			existing.RawText += " | " + occ.RawText
		}
		return
	}

	a.byKey[key] = &storage.Finding{
		Address:     occ.Address,
		SourceFile:  occ.SourceFile,
		RawText:     occ.RawText,
		Kind:        occ.Kind,
		Status:      occ.Status,
		Reason:      occ.Reason,
		Suggestion:  occ.Suggestion,
		HTTPStatus:  occ.HTTPStatus,
		Occurrences: 1,
		CheckedAt:   occ.CheckedAt,
	}
}

// Len returns the number of distinct findings so far.
func (a *Aggregator) Len() int {
	return len(a.byKey)
}

// Findings returns the aggregated findings stamped with runID, sorted by
// occurrence count descending, then address, then source file. The sort is
// what makes report content reproducible across runs regardless of worker
// completion order.
func (a *Aggregator) Findings(runID int64) []*storage.Finding {
	findings := make([]*storage.Finding, 0, len(a.byKey))
	for _, f := range a.byKey {
		f.RunID = runID
		findings = append(findings, f)
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].Occurrences != findings[j].Occurrences {
			return findings[i].Occurrences > findings[j].Occurrences
		}
		if findings[i].Address != findings[j].Address {
			return findings[i].Address < findings[j].Address
		}
		return findings[i].SourceFile < findings[j].SourceFile
	})

	return findings
}

// containsForm reports whether raw already appears in the " | " separated
// list of recorded raw texts.
func containsForm(recorded, raw string) bool {
	for _, form := range strings.Split(recorded, " | ") {
		if form == raw {
			return true
		}
	}
	return false
}
