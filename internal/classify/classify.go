// Package classify decides whether a resolved target is valid and, when it
// is not, which root cause broke it.
package classify

import (
	"path"
	"strings"
	"time"

	"github.com/linkcheck-scanner/linkcheck/internal/namespace"
)

// Status is the overall outcome of checking one target.
type Status string

const (
	StatusOK          Status = "ok"
	StatusNotFound    Status = "not_found"
	StatusTimeout     Status = "timeout"
	StatusServerError Status = "server_error"
	StatusMalformed   Status = "malformed_reference"
)

// Reason is the root-cause taxonomy tag for a broken reference. Downstream
// repair scripts branch on these values, so they are part of the report's
// contract.
type Reason string

const (
	ReasonMalformedReference Reason = "malformed_reference"
	ReasonDuplicatedSegment  Reason = "duplicated_segment"
	ReasonCaseMismatch       Reason = "case_mismatch"
	ReasonMissingPrefix      Reason = "missing_prefix"
	ReasonWrongDirectory     Reason = "wrong_directory"
	ReasonTrulyMissing       Reason = "truly_missing"
	ReasonTimeout            Reason = "timeout"
	ReasonServerError        Reason = "server_error"
)

// Result is the outcome of checking one resolved target.
type Result struct {
	Status Status
	Reason Reason // set only when Status != StatusOK

	// Suggestion is the existing path a heuristic located, when it found one.
	// Repair tooling consumes this directly.
	Suggestion string

	// HTTPStatus carries the response code in live mode, 0 otherwise.
	HTTPStatus int

	CheckedAt time.Time
}

// heuristic is one (reason, predicate) pair. The predicate reports whether
// the reason explains the missing path and, when it can, names the file the
// author probably meant.
type heuristic struct {
	reason Reason
	match  func(p string) (suggestion string, ok bool)
}

// Classifier checks targets against a namespace snapshot.
type Classifier struct {
	snapshot   *namespace.Snapshot
	heuristics []heuristic
}

// NewClassifier creates a classifier over the given snapshot. knownPrefixes
// are the root prefixes the missing-prefix heuristic tries, in order.
func NewClassifier(snapshot *namespace.Snapshot, knownPrefixes []string) *Classifier {
	c := &Classifier{snapshot: snapshot}

	// Fixed precedence. Cheaper, more specific heuristics run before the
	// namespace-wide basename search, and evaluation stops at the first
	// match so every target gets exactly one reason. Do not reorder.
	c.heuristics = []heuristic{
		{ReasonDuplicatedSegment, c.matchDuplicatedSegment},
		{ReasonCaseMismatch, c.matchCaseMismatch},
		{ReasonMissingPrefix, c.matchMissingPrefix(knownPrefixes)},
		{ReasonWrongDirectory, c.matchWrongDirectory},
	}
	return c
}

// ClassifyPath checks a root-anchored in-namespace path.
func (c *Classifier) ClassifyPath(p string) Result {
	result := Result{CheckedAt: time.Now()}

	if c.snapshot.Contains(p) {
		result.Status = StatusOK
		return result
	}

	result.Status = StatusNotFound
	for _, h := range c.heuristics {
		if suggestion, ok := h.match(p); ok {
			result.Reason = h.reason
			result.Suggestion = suggestion
			return result
		}
	}
	result.Reason = ReasonTrulyMissing
	return result
}

// Malformed returns the result recorded for references the resolver rejected.
func Malformed() Result {
	return Result{
		Status:    StatusMalformed,
		Reason:    ReasonMalformedReference,
		CheckedAt: time.Now(),
	}
}

// matchDuplicatedSegment detects an immediately repeated path segment left by
// a concatenation defect (".../htm/htm/..."). It only claims the reason when
// collapsing the repeat yields a path that actually exists; otherwise the
// later heuristics get their turn.
func (c *Classifier) matchDuplicatedSegment(p string) (string, bool) {
	segments := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i := 0; i+1 < len(segments); i++ {
		if segments[i] == "" || segments[i] != segments[i+1] {
			continue
		}
		collapsed := make([]string, 0, len(segments)-1)
		collapsed = append(collapsed, segments[:i]...)
		collapsed = append(collapsed, segments[i+1:]...)
		candidate := "/" + strings.Join(collapsed, "/")
		if c.snapshot.Contains(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// matchCaseMismatch finds a file that differs from p only in case.
func (c *Classifier) matchCaseMismatch(p string) (string, bool) {
	variants := c.snapshot.CaseVariants(p)
	if len(variants) == 0 {
		return "", false
	}
	return variants[0], true
}

// matchMissingPrefix re-resolves p under each known root prefix.
func (c *Classifier) matchMissingPrefix(prefixes []string) func(string) (string, bool) {
	return func(p string) (string, bool) {
		for _, prefix := range prefixes {
			if prefix == "" || prefix == "/" {
				continue
			}
			if strings.HasPrefix(p, prefix+"/") {
				continue // already carries this prefix
			}
			candidate := path.Join(prefix, p)
			if c.snapshot.Contains(candidate) {
				return candidate, true
			}
		}
		return "", false
	}
}

// matchWrongDirectory finds the same filename under a different parent.
// Basenames compare case-insensitively; the precedence above already handled
// pure case mismatches, so anything reaching here lives elsewhere.
func (c *Classifier) matchWrongDirectory(p string) (string, bool) {
	matches := c.snapshot.BasenameMatches(path.Base(p))
	for _, m := range matches {
		if m != p {
			return m, true
		}
	}
	return "", false
}
