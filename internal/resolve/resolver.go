// Package resolve turns raw reference text into normalized targets.
package resolve

import (
	"errors"
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ErrMalformedReference marks a reference that cannot be resolved at all
// (empty, whitespace-only, or unparseable). These are findings, not faults:
// a dangling href="" must show up in the report.
var ErrMalformedReference = errors.New("malformed reference")

// Target is the normalized address a reference points to.
//
// For in-namespace references Path is root-anchored against the scanned tree
// with the original case preserved; whether the underlying filesystem or
// server folds case is the classifier's concern, not ours.
type Target struct {
	// Root-anchored path for in-namespace references
	Path string

	// Full URL for external references
	URL string

	// Scheme of the reference, when one was written
	Scheme string

	// Whether the target leaves the site's own namespace
	IsExternal bool

	// False for schemes we deliberately never check (mailto:, javascript:, ...)
	Checkable bool

	// Fragment and query stripped before resolution, kept for display
	Fragment string
	Query    string
}

// Resolver resolves raw references found in documents.
type Resolver struct{}

// NewResolver creates a resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Resolve computes the target of a raw reference found in sourceFile.
// sourceFile must be a root-anchored slash path (e.g. "/htm/L1/XF0.htm").
// Resolution is a pure function of (sourceFile, raw); it never consults the
// filesystem or depends on scan order.
func (r *Resolver) Resolve(sourceFile, raw string) (Target, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Target{}, fmt.Errorf("%w: empty reference in %s", ErrMalformedReference, sourceFile)
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %q: %v", ErrMalformedReference, raw, err)
	}

	target := Target{
		Scheme:   u.Scheme,
		Fragment: u.Fragment,
		Query:    u.RawQuery,
	}

	switch {
	case u.Scheme == "http" || u.Scheme == "https":
		target.IsExternal = true
		target.Checkable = true
		target.URL = strippedURL(u)
		return target, nil

	case u.Scheme != "":
		// mailto:, javascript:, ftp: and friends are outside the site's
		// namespace and excluded from checking by design.
		target.IsExternal = true
		target.Checkable = false
		target.URL = trimmed
		return target, nil

	case u.Host != "":
		// Protocol-relative fragment left over from an old template.
		target.IsExternal = true
		target.Checkable = true
		target.Scheme = "http"
		u.Scheme = "http"
		target.URL = strippedURL(u)
		return target, nil
	}

	p := u.Path
	if p == "" {
		// Pure fragment or query reference points back at the source document.
		target.Path = sourceFile
		target.Checkable = true
		return target, nil
	}

	if strings.HasPrefix(p, "/") {
		// Root-relative: already anchored, depth of the source file is
		// irrelevant.
		target.Path = path.Clean(p)
	} else {
		target.Path = path.Join(path.Dir(sourceFile), p)
	}
	target.Checkable = true
	return target, nil
}

// strippedURL renders an external URL with fragment and query removed.
func strippedURL(u *url.URL) string {
	c := *u
	c.Fragment = ""
	c.RawQuery = ""
	c.Host = strings.ToLower(c.Host)
	c.Scheme = strings.ToLower(c.Scheme)
	return c.String()
}

// Address returns the display form of a target: the path for in-namespace
// references, the full URL for external ones. This is the aggregation key
// the report builder dedups on.
func (t Target) Address() string {
	if t.IsExternal {
		return t.URL
	}
	return t.Path
}
