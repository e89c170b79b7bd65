// Package namespace holds the snapshot of known file paths a scan checks
// references against.
package namespace

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
)

// Snapshot is the set of files under the scanned root, indexed for the
// classifier's heuristics. It is built once before a scan and read-only
// afterwards, so workers share it without locking.
type Snapshot struct {
	root  string
	files []string // root-anchored paths in walk (lexical) order

	exact  map[string]struct{}
	lower  map[string][]string // lowercased path -> exact paths
	byBase map[string][]string // lowercased basename -> exact paths
}

// Build walks rootDir once and indexes every regular file. An inaccessible
// root is the one structural error a scan cannot recover from; unreadable
// entries below it are skipped.
func Build(rootDir string) (*Snapshot, error) {
	s := &Snapshot{
		root:   rootDir,
		exact:  make(map[string]struct{}),
		lower:  make(map[string][]string),
		byBase: make(map[string][]string),
	}

	err := filepath.WalkDir(rootDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == rootDir {
				return err
			}
			return nil // skip unreadable subtrees, the scan goes on
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(rootDir, p)
		if err != nil {
			return nil
		}
		anchored := "/" + filepath.ToSlash(rel)
		s.add(anchored)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk root directory %s: %w", rootDir, err)
	}

	return s, nil
}

func (s *Snapshot) add(anchored string) {
	if _, dup := s.exact[anchored]; dup {
		return
	}
	s.exact[anchored] = struct{}{}
	s.files = append(s.files, anchored)

	low := strings.ToLower(anchored)
	s.lower[low] = append(s.lower[low], anchored)

	base := strings.ToLower(path.Base(anchored))
	s.byBase[base] = append(s.byBase[base], anchored)
}

// Root returns the directory the snapshot was built from.
func (s *Snapshot) Root() string { return s.root }

// Len returns the number of indexed files.
func (s *Snapshot) Len() int { return len(s.files) }

// Contains reports whether the exact-case path exists.
func (s *Snapshot) Contains(p string) bool {
	_, ok := s.exact[p]
	return ok
}

// CaseVariants returns paths that match p ignoring case but differ from it
// exactly. Empty when p itself exists or nothing matches.
func (s *Snapshot) CaseVariants(p string) []string {
	var variants []string
	for _, candidate := range s.lower[strings.ToLower(p)] {
		if candidate != p {
			variants = append(variants, candidate)
		}
	}
	return variants
}

// BasenameMatches returns every path whose final segment equals base,
// ignoring case.
func (s *Snapshot) BasenameMatches(base string) []string {
	return s.byBase[strings.ToLower(base)]
}

// Files returns all indexed paths in walk order. Callers must not mutate
// the returned slice.
func (s *Snapshot) Files() []string { return s.files }

// Documents returns the paths of markup documents, optionally restricted to
// one top-level site variant. Order follows the walk, so enumeration is
// deterministic across runs.
func (s *Snapshot) Documents(isMarkup func(ext string) bool, selector string) []string {
	var docs []string
	prefix := ""
	if selector != "" {
		prefix = "/" + strings.Trim(selector, "/") + "/"
	}

	for _, f := range s.files {
		if prefix != "" && !strings.HasPrefix(f, prefix) {
			continue
		}
		if isMarkup(path.Ext(f)) {
			docs = append(docs, f)
		}
	}
	return docs
}
