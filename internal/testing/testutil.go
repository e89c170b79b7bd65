// Package testing provides test utilities for the linkcheck scanner.
package testing

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// TestServer provides a configurable test HTTP server for live-mode tests.
type TestServer struct {
	Server    *httptest.Server
	mu        sync.RWMutex
	pages     map[string]*TestPage
	delays    map[string]time.Duration
	errors    map[string]int // URL -> status code
	hits      map[string]int
	redirects map[string]string
	noHead    map[string]bool // paths that reject HEAD with 405
}

// TestPage represents a test page.
type TestPage struct {
	Content     string
	ContentType string
	StatusCode  int
}

// NewTestServer creates a new test server.
func NewTestServer() *TestServer {
	ts := &TestServer{
		pages:     make(map[string]*TestPage),
		delays:    make(map[string]time.Duration),
		errors:    make(map[string]int),
		hits:      make(map[string]int),
		redirects: make(map[string]string),
		noHead:    make(map[string]bool),
	}

	ts.Server = httptest.NewServer(http.HandlerFunc(ts.handler))
	return ts
}

// handler handles test HTTP requests.
func (ts *TestServer) handler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	ts.mu.Lock()
	ts.hits[path]++
	ts.mu.Unlock()

	ts.mu.RLock()
	delay := ts.delays[path]
	errorCode := ts.errors[path]
	redirect := ts.redirects[path]
	page := ts.pages[path]
	noHead := ts.noHead[path]
	ts.mu.RUnlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	if noHead && r.Method == http.MethodHead {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	if redirect != "" {
		http.Redirect(w, r, redirect, http.StatusMovedPermanently)
		return
	}

	if errorCode > 0 {
		w.WriteHeader(errorCode)
		return
	}

	if page != nil {
		if page.ContentType != "" {
			w.Header().Set("Content-Type", page.ContentType)
		} else {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
		}
		if page.StatusCode > 0 {
			w.WriteHeader(page.StatusCode)
		}
		io.WriteString(w, page.Content)
		return
	}

	w.WriteHeader(http.StatusNotFound)
}

// AddPage adds a test page.
func (ts *TestServer) AddPage(path, content string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.pages[path] = &TestPage{
		Content:     content,
		ContentType: "text/html; charset=utf-8",
		StatusCode:  200,
	}
}

// SetDelay sets response delay for a path.
func (ts *TestServer) SetDelay(path string, delay time.Duration) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.delays[path] = delay
}

// SetError sets error status for a path.
func (ts *TestServer) SetError(path string, statusCode int) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.errors[path] = statusCode
}

// SetHeadDisallowed makes a path reject HEAD with 405, the way some legacy
// server setups do.
func (ts *TestServer) SetHeadDisallowed(path string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.noHead[path] = true
}

// SetRedirect sets redirect for a path.
func (ts *TestServer) SetRedirect(from, to string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.redirects[from] = to
}

// GetHits returns hit count for a path.
func (ts *TestServer) GetHits(path string) int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.hits[path]
}

// URL returns the server URL.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}

// Close closes the test server.
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// Reset clears all state.
func (ts *TestServer) Reset() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.pages = make(map[string]*TestPage)
	ts.delays = make(map[string]time.Duration)
	ts.errors = make(map[string]int)
	ts.hits = make(map[string]int)
	ts.redirects = make(map[string]string)
	ts.noHead = make(map[string]bool)
}

// SiteTree builds a temp-dir site tree for namespace-mode tests. Paths are
// root-anchored slash paths, matching how the scanner addresses files.
type SiteTree struct {
	Root string
	t    *testing.T
}

// NewSiteTree creates an empty site tree under t.TempDir().
func NewSiteTree(t *testing.T) *SiteTree {
	t.Helper()
	return &SiteTree{Root: t.TempDir(), t: t}
}

// Add writes a file at the given root-anchored path, creating directories
// as needed.
func (st *SiteTree) Add(path, content string) *SiteTree {
	st.t.Helper()

	full := filepath.Join(st.Root, filepath.FromSlash(strings.TrimPrefix(path, "/")))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		st.t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		st.t.Fatalf("write %s: %v", path, err)
	}
	return st
}

// AddPage writes a minimal legacy-flavored HTML page whose body is the given
// markup fragment.
func (st *SiteTree) AddPage(path, body string) *SiteTree {
	return st.Add(path, Page("Test Page", body))
}

// Page wraps a body fragment in the kind of markup the corpus actually has:
// uppercase tags, unquoted-friendly structure, no closing body tag.
func Page(title, body string) string {
	return fmt.Sprintf(`<HTML>
<HEAD><TITLE>%s</TITLE></HEAD>
<BODY>
%s
</HTML>`, title, body)
}

// RepeatedLink returns n copies of the same anchor, the shape of the
// template-generated repetition legacy pages are full of.
func RepeatedLink(href string, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		fmt.Fprintf(&sb, "<A HREF=\"%s\">entry %d</A>\n", href, i)
	}
	return sb.String()
}
