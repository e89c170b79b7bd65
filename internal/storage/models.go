// Package storage provides data persistence for scan results.
package storage

import "time"

// Run represents one scan run. Reports are point-in-time: every run gets its
// own row and its own findings, and prior runs are never touched.
type Run struct {
	ID           int64      `json:"id"`
	Mode         string     `json:"mode"` // namespace, live
	RootDir      string     `json:"root_dir"`
	SiteSelector string     `json:"site_selector,omitempty"`
	StartedAt    time.Time  `json:"started_at"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	Status       string     `json:"status"`

	FilesScanned      int `json:"files_scanned"`
	ReferencesChecked int `json:"references_checked"`
	BrokenFound       int `json:"broken_found"`
	FileErrors        int `json:"file_errors"`

	// Config snapshot for reproducibility
	ConfigJSON string `json:"config_json,omitempty"`
}

// Finding is one aggregated broken reference: a distinct
// (resolved address, source file) pair with its occurrence count.
type Finding struct {
	ID         int64  `json:"id"`
	RunID      int64  `json:"run_id"`
	Address    string `json:"address"` // resolved broken path or URL
	SourceFile string `json:"source_file"`

	// The literal attribute text that produced the reference. Two different
	// raw texts can resolve to the same broken address; both must remain
	// visible for triage, so this holds every distinct form.
	RawText string `json:"raw_text"`

	Kind        string    `json:"kind"`   // hyperlink, image, stylesheet, script
	Status      string    `json:"status"` // not_found, timeout, server_error, malformed_reference
	Reason      string    `json:"reason"`
	Suggestion  string    `json:"suggestion,omitempty"`
	HTTPStatus  int       `json:"http_status,omitempty"`
	Occurrences int       `json:"occurrences"`
	CheckedAt   time.Time `json:"checked_at"`
}

// FileError records a document the scan could not read. These are data, not
// failures: the scan continues past them.
type FileError struct {
	ID      int64  `json:"id"`
	RunID   int64  `json:"run_id"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ReasonCount is one row of the per-reason rollup.
type ReasonCount struct {
	Reason      string `json:"reason"`
	Findings    int    `json:"findings"`
	Occurrences int    `json:"occurrences"`
}

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)
