// Package config defines scan configuration options.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// CheckMode selects how resolved targets are validated.
type CheckMode string

const (
	ModeNamespace CheckMode = "namespace" // Existence check against the known file tree
	ModeLive      CheckMode = "live"      // HTTP check against a serving origin
)

// ScanConfig holds all configuration for a scan run.
type ScanConfig struct {
	// === Basic Settings ===

	// Root directory of the site's document tree
	RootDir string `json:"root_dir"`

	// Declared site root prefix for root-relative references (e.g. "/auntruth")
	SiteRoot string `json:"site_root"`

	// Top-level site variant to scan when parallel copies exist (e.g. "htm");
	// empty scans the whole tree
	SiteSelector string `json:"site_selector"`

	// Checking mode: namespace or live
	Mode CheckMode `json:"mode"`

	// === Live Mode ===

	// Base URL of the serving origin (live mode only)
	BaseURL string `json:"base_url"`

	// Per-request timeout
	Timeout time.Duration `json:"timeout"`

	// Number of concurrent live checks
	Concurrency int `json:"concurrency"`

	// Maximum requests per second against the origin (0 = unlimited)
	RequestsPerSecond float64 `json:"requests_per_second"`

	// User-Agent string
	UserAgent string `json:"user_agent"`

	// === Classification ===

	// Root prefixes the missing-prefix heuristic tries, most specific first.
	// Defaults to the declared site root.
	KnownPrefixes []string `json:"known_prefixes"`

	// === Document Selection ===

	// File extensions recognized as markup documents
	MarkupExtensions []string `json:"markup_extensions"`

	// === Output ===

	// Directory report files are written to
	OutputDir string `json:"output_dir"`

	// Path of the per-run SQLite database (empty = in OutputDir)
	DatabasePath string `json:"database_path"`

	// Log file for rotated scan logs (empty = console only)
	LogFile string `json:"log_file"`

	// How many processed files between progress log lines
	ProgressEvery int `json:"progress_every"`
}

// DefaultConfig returns a ScanConfig with sensible defaults.
func DefaultConfig() *ScanConfig {
	return &ScanConfig{
		// Basic
		SiteRoot: "/",
		Mode:     ModeNamespace,

		// Live mode
		Timeout:           3 * time.Second,
		Concurrency:       10,
		RequestsPerSecond: 20,
		UserAgent:         "LinkcheckScanner/1.0 (+https://github.com/linkcheck-scanner)",

		// Document selection
		MarkupExtensions: []string{".htm", ".html", ".shtml"},

		// Output
		OutputDir:     "reports",
		ProgressEvery: 500,
	}
}

// Validate checks the configuration, clamping values that are out of range.
// The root directory is the only thing it will refuse outright.
func (c *ScanConfig) Validate() error {
	if c.RootDir == "" {
		return fmt.Errorf("root directory is required")
	}
	if c.Mode != ModeNamespace && c.Mode != ModeLive {
		return fmt.Errorf("unknown check mode: %q", c.Mode)
	}
	if c.Mode == ModeLive && c.BaseURL == "" {
		return fmt.Errorf("live mode requires a base URL")
	}

	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.Timeout < time.Second {
		c.Timeout = time.Second
	}
	if c.RequestsPerSecond < 0 {
		c.RequestsPerSecond = 0
	}
	if c.ProgressEvery < 1 {
		c.ProgressEvery = 500
	}

	if c.SiteRoot == "" {
		c.SiteRoot = "/"
	}
	if !strings.HasPrefix(c.SiteRoot, "/") {
		c.SiteRoot = "/" + c.SiteRoot
	}
	if len(c.KnownPrefixes) == 0 && c.SiteRoot != "/" {
		c.KnownPrefixes = []string{c.SiteRoot}
	}
	if len(c.MarkupExtensions) == 0 {
		c.MarkupExtensions = []string{".htm", ".html", ".shtml"}
	}
	for i, ext := range c.MarkupExtensions {
		c.MarkupExtensions[i] = strings.ToLower(ext)
	}
	return nil
}

// IsMarkupExtension reports whether ext names a document the scan parses.
func (c *ScanConfig) IsMarkupExtension(ext string) bool {
	ext = strings.ToLower(ext)
	for _, e := range c.MarkupExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Save saves the configuration to a JSON file.
func (c *ScanConfig) Save(filePath string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Load loads configuration from a JSON file.
func Load(filePath string) (*ScanConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// Clone creates a deep copy of the configuration.
func (c *ScanConfig) Clone() *ScanConfig {
	clone := *c

	clone.KnownPrefixes = make([]string, len(c.KnownPrefixes))
	copy(clone.KnownPrefixes, c.KnownPrefixes)

	clone.MarkupExtensions = make([]string, len(c.MarkupExtensions))
	copy(clone.MarkupExtensions, c.MarkupExtensions)

	return &clone
}

// Presets for common scan scenarios
var (
	// PresetNamespace checks everything against the file tree, no network.
	PresetNamespace = &ScanConfig{
		Mode:             ModeNamespace,
		MarkupExtensions: []string{".htm", ".html", ".shtml"},
		OutputDir:        "reports",
		ProgressEvery:    500,
	}

	// PresetLiveLocal checks against a local server; fast but still bounded.
	PresetLiveLocal = &ScanConfig{
		Mode:              ModeLive,
		BaseURL:           "http://localhost:8000",
		Timeout:           3 * time.Second,
		Concurrency:       20,
		RequestsPerSecond: 50,
		MarkupExtensions:  []string{".htm", ".html", ".shtml"},
		OutputDir:         "reports",
		ProgressEvery:     500,
	}

	// PresetLivePolite is for a deployed origin someone else pays for.
	PresetLivePolite = &ScanConfig{
		Mode:              ModeLive,
		Timeout:           10 * time.Second,
		Concurrency:       4,
		RequestsPerSecond: 2,
		MarkupExtensions:  []string{".htm", ".html", ".shtml"},
		OutputDir:         "reports",
		ProgressEvery:     500,
	}
)
