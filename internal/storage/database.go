package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Database handles all database operations.
type Database struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewDatabase creates a new database connection.
func NewDatabase(path string) (*Database, error) {
	// SQLite connection with optimizations
	dsn := fmt.Sprintf("%s?_journal=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	return &Database{db: db}, nil
}

// Initialize creates tables and views.
func (d *Database) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := d.db.Exec(ViewsSchema); err != nil {
		return fmt.Errorf("failed to create views: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// --- Run Operations ---

// InsertRun records the start of a scan run and returns its ID.
func (d *Database) InsertRun(run *Run) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	result, err := d.db.Exec(`
		INSERT INTO runs (mode, root_dir, site_selector, started_at, status, config_json)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.Mode, run.RootDir, run.SiteSelector, run.StartedAt, RunStatusRunning, run.ConfigJSON)

	if err != nil {
		return 0, err
	}

	return result.LastInsertId()
}

// FinishRun records a run's final counters and status.
func (d *Database) FinishRun(runID int64, status string, filesScanned, referencesChecked, brokenFound, fileErrors int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.Exec(`
		UPDATE runs
		SET finished_at = CURRENT_TIMESTAMP, status = ?,
		    files_scanned = ?, references_checked = ?, broken_found = ?, file_errors = ?
		WHERE id = ?
	`, status, filesScanned, referencesChecked, brokenFound, fileErrors, runID)
	return err
}

// GetRun retrieves one run.
func (d *Database) GetRun(runID int64) (*Run, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var run Run
	var finished sql.NullTime
	var selector, configJSON sql.NullString
	err := d.db.QueryRow(`
		SELECT id, mode, root_dir, site_selector, started_at, finished_at, status,
		       files_scanned, references_checked, broken_found, file_errors, config_json
		FROM runs WHERE id = ?
	`, runID).Scan(
		&run.ID, &run.Mode, &run.RootDir, &selector, &run.StartedAt, &finished, &run.Status,
		&run.FilesScanned, &run.ReferencesChecked, &run.BrokenFound, &run.FileErrors, &configJSON,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.SiteSelector = selector.String
	run.ConfigJSON = configJSON.String
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return &run, nil
}

// --- Finding Operations ---

// InsertFindings writes a batch of findings in one transaction.
func (d *Database) InsertFindings(findings []*Finding) error {
	if len(findings) == 0 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO findings (run_id, address, source_file, raw_text, kind, status, reason, suggestion, http_status, occurrences, checked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, f := range findings {
		if _, err := stmt.Exec(
			f.RunID, f.Address, f.SourceFile, f.RawText, f.Kind,
			f.Status, f.Reason, f.Suggestion, f.HTTPStatus, f.Occurrences, f.CheckedAt,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert finding: %w", err)
		}
	}

	return tx.Commit()
}

// GetFindings retrieves a run's findings in report order: occurrence count
// descending, then address, then source file.
func (d *Database) GetFindings(runID int64) ([]*Finding, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(`
		SELECT id, run_id, address, source_file, raw_text, kind, status, reason, suggestion, http_status, occurrences, checked_at
		FROM findings
		WHERE run_id = ?
		ORDER BY occurrences DESC, address ASC, source_file ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var findings []*Finding
	for rows.Next() {
		var f Finding
		var rawText, kind, suggestion sql.NullString
		if err := rows.Scan(
			&f.ID, &f.RunID, &f.Address, &f.SourceFile, &rawText, &kind,
			&f.Status, &f.Reason, &suggestion, &f.HTTPStatus, &f.Occurrences, &f.CheckedAt,
		); err != nil {
			return nil, err
		}
		f.RawText = rawText.String
		f.Kind = kind.String
		f.Suggestion = suggestion.String
		findings = append(findings, &f)
	}
	return findings, rows.Err()
}

// GetReasonSummary retrieves the per-reason rollup for a run.
func (d *Database) GetReasonSummary(runID int64) ([]*ReasonCount, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(`
		SELECT reason, findings, occurrences
		FROM v_reason_summary
		WHERE run_id = ?
		ORDER BY occurrences DESC, reason ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []*ReasonCount
	for rows.Next() {
		var rc ReasonCount
		if err := rows.Scan(&rc.Reason, &rc.Findings, &rc.Occurrences); err != nil {
			return nil, err
		}
		counts = append(counts, &rc)
	}
	return counts, rows.Err()
}

// --- File Error Operations ---

// InsertFileError records a document the scan could not read.
func (d *Database) InsertFileError(fe *FileError) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.Exec(`
		INSERT INTO file_errors (run_id, path, message)
		VALUES (?, ?, ?)
	`, fe.RunID, fe.Path, fe.Message)
	return err
}

// GetFileErrors retrieves a run's file errors in path order.
func (d *Database) GetFileErrors(runID int64) ([]*FileError, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	rows, err := d.db.Query(`
		SELECT id, run_id, path, message
		FROM file_errors
		WHERE run_id = ?
		ORDER BY path ASC
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var errs []*FileError
	for rows.Next() {
		var fe FileError
		var msg sql.NullString
		if err := rows.Scan(&fe.ID, &fe.RunID, &fe.Path, &msg); err != nil {
			return nil, err
		}
		fe.Message = msg.String
		errs = append(errs, &fe)
	}
	return errs, rows.Err()
}
