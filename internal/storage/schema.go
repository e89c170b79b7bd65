package storage

// Schema contains SQL statements to create database tables.
const Schema = `
-- Runs table: one row per scan run
CREATE TABLE IF NOT EXISTS runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    mode TEXT NOT NULL,
    root_dir TEXT NOT NULL,
    site_selector TEXT,
    started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    finished_at DATETIME,
    status TEXT DEFAULT 'running',
    files_scanned INTEGER DEFAULT 0,
    references_checked INTEGER DEFAULT 0,
    broken_found INTEGER DEFAULT 0,
    file_errors INTEGER DEFAULT 0,
    config_json TEXT
);

-- Findings table: aggregated broken references, one row per
-- (run, resolved address, source file)
CREATE TABLE IF NOT EXISTS findings (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL REFERENCES runs(id),
    address TEXT NOT NULL,
    source_file TEXT NOT NULL,
    raw_text TEXT,
    kind TEXT,
    status TEXT NOT NULL,
    reason TEXT NOT NULL,
    suggestion TEXT,
    http_status INTEGER DEFAULT 0,
    occurrences INTEGER DEFAULT 1,
    checked_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(run_id, address, source_file)
);

CREATE INDEX IF NOT EXISTS idx_findings_run_id ON findings(run_id);
CREATE INDEX IF NOT EXISTS idx_findings_reason ON findings(reason);
CREATE INDEX IF NOT EXISTS idx_findings_source_file ON findings(source_file);

-- File errors table: documents the scan could not read
CREATE TABLE IF NOT EXISTS file_errors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id INTEGER NOT NULL REFERENCES runs(id),
    path TEXT NOT NULL,
    message TEXT
);

CREATE INDEX IF NOT EXISTS idx_file_errors_run_id ON file_errors(run_id);
`

// ViewsSchema contains reporting views over the findings.
const ViewsSchema = `
-- Per-reason rollup for a run
CREATE VIEW IF NOT EXISTS v_reason_summary AS
SELECT
    run_id,
    reason,
    COUNT(*) AS findings,
    SUM(occurrences) AS occurrences
FROM findings
GROUP BY run_id, reason;

-- Highest-impact broken addresses across all source files
CREATE VIEW IF NOT EXISTS v_top_broken AS
SELECT
    run_id,
    address,
    reason,
    COUNT(DISTINCT source_file) AS source_files,
    SUM(occurrences) AS occurrences
FROM findings
GROUP BY run_id, address, reason;
`
