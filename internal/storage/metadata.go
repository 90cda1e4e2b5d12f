package storage

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// HistoryDB keeps a SQLite record of finished jobs for listing. It is
// supplementary: the live registry is never rebuilt from it.
type HistoryDB struct {
	db *sql.DB
}

// HistoryEntry is one finished job as recorded in the database.
type HistoryEntry struct {
	JobID      string    `json:"job_id"`
	Name       string    `json:"name"`
	SourceType string    `json:"source_type"`
	Status     string    `json:"status"`
	OutputPath string    `json:"output_path,omitempty"`
	Duration   float64   `json:"duration_seconds"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewHistoryDB opens (and if needed initializes) the history database.
func NewHistoryDB(dbPath string) (*HistoryDB, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS jobs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		job_id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL,
		source_type TEXT NOT NULL,
		status TEXT NOT NULL,
		output_path TEXT,
		duration REAL,
		created_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
	`

	if _, err := db.Exec(createTableSQL); err != nil {
		return nil, fmt.Errorf("failed to create table: %v", err)
	}

	return &HistoryDB{db: db}, nil
}

// SaveJob records a finished job.
func (h *HistoryDB) SaveJob(jobID, name, sourceType, status, outputPath string, duration float64) error {
	query := `
	INSERT INTO jobs (job_id, name, source_type, status, output_path, duration, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := h.db.Exec(query, jobID, name, sourceType, status, outputPath, duration, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save job history: %v", err)
	}
	return nil
}

// ListJobs returns the most recent finished jobs.
func (h *HistoryDB) ListJobs(limit int) ([]HistoryEntry, error) {
	query := `
	SELECT job_id, name, source_type, status, output_path, duration, created_at
	FROM jobs ORDER BY created_at DESC LIMIT ?
	`

	rows, err := h.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list job history: %v", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var output sql.NullString
		if err := rows.Scan(&e.JobID, &e.Name, &e.SourceType, &e.Status, &output, &e.Duration, &e.CreatedAt); err != nil {
			continue
		}
		e.OutputPath = output.String
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Close closes the database connection.
func (h *HistoryDB) Close() error {
	return h.db.Close()
}
