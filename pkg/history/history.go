// Package history records backend fetch outcomes in SQLite. Only metadata is
// stored, never response payloads.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ansebmr/surveydash/pkg/models"
)

// Log writes and queries fetch records.
type Log interface {
	// Record stores one fetch outcome.
	Record(ctx context.Context, rec models.FetchRecord) error
	// Recent returns the most recent records, newest first.
	Recent(ctx context.Context, limit int) ([]models.FetchRecord, error)
	// Summary aggregates records per endpoint and source since a given time.
	Summary(ctx context.Context, since time.Time) ([]models.FetchSummary, error)
	// Close releases resources.
	Close() error
}

// SQLiteLog implements Log with a SQLite database.
type SQLiteLog struct {
	db *sql.DB
}

const createTable = `
CREATE TABLE IF NOT EXISTS fetch_records (
	id TEXT PRIMARY KEY,
	endpoint TEXT NOT NULL,
	survey TEXT NOT NULL DEFAULT '',
	source TEXT NOT NULL,
	status_code INTEGER NOT NULL DEFAULT 0,
	records INTEGER NOT NULL DEFAULT 0,
	latency_ms INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_fetch_endpoint_time ON fetch_records(endpoint, created_at);
`

// New creates a SQLiteLog and runs auto-migration.
func New(dbPath string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	if _, err := db.Exec(createTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}

	return &SQLiteLog{db: db}, nil
}

// Record stores one fetch outcome. A missing ID or timestamp is filled in.
func (l *SQLiteLog) Record(ctx context.Context, rec models.FetchRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO fetch_records (id, endpoint, survey, source, status_code, records, latency_ms, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Endpoint, rec.Survey, string(rec.Source), rec.StatusCode, rec.Records, rec.LatencyMs, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record fetch: %w", err)
	}
	return nil
}

// Recent returns the most recent records, newest first.
func (l *SQLiteLog) Recent(ctx context.Context, limit int) ([]models.FetchRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, endpoint, survey, source, status_code, records, latency_ms, created_at
		 FROM fetch_records ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var out []models.FetchRecord
	for rows.Next() {
		var rec models.FetchRecord
		var source string
		if err := rows.Scan(&rec.ID, &rec.Endpoint, &rec.Survey, &source, &rec.StatusCode, &rec.Records, &rec.LatencyMs, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Source = models.Source(source)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Summary aggregates records per endpoint and source since a given time.
func (l *SQLiteLog) Summary(ctx context.Context, since time.Time) ([]models.FetchSummary, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT endpoint, source, COUNT(*), SUM(records), AVG(latency_ms)
		 FROM fetch_records WHERE created_at >= ?
		 GROUP BY endpoint, source ORDER BY endpoint, source`, since)
	if err != nil {
		return nil, fmt.Errorf("query summary: %w", err)
	}
	defer rows.Close()

	var out []models.FetchSummary
	for rows.Next() {
		var s models.FetchSummary
		var source string
		if err := rows.Scan(&s.Endpoint, &source, &s.Fetches, &s.Records, &s.AvgLatencyMs); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		s.Source = models.Source(source)
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close releases the database connection.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}
