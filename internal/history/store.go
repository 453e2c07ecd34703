// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records completed pipeline stage runs in a local SQLite
// ledger. The ledger is observational: the pipeline consults only the
// filesystem to decide whether a stage can be skipped, never this database.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"
)

const dbFile = "runs.db"

// Run statuses.
const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

// Run is one recorded stage execution.
type Run struct {
	ID        int64         `json:"id" yaml:"id"`
	PaperID   string        `json:"paper_id" yaml:"paper_id"`
	Stage     string        `json:"stage" yaml:"stage"`
	Status    string        `json:"status" yaml:"status"`
	Model     string        `json:"model,omitempty" yaml:"model,omitempty"`
	Windows   int           `json:"windows" yaml:"windows"`
	Kept      int           `json:"kept" yaml:"kept"`
	Empty     int           `json:"empty" yaml:"empty"`
	Duration  time.Duration `json:"duration" yaml:"duration"`
	Output    string        `json:"output" yaml:"output"`
	CreatedAt time.Time     `json:"created_at" yaml:"created_at"`
}

// Store manages the run ledger database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger database at dir/runs.db, creating the
// schema if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating history schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id TEXT NOT NULL,
			stage TEXT NOT NULL,
			status TEXT NOT NULL,
			model TEXT,
			windows INTEGER NOT NULL DEFAULT 0,
			kept INTEGER NOT NULL DEFAULT 0,
			empty INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			output_path TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_paper_id ON runs(paper_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record inserts one run. CreatedAt defaults to now when unset.
func (s *Store) Record(ctx context.Context, run Run) error {
	created := run.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (paper_id, stage, status, model, windows, kept, empty, duration_ms, output_path, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.PaperID, run.Stage, run.Status, run.Model,
		run.Windows, run.Kept, run.Empty, run.Duration.Milliseconds(),
		run.Output, created.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("recording run: %w", err)
	}
	return nil
}

// List returns runs in reverse chronological order. An empty paperID lists
// all papers; limit 0 means no limit.
func (s *Store) List(ctx context.Context, paperID string, limit int) ([]Run, error) {
	query := `SELECT id, paper_id, stage, status, model, windows, kept, empty, duration_ms, output_path, created_at
	          FROM runs`
	var args []any
	if paperID != "" {
		query += ` WHERE paper_id = ?`
		args = append(args, paperID)
	}
	query += ` ORDER BY id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var durationMS int64
		var created string
		if err := rows.Scan(&r.ID, &r.PaperID, &r.Stage, &r.Status, &r.Model,
			&r.Windows, &r.Kept, &r.Empty, &durationMS, &r.Output, &created); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		r.Duration = time.Duration(durationMS) * time.Millisecond
		if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
			r.CreatedAt = t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// ExportYAML writes all recorded runs (newest first) to w as YAML.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	runs, err := s.List(ctx, "", 0)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(struct {
		Runs []Run `yaml:"runs"`
	}{Runs: runs})
	if err != nil {
		return fmt.Errorf("marshaling runs: %w", err)
	}
	_, err = w.Write(data)
	return err
}
