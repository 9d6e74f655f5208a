// Package storage persists confirmed task snapshots locally.
//
// The cache is read-through: a snapshot is only ever written after a
// confirmed backend fetch, and is replaced wholesale. It exists so
// `fieldops list --cached` and `show` can render the last known state
// without a network round trip; it is never consulted to decide whether
// an action is legal.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/civitrack/fieldops/internal/api"
	"github.com/civitrack/fieldops/internal/task"
)

// Store is the local snapshot cache. Safe for concurrent use.
type Store struct {
	db    *sql.DB
	mu    sync.RWMutex
	group singleflight.Group
}

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	task_id    TEXT PRIMARY KEY,
	report_id  TEXT NOT NULL,
	status     TEXT NOT NULL,
	payload    TEXT NOT NULL,
	fetched_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS history (
	task_id    TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	status     TEXT NOT NULL,
	note       TEXT,
	changed_by TEXT,
	created_at TEXT NOT NULL,
	PRIMARY KEY (task_id, seq)
);
`

// Open opens (or creates) the cache database at the given path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}
	return open(path)
}

// OpenInMemory opens an isolated in-memory cache, for tests.
func OpenInMemory() (*Store, error) {
	return open(":memory:")
}

func open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = NORMAL;
		PRAGMA busy_timeout = 5000;
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set pragmas: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveSnapshot stores a confirmed task snapshot, replacing any previous one.
func (s *Store) SaveSnapshot(t *task.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO snapshots (task_id, report_id, status, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(task_id) DO UPDATE SET
			report_id = excluded.report_id,
			status = excluded.status,
			payload = excluded.payload,
			fetched_at = excluded.fetched_at
	`, t.ID, t.ReportID, string(t.Status), string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the cached snapshot for a task, or nil if absent.
func (s *Store) LoadSnapshot(id string) (*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRow(`SELECT payload FROM snapshots WHERE task_id = ?`, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var t task.Task
	if err := json.Unmarshal([]byte(payload), &t); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return &t, nil
}

// LoadAll returns all cached snapshots, newest fetch first.
func (s *Store) LoadAll() ([]*task.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`SELECT payload FROM snapshots ORDER BY fetched_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("load snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []*task.Task
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		var t task.Task
		if err := json.Unmarshal([]byte(payload), &t); err != nil {
			return nil, fmt.Errorf("decode snapshot: %w", err)
		}
		tasks = append(tasks, &t)
	}
	return tasks, rows.Err()
}

// DeleteSnapshot removes a cached task, e.g. after a report is reopened
// and the task superseded.
func (s *Store) DeleteSnapshot(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.Exec(`DELETE FROM snapshots WHERE task_id = ?`, id); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if _, err := s.db.Exec(`DELETE FROM history WHERE task_id = ?`, id); err != nil {
		return fmt.Errorf("delete history: %w", err)
	}
	return nil
}

// SaveHistory replaces the cached timeline for a task.
func (s *Store) SaveHistory(id string, entries []api.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM history WHERE task_id = ?`, id); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	for i, e := range entries {
		if _, err := tx.Exec(`
			INSERT INTO history (task_id, seq, status, note, changed_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, id, i, string(e.Status), e.Note, e.ChangedBy, e.CreatedAt.UTC().Format(time.RFC3339)); err != nil {
			return fmt.Errorf("save history entry: %w", err)
		}
	}
	return tx.Commit()
}

// LoadHistory returns the cached timeline for a task.
func (s *Store) LoadHistory(id string) ([]api.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT status, note, changed_by, created_at FROM history
		WHERE task_id = ? ORDER BY seq
	`, id)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []api.HistoryEntry
	for rows.Next() {
		var e api.HistoryEntry
		var status, createdAt string
		var note, changedBy sql.NullString
		if err := rows.Scan(&status, &note, &changedBy, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		e.Status = task.Status(status)
		e.Note = note.String
		e.ChangedBy = changedBy.String
		if ts, err := time.Parse(time.RFC3339, createdAt); err == nil {
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// FetchFunc fetches the authoritative task state from the backend.
type FetchFunc func(ctx context.Context, id string) (*task.Task, error)

// Refresh fetches a task through the cache: concurrent refreshes of the
// same task share one backend call, and a successful fetch replaces the
// stored snapshot.
func (s *Store) Refresh(ctx context.Context, id string, fetch FetchFunc) (*task.Task, error) {
	v, err, _ := s.group.Do(id, func() (any, error) {
		t, err := fetch(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := s.SaveSnapshot(t); err != nil {
			return nil, err
		}
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*task.Task), nil
}
