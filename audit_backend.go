// audit_backend.go: Storage backends for the audit trail
//
// Two backends are available: SQLite (queryable, the default) and JSONL
// (one JSON object per line, selected with a .jsonl output file).
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/agilira/go-errors"
	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

type auditBackend interface {
	// Write persists a batch of events.
	Write(events []AuditEvent) error
	// Stats summarizes what the backend holds.
	Stats() (*AuditStats, error)
	Close() error
}

// AuditStats summarizes an audit backend.
type AuditStats struct {
	TotalEvents   int64            `json:"total_events"`
	EventsByLevel map[string]int64 `json:"events_by_level"`
	EventsByStore map[string]int64 `json:"events_by_store"`
	SizeBytes     int64            `json:"size_bytes"`
}

func createAuditBackend(config AuditConfig) (auditBackend, error) {
	if config.OutputFile != "" && filepath.Ext(config.OutputFile) == ".jsonl" {
		return newJSONLBackend(config.OutputFile)
	}
	dbPath := config.OutputFile
	if dbPath == "" {
		dbPath = systemAuditPath()
	}
	return newSQLiteBackend(dbPath)
}

func systemAuditPath() string {
	return filepath.Join(os.TempDir(), "carta", "audit.db")
}

type sqliteAuditBackend struct {
	db         *sql.DB
	path       string
	insertStmt *sql.Stmt
	mu         sync.Mutex
	closed     bool
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp TEXT NOT NULL,
	level TEXT NOT NULL,
	event TEXT NOT NULL,
	store TEXT NOT NULL,
	path TEXT,
	old_value TEXT,
	new_value TEXT,
	process_id INTEGER NOT NULL,
	process_name TEXT NOT NULL,
	context TEXT,
	checksum TEXT,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp);
CREATE INDEX IF NOT EXISTS idx_audit_store_path ON audit_events(store, path);
`

func newSQLiteBackend(dbPath string) (*sqliteAuditBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, errors.Wrap(err, ErrCodeAudit, "failed to create audit database directory").
			WithContext("path", dbPath)
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeAudit, "failed to open audit database").WithContext("path", dbPath)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, ErrCodeAudit, "failed to ping audit database").WithContext("path", dbPath)
	}
	if _, err := db.Exec(auditSchema); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, ErrCodeAudit, "failed to initialize audit schema").WithContext("path", dbPath)
	}
	stmt, err := db.Prepare(`
	INSERT INTO audit_events (
		timestamp, level, event, store, path, old_value, new_value,
		process_id, process_name, context, checksum
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, ErrCodeAudit, "failed to prepare audit insert").WithContext("path", dbPath)
	}
	return &sqliteAuditBackend{db: db, path: dbPath, insertStmt: stmt}, nil
}

func (s *sqliteAuditBackend) Write(events []AuditEvent) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New(ErrCodeAudit, "cannot write to closed SQLite audit backend")
	}
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	stmt := tx.Stmt(s.insertStmt)
	defer stmt.Close()

	for _, ev := range events {
		if err = insertAuditEvent(stmt, ev); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func insertAuditEvent(stmt *sql.Stmt, ev AuditEvent) error {
	oldJSON, err := jsonText(ev.OldValue)
	if err != nil {
		return err
	}
	newJSON, err := jsonText(ev.NewValue)
	if err != nil {
		return err
	}
	var ctxJSON string
	if ev.Context != nil {
		if ctxJSON, err = jsonText(ev.Context); err != nil {
			return err
		}
	}
	_, err = stmt.Exec(
		ev.Timestamp.Format(time.RFC3339Nano),
		ev.Level.String(),
		ev.Event,
		ev.Store,
		ev.Path,
		oldJSON,
		newJSON,
		ev.ProcessID,
		ev.ProcessName,
		ctxJSON,
		ev.Checksum,
	)
	return err
}

func jsonText(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *sqliteAuditBackend) Stats() (*AuditStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &AuditStats{
		EventsByLevel: make(map[string]int64),
		EventsByStore: make(map[string]int64),
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM audit_events").Scan(&stats.TotalEvents); err != nil {
		return nil, err
	}
	if err := s.groupCount("level", stats.EventsByLevel); err != nil {
		return nil, err
	}
	if err := s.groupCount("store", stats.EventsByStore); err != nil {
		return nil, err
	}
	if info, err := os.Stat(s.path); err == nil {
		stats.SizeBytes = info.Size()
	}
	return stats, nil
}

func (s *sqliteAuditBackend) groupCount(column string, into map[string]int64) error {
	rows, err := s.db.Query("SELECT " + column + ", COUNT(*) FROM audit_events GROUP BY " + column)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return err
		}
		into[key] = count
	}
	return rows.Err()
}

func (s *sqliteAuditBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	var firstErr error
	if s.insertStmt != nil {
		firstErr = s.insertStmt.Close()
	}
	if err := s.db.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

type jsonlAuditBackend struct {
	file   *os.File
	path   string
	events int64
	mu     sync.Mutex
	closed bool
}

func newJSONLBackend(path string) (*jsonlAuditBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, errors.Wrap(err, ErrCodeAudit, "failed to create JSONL audit directory").WithContext("path", path)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeAudit, "failed to open JSONL audit file").WithContext("path", path)
	}
	return &jsonlAuditBackend{file: file, path: path}, nil
}

func (j *jsonlAuditBackend) Write(events []AuditEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return errors.New(ErrCodeAudit, "cannot write to closed JSONL audit backend")
	}
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		if _, err := j.file.Write(append(data, '\n')); err != nil {
			return err
		}
		j.events++
	}
	return j.file.Sync()
}

// Stats counts the events written by this backend instance only; reading
// back the whole file is left to log tooling.
func (j *jsonlAuditBackend) Stats() (*AuditStats, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	stats := &AuditStats{
		TotalEvents:   j.events,
		EventsByLevel: make(map[string]int64),
		EventsByStore: make(map[string]int64),
	}
	if info, err := os.Stat(j.path); err == nil {
		stats.SizeBytes = info.Size()
	}
	return stats, nil
}

func (j *jsonlAuditBackend) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.file.Close()
}
