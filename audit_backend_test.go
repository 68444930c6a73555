// audit_backend_test.go: Tests for the SQLite and JSONL audit backends
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"path/filepath"
	"testing"
	"time"
)

func sampleEvents() []AuditEvent {
	now := time.Now()
	return []AuditEvent{
		{Timestamp: now, Level: AuditInfo, Event: "config_load", Store: "app.yaml", ProcessID: 1, ProcessName: "test"},
		{Timestamp: now, Level: AuditCritical, Event: "entry_write", Store: "app.yaml", Path: "port",
			OldValue: "80", NewValue: "8080", ProcessID: 1, ProcessName: "test"},
		{Timestamp: now, Level: AuditWarn, Event: "config_strip", Store: "db.toml", ProcessID: 1, ProcessName: "test",
			Context: map[string]interface{}{"removed": []string{"legacy"}}},
	}
}

func TestSQLiteAuditBackend(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "sub", "audit.db")
	backend, err := newSQLiteBackend(dbPath)
	if err != nil {
		t.Fatalf("newSQLiteBackend failed: %v", err)
	}

	if err := backend.Write(sampleEvents()); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := backend.Write(nil); err != nil {
		t.Errorf("Writing nothing should succeed: %v", err)
	}

	stats, err := backend.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalEvents != 3 {
		t.Errorf("TotalEvents = %d, want 3", stats.TotalEvents)
	}
	if stats.EventsByLevel["CRITICAL"] != 1 || stats.EventsByLevel["INFO"] != 1 {
		t.Errorf("EventsByLevel = %v", stats.EventsByLevel)
	}
	if stats.EventsByStore["app.yaml"] != 2 || stats.EventsByStore["db.toml"] != 1 {
		t.Errorf("EventsByStore = %v", stats.EventsByStore)
	}
	if stats.SizeBytes == 0 {
		t.Error("SizeBytes should report the database size")
	}

	if err := backend.Close(); err != nil {
		t.Fatal(err)
	}
	if err := backend.Close(); err != nil {
		t.Errorf("Closing twice should be a no-op: %v", err)
	}
	if err := backend.Write(sampleEvents()); !HasCode(err, ErrCodeAudit) {
		t.Errorf("Write after close should fail with %s, got %v", ErrCodeAudit, err)
	}

	// Reopening keeps the history.
	reopened, err := newSQLiteBackend(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := reopened.Close(); err != nil {
			t.Errorf("Failed to close backend: %v", err)
		}
	}()
	stats, err = reopened.Stats()
	if err != nil || stats.TotalEvents != 3 {
		t.Errorf("Reopened stats = %+v, %v", stats, err)
	}
}

func TestJSONLAuditBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	backend, err := newJSONLBackend(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := backend.Write(sampleEvents()); err != nil {
		t.Fatal(err)
	}
	stats, err := backend.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalEvents != 3 || stats.SizeBytes == 0 {
		t.Errorf("Unexpected stats %+v", stats)
	}
	if err := backend.Close(); err != nil {
		t.Fatal(err)
	}
	if err := backend.Write(sampleEvents()); !HasCode(err, ErrCodeAudit) {
		t.Errorf("Write after close should fail with %s, got %v", ErrCodeAudit, err)
	}
	if events := readJSONL(t, path); len(events) != 3 {
		t.Errorf("Expected 3 lines, got %d", len(events))
	}
}

func TestCreateAuditBackend(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		file string
		want string
	}{
		{filepath.Join(dir, "a.jsonl"), "jsonl"},
		{filepath.Join(dir, "a.db"), "sqlite"},
		{filepath.Join(dir, "a.log"), "sqlite"},
	}
	for _, tt := range tests {
		backend, err := createAuditBackend(AuditConfig{Enabled: true, OutputFile: tt.file})
		if err != nil {
			t.Errorf("createAuditBackend(%s) failed: %v", tt.file, err)
			continue
		}
		var got string
		switch backend.(type) {
		case *jsonlAuditBackend:
			got = "jsonl"
		case *sqliteAuditBackend:
			got = "sqlite"
		}
		if got != tt.want {
			t.Errorf("createAuditBackend(%s) = %s, want %s", tt.file, got, tt.want)
		}
		if err := backend.Close(); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	}
}
