// audit.go: Audit trail for configuration changes
//
// Every load, write and strip of a configuration can be recorded with the
// values before and after, a timestamp and a tamper-detection checksum.
// Events are buffered and flushed synchronously when the buffer fills, on
// Flush and on Close; the logger never starts goroutines.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/agilira/go-errors"
	"github.com/agilira/go-timecache"
)

// AuditLevel represents the severity of audit events
type AuditLevel int

const (
	AuditInfo AuditLevel = iota
	AuditWarn
	AuditCritical
	AuditSecurity
)

func (al AuditLevel) String() string {
	switch al {
	case AuditInfo:
		return "INFO"
	case AuditWarn:
		return "WARN"
	case AuditCritical:
		return "CRITICAL"
	case AuditSecurity:
		return "SECURITY"
	default:
		return "UNKNOWN"
	}
}

// ParseAuditLevel parses a level name such as "info" or "critical".
func ParseAuditLevel(name string) (AuditLevel, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "info":
		return AuditInfo, nil
	case "warn", "warning":
		return AuditWarn, nil
	case "critical", "error":
		return AuditCritical, nil
	case "security":
		return AuditSecurity, nil
	}
	return AuditInfo, errors.New(ErrCodeInvalidOptions, fmt.Sprintf("invalid audit level %q", name))
}

// AuditEvent represents a single auditable event
type AuditEvent struct {
	Timestamp   time.Time              `json:"timestamp"`
	Level       AuditLevel             `json:"level"`
	Event       string                 `json:"event"`
	Store       string                 `json:"store"`
	Path        string                 `json:"path,omitempty"`
	OldValue    interface{}            `json:"old_value,omitempty"`
	NewValue    interface{}            `json:"new_value,omitempty"`
	ProcessID   int                    `json:"process_id"`
	ProcessName string                 `json:"process_name"`
	Context     map[string]interface{} `json:"context,omitempty"`
	Checksum    string                 `json:"checksum"`
}

// AuditConfig configures the audit system
type AuditConfig struct {
	Enabled    bool       `json:"enabled"`
	OutputFile string     `json:"output_file"`
	MinLevel   AuditLevel `json:"min_level"`
	BufferSize int        `json:"buffer_size"`
}

// DefaultAuditConfig returns the default audit configuration: SQLite storage
// in the system audit database, every level recorded.
func DefaultAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:    true,
		OutputFile: "",
		MinLevel:   AuditInfo,
		BufferSize: 100,
	}
}

// AuditLogger records audit events to a SQLite or JSONL backend.
type AuditLogger struct {
	config      AuditConfig
	backend     auditBackend
	buffer      []AuditEvent
	mu          sync.Mutex
	processID   int
	processName string
}

// NewAuditLogger creates an audit logger. The backend is JSONL when the
// output file ends in .jsonl and SQLite otherwise.
func NewAuditLogger(config AuditConfig) (*AuditLogger, error) {
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultAuditConfig().BufferSize
	}
	backend, err := createAuditBackend(config)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeAudit, fmt.Sprintf("failed to initialize audit backend: %v", err))
	}
	return &AuditLogger{
		config:      config,
		backend:     backend,
		buffer:      make([]AuditEvent, 0, config.BufferSize),
		processID:   os.Getpid(),
		processName: filepath.Base(os.Args[0]),
	}, nil
}

// Log records an event. It is a no-op on a nil or disabled logger and for
// levels below the configured minimum.
func (al *AuditLogger) Log(level AuditLevel, event, store, path string, oldVal, newVal interface{}, context map[string]interface{}) {
	if al == nil || al.backend == nil || !al.config.Enabled || level < al.config.MinLevel {
		return
	}

	ev := AuditEvent{
		Timestamp:   timecache.CachedTime(),
		Level:       level,
		Event:       event,
		Store:       store,
		Path:        path,
		OldValue:    oldVal,
		NewValue:    newVal,
		ProcessID:   al.processID,
		ProcessName: al.processName,
		Context:     context,
	}
	ev.Checksum = checksum(ev)

	al.mu.Lock()
	al.buffer = append(al.buffer, ev)
	if len(al.buffer) >= al.config.BufferSize {
		_ = al.flushLocked() // a failed flush keeps the events buffered
	}
	al.mu.Unlock()
}

// Flush writes all buffered events to the backend.
func (al *AuditLogger) Flush() error {
	if al == nil {
		return nil
	}
	al.mu.Lock()
	defer al.mu.Unlock()
	return al.flushLocked()
}

// Close flushes and releases the backend.
func (al *AuditLogger) Close() error {
	if al == nil {
		return nil
	}
	if err := al.Flush(); err != nil {
		return err
	}
	if err := al.backend.Close(); err != nil {
		return errors.Wrap(err, ErrCodeAudit, fmt.Sprintf("failed to close audit backend: %v", err))
	}
	return nil
}

// Stats returns statistics from the backend.
func (al *AuditLogger) Stats() (*AuditStats, error) {
	if err := al.Flush(); err != nil {
		return nil, err
	}
	return al.backend.Stats()
}

func (al *AuditLogger) flushLocked() error {
	if len(al.buffer) == 0 {
		return nil
	}
	if err := al.backend.Write(al.buffer); err != nil {
		return errors.Wrap(err, ErrCodeAudit, fmt.Sprintf("failed to write audit events: %v", err))
	}
	al.buffer = al.buffer[:0]
	return nil
}

// checksum creates a tamper-detection checksum using SHA-256
func checksum(ev AuditEvent) string {
	data := fmt.Sprintf("%s:%s:%s:%s:%v:%v",
		ev.Timestamp.Format(time.RFC3339Nano),
		ev.Event, ev.Store, ev.Path, ev.OldValue, ev.NewValue)
	sum := sha256.Sum256([]byte(data))
	return fmt.Sprintf("%x", sum)
}
