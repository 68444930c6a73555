// env_config.go: Environment variable support
//
// Two things live here: LoadOptionsFromEnv, which builds Options for the
// library itself from CARTA_* variables, and ApplyEnv, which overrides the
// values of registered entries from the environment.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agilira/go-errors"
)

// LoadOptionsFromEnv builds Options from environment variables:
//
//	CARTA_LOG_LEVEL          zerolog level, logs go to stderr
//	CARTA_AUDIT_ENABLED      true/false, 1/0, yes/no, on/off
//	CARTA_AUDIT_OUTPUT_FILE  .jsonl for JSONL, anything else for SQLite
//	CARTA_AUDIT_MIN_LEVEL    info, warn, critical or security
//	CARTA_AUDIT_BUFFER_SIZE  events buffered before a flush
//
// Unset variables keep their defaults.
func LoadOptionsFromEnv() (Options, error) {
	var opts Options

	if level := os.Getenv("CARTA_LOG_LEVEL"); level != "" {
		logger, err := NewLogger(level, os.Stderr)
		if err != nil {
			return Options{}, errors.Wrap(err, ErrCodeInvalidOptions, "invalid CARTA_LOG_LEVEL")
		}
		opts.Logger = &logger
	}

	audit := DefaultAuditConfig()
	audit.Enabled = GetEnvBoolWithDefault("CARTA_AUDIT_ENABLED", false)
	audit.OutputFile = GetEnvWithDefault("CARTA_AUDIT_OUTPUT_FILE", audit.OutputFile)
	if levelStr := os.Getenv("CARTA_AUDIT_MIN_LEVEL"); levelStr != "" {
		level, err := ParseAuditLevel(levelStr)
		if err != nil {
			return Options{}, errors.Wrap(err, ErrCodeInvalidOptions, "invalid CARTA_AUDIT_MIN_LEVEL")
		}
		audit.MinLevel = level
	}
	if bufferStr := os.Getenv("CARTA_AUDIT_BUFFER_SIZE"); bufferStr != "" {
		buffer, err := strconv.Atoi(bufferStr)
		if err != nil || buffer <= 0 {
			return Options{}, errors.New(ErrCodeInvalidOptions, "invalid CARTA_AUDIT_BUFFER_SIZE value")
		}
		audit.BufferSize = buffer
	}
	opts.AuditConfig = audit

	return opts.WithDefaults(), nil
}

// EnvName returns the variable that overrides path under prefix:
// server.max-conns with prefix APP becomes APP_SERVER_MAX_CONNS.
func EnvName(prefix, path string) string {
	name := strings.ToUpper(strings.NewReplacer(".", "_", "-", "_").Replace(path))
	if prefix == "" {
		return name
	}
	return strings.ToUpper(prefix) + "_" + name
}

// ApplyEnv sets every entry of r that has a matching environment variable
// (see EnvName) and returns the paths it changed. Variable values are
// decoded as strings, so list entries take comma separated text. lookup
// defaults to os.LookupEnv. The first value that fails to decode stops the
// overlay; entries set before it keep their new values.
func ApplyEnv(r *Registry, prefix string, lookup func(string) (string, bool)) ([]string, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	var changed []string
	for _, e := range r.Entries() {
		raw, ok := lookup(EnvName(prefix, e.Path()))
		if !ok {
			continue
		}
		before := e.Encoded(DefaultKeyFunc)
		if err := e.SetRaw(StringValue(raw)); err != nil {
			return changed, qualify(err, EnvName(prefix, e.Path()))
		}
		if !before.Equal(e.Encoded(DefaultKeyFunc)) {
			changed = append(changed, e.Path())
		}
	}
	return changed, nil
}

// parseBool parses boolean values from environment variables.
// Supports: true/false, 1/0, yes/no, on/off, enabled/disabled
func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes", "on", "enabled":
		return true
	}
	return false
}

// GetEnvWithDefault returns environment variable value or default if not set
func GetEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvDurationWithDefault returns environment variable as duration or default
func GetEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// GetEnvIntWithDefault returns environment variable as int or default
func GetEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvBoolWithDefault returns environment variable as bool or default
func GetEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return parseBool(value)
	}
	return defaultValue
}
