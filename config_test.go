// config_test.go: Tests for Options and logger construction
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{}.WithDefaults()
	if opts.Logger == nil || opts.KeyFunc == nil {
		t.Fatal("Logger and KeyFunc must be set")
	}
	if opts.Logger.GetLevel() != zerolog.Disabled {
		t.Errorf("Default logger should be disabled, got %s", opts.Logger.GetLevel())
	}
	if opts.AuditConfig.Enabled {
		t.Error("Audit must stay off by default")
	}

	audit := Options{AuditConfig: AuditConfig{Enabled: true}}.WithDefaults()
	if audit.AuditConfig.BufferSize != DefaultAuditConfig().BufferSize {
		t.Errorf("BufferSize = %d", audit.AuditConfig.BufferSize)
	}

	logger := zerolog.New(&bytes.Buffer{})
	custom := Options{Logger: &logger}.WithDefaults()
	if custom.Logger != &logger {
		t.Error("A configured logger must be kept")
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name     string
		opts     Options
		valid    bool
		warnings int
		want     string
	}{
		{name: "zero", opts: Options{}, valid: true, want: "options are valid"},
		{
			name:  "audit jsonl",
			opts:  Options{AuditConfig: AuditConfig{Enabled: true, OutputFile: "audit.jsonl", BufferSize: 10}},
			valid: true,
			want:  "options are valid",
		},
		{
			name:     "odd extension",
			opts:     Options{AuditConfig: AuditConfig{Enabled: true, OutputFile: "audit.log"}},
			valid:    true,
			warnings: 1,
			want:     "options are valid with 1 warning(s)",
		},
		{
			name:     "both audit sources",
			opts:     Options{Audit: &AuditLogger{}, AuditConfig: AuditConfig{Enabled: true, OutputFile: "a.db"}},
			valid:    true,
			warnings: 1,
			want:     "options are valid with 1 warning(s)",
		},
		{
			name:  "negative buffer",
			opts:  Options{AuditConfig: AuditConfig{Enabled: true, BufferSize: -1}},
			valid: false,
			want:  "options are invalid: 1 error(s), 0 warning(s)",
		},
		{
			name:  "unknown level",
			opts:  Options{AuditConfig: AuditConfig{Enabled: true, MinLevel: AuditLevel(9)}},
			valid: false,
			want:  "options are invalid: 1 error(s), 0 warning(s)",
		},
		{
			name:     "large buffer",
			opts:     Options{AuditConfig: AuditConfig{BufferSize: 200000}},
			valid:    true,
			warnings: 1,
			want:     "options are valid with 1 warning(s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.opts.ValidateDetailed()
			if result.Valid != tt.valid || len(result.Warnings) != tt.warnings {
				t.Errorf("ValidateDetailed() = %+v", result)
			}
			if result.String() != tt.want {
				t.Errorf("String() = %q, want %q", result.String(), tt.want)
			}
			err := tt.opts.Validate()
			if tt.valid && err != nil {
				t.Errorf("Validate() = %v", err)
			}
			if !tt.valid && !HasCode(err, ErrCodeInvalidOptions) {
				t.Errorf("Expected %s, got %v", ErrCodeInvalidOptions, err)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger("WARN", &buf)
	if err != nil {
		t.Fatal(err)
	}
	logger.Info().Msg("hidden")
	logger.Warn().Str("path", "server.port").Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("Info should be filtered at warn level")
	}
	if !strings.Contains(out, `"component":"carta"`) || !strings.Contains(out, `"path":"server.port"`) {
		t.Errorf("Unexpected log output: %s", out)
	}

	if def, err := NewLogger("", &buf); err != nil || def.GetLevel() != zerolog.InfoLevel {
		t.Errorf("Empty level should mean info: %v %v", def.GetLevel(), err)
	}
	if _, err := NewLogger("loud", nil); !HasCode(err, ErrCodeInvalidOptions) {
		t.Errorf("Expected %s, got %v", ErrCodeInvalidOptions, err)
	}
}
