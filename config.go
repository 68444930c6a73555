// config.go: Options for carta configurations
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"fmt"
	"path/filepath"

	"github.com/agilira/go-errors"
	"github.com/rs/zerolog"
)

// DecodeErrorHandler decides what happens when a value read from a store
// cannot be decoded for an entry. Returning nil makes the entry fall back to
// its default (and stay modified so the default gets written); returning an
// error aborts the load with that error.
type DecodeErrorHandler func(entry AnyEntry, raw Value, err error) error

// UseDefaultOnDecodeError is a DecodeErrorHandler that always falls back to
// the default value.
func UseDefaultOnDecodeError(AnyEntry, Value, error) error { return nil }

// Options configures a Configuration.
type Options struct {
	// Logger receives lifecycle events. Defaults to a disabled logger.
	Logger *zerolog.Logger

	// KeyFunc renders encoded map keys. Defaults to DefaultKeyFunc.
	KeyFunc KeyFunc

	// DecodeErrorHandler is consulted for store values that fail to decode.
	// When nil such failures abort Load and Reload.
	DecodeErrorHandler DecodeErrorHandler

	// Audit receives load, write and strip events. When nil and
	// AuditConfig.Enabled is set, New creates a logger from AuditConfig and
	// the configuration closes it on Close.
	Audit       *AuditLogger
	AuditConfig AuditConfig
}

// WithDefaults returns a copy of o with defaults applied.
func (o Options) WithDefaults() Options {
	if o.Logger == nil {
		nop := zerolog.Nop()
		o.Logger = &nop
	}
	if o.KeyFunc == nil {
		o.KeyFunc = DefaultKeyFunc
	}
	if o.AuditConfig.Enabled && o.AuditConfig.BufferSize <= 0 {
		o.AuditConfig.BufferSize = DefaultAuditConfig().BufferSize
	}
	return o
}

// ValidationResult contains the result of options validation.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// String returns a human-readable representation of validation results
func (vr ValidationResult) String() string {
	if vr.Valid {
		if len(vr.Warnings) == 0 {
			return "options are valid"
		}
		return fmt.Sprintf("options are valid with %d warning(s)", len(vr.Warnings))
	}
	return fmt.Sprintf("options are invalid: %d error(s), %d warning(s)", len(vr.Errors), len(vr.Warnings))
}

// Validate returns the first problem found in o, if any.
func (o Options) Validate() error {
	result := o.ValidateDetailed()
	if !result.Valid {
		return errors.New(ErrCodeInvalidOptions, result.Errors[0])
	}
	return nil
}

// ValidateDetailed checks o and reports every error and warning.
func (o Options) ValidateDetailed() ValidationResult {
	result := ValidationResult{Valid: true}

	if o.Audit != nil && o.AuditConfig.Enabled {
		result.Warnings = append(result.Warnings, "both Audit and AuditConfig are set; AuditConfig is ignored")
	}
	if o.AuditConfig.Enabled {
		if o.AuditConfig.BufferSize < 0 {
			result.Errors = append(result.Errors, "audit buffer size must not be negative")
		}
		if o.AuditConfig.MinLevel < AuditInfo || o.AuditConfig.MinLevel > AuditSecurity {
			result.Errors = append(result.Errors, fmt.Sprintf("unknown audit level %d", o.AuditConfig.MinLevel))
		}
		if f := o.AuditConfig.OutputFile; f != "" {
			switch filepath.Ext(f) {
			case ".jsonl", ".db":
			default:
				result.Warnings = append(result.Warnings,
					fmt.Sprintf("audit output %q has no .jsonl or .db extension and will be stored as SQLite", f))
			}
		}
	}
	if o.AuditConfig.BufferSize > 100000 {
		result.Warnings = append(result.Warnings, "audit buffer size above 100000 keeps many events in memory")
	}

	result.Valid = len(result.Errors) == 0
	return result
}
