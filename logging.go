// logging.go: Structured logging for carta components
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"io"
	"os"
	"strings"

	"github.com/agilira/go-errors"
	"github.com/rs/zerolog"
)

// NewLogger returns a zerolog logger tagged with component=carta. level is a
// zerolog level name (debug, info, warn, error, disabled); an empty level
// means info. A nil writer logs to stderr.
func NewLogger(level string, w io.Writer) (zerolog.Logger, error) {
	if w == nil {
		w = os.Stderr
	}
	lvl := zerolog.InfoLevel
	if level = strings.TrimSpace(level); level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(level))
		if err != nil {
			return zerolog.Nop(), errors.Wrap(err, ErrCodeInvalidOptions, "invalid log level").
				WithContext("level", level)
		}
		lvl = parsed
	}
	return zerolog.New(w).With().Timestamp().Str("component", "carta").Logger().Level(lvl), nil
}
