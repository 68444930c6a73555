// Utility functions for the Carta CLI
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agilira/carta"
	"github.com/agilira/go-errors"
)

// openStore returns a file store for filePath. An explicit format wins
// over the file extension.
func (m *Manager) openStore(filePath, explicitFormat string) (*carta.FileStore, error) {
	format, err := carta.ParseFormat(explicitFormat)
	if err != nil {
		return nil, err
	}
	if format == carta.FormatUnknown {
		format = carta.DetectFormat(filePath)
	}
	if format == carta.FormatUnknown {
		return nil, errors.New(carta.ErrCodeUnsupportedFormat,
			fmt.Sprintf("cannot detect the format of %s, use --format", filePath))
	}
	codec, err := carta.CodecFor(format)
	if err != nil {
		return nil, err
	}
	return carta.NewFileStoreWithCodec(filePath, codec), nil
}

// parseValue detects the type of a command-line value: true and false are
// booleans, numeric literals are numbers, anything else is a string.
func parseValue(raw string) carta.Value {
	switch strings.ToLower(raw) {
	case "true":
		return carta.BoolValue(true)
	case "false":
		return carta.BoolValue(false)
	}
	if v, ok := carta.NumberValue(raw); ok {
		return v
	}
	return carta.StringValue(raw)
}

// hasPathPrefix reports whether path equals prefix or lies below it.
func hasPathPrefix(path, prefix string) bool {
	return prefix == "" || path == prefix || strings.HasPrefix(path, prefix+".")
}

// parseKeepList parses the comma separated --keep flag.
func parseKeepList(list string) (map[string]bool, error) {
	keep := make(map[string]bool)
	for _, p := range strings.Split(list, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if err := carta.ValidatePath(p); err != nil {
			return nil, err
		}
		keep[p] = true
	}
	if len(keep) == 0 {
		return nil, errors.New(carta.ErrCodeInvalidOptions, "--keep needs at least one path")
	}
	return keep, nil
}

func sortedKeys(m map[string]int64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func prefixEach(items []string, sep string) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(sep)
		b.WriteString(item)
	}
	return b.String()
}

// generateTemplate returns the starting tree for a template name.
func generateTemplate(templateType string) (*carta.Section, error) {
	var tree map[string]interface{}
	switch templateType {
	case "server":
		tree = map[string]interface{}{
			"server": map[string]interface{}{
				"host":    "0.0.0.0",
				"port":    8080,
				"timeout": "30s",
			},
			"logging": map[string]interface{}{
				"level":  "info",
				"format": "json",
			},
			"metrics": map[string]interface{}{
				"enabled": true,
				"port":    9090,
			},
		}
	case "database":
		tree = map[string]interface{}{
			"database": map[string]interface{}{
				"host":      "localhost",
				"port":      5432,
				"name":      "myapp",
				"user":      "admin",
				"password":  "changeme",
				"pool_size": 10,
			},
			"cache": map[string]interface{}{
				"enabled":  true,
				"ttl":      "5m",
				"max_size": 1000,
			},
		}
	case "minimal":
		tree = map[string]interface{}{
			"app_name": "my-application",
			"version":  "1.0.0",
			"debug":    false,
		}
	case "default":
		tree = map[string]interface{}{
			"app": map[string]interface{}{
				"name":        "carta-app",
				"version":     "1.0.0",
				"environment": "development",
			},
			"server": map[string]interface{}{
				"host": "localhost",
				"port": 8080,
			},
			"features": map[string]interface{}{
				"auth_enabled":    true,
				"metrics_enabled": false,
				"debug_mode":      true,
			},
		}
	default:
		return nil, errors.New(carta.ErrCodeInvalidOptions, fmt.Sprintf("unknown template: %s", templateType))
	}
	v, err := carta.FromNative(tree)
	if err != nil {
		return nil, err
	}
	return v.Section(), nil
}

// checkFileWriteable verifies if a file can be written to.
// Returns error if file exists but is not writable (e.g., read-only permissions).
func checkFileWriteable(filePath string) error {
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return checkDirectoryWriteable(filepath.Dir(filePath))
	}
	if err != nil {
		return fmt.Errorf("cannot stat file: %w", err)
	}
	if mode := info.Mode(); mode&0200 == 0 {
		return fmt.Errorf("file is read-only (mode: %v)", mode)
	}
	return nil
}

// checkDirectoryWriteable verifies if a directory can be written to.
func checkDirectoryWriteable(dirPath string) error {
	info, err := os.Stat(dirPath)
	if err != nil {
		return fmt.Errorf("cannot access directory %s: %w", dirPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dirPath)
	}
	if mode := info.Mode(); mode&0200 == 0 {
		return fmt.Errorf("directory is not writable (mode: %v)", mode)
	}
	return nil
}
