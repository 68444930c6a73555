// codec.go: Configuration file formats
//
// A Codec turns the bytes of one file format into a section tree and back.
// Built-in codecs cover JSON, YAML, TOML, INI and Java-style properties;
// applications can register their own codecs, which take precedence over the
// built-in ones for the formats they support.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/agilira/go-errors"
)

// ConfigFormat identifies a configuration file format.
type ConfigFormat int

const (
	FormatJSON ConfigFormat = iota
	FormatYAML
	FormatTOML
	FormatINI
	FormatProperties
	FormatUnknown
)

// String returns the string representation of the config format.
func (cf ConfigFormat) String() string {
	switch cf {
	case FormatJSON:
		return "JSON"
	case FormatYAML:
		return "YAML"
	case FormatTOML:
		return "TOML"
	case FormatINI:
		return "INI"
	case FormatProperties:
		return "Properties"
	default:
		return "Unknown"
	}
}

// IsFlat reports whether the format stores dotted keys rather than nested
// sections.
func (cf ConfigFormat) IsFlat() bool {
	return cf == FormatINI || cf == FormatProperties
}

// DetectFormat detects the configuration format from the file extension.
func DetectFormat(filePath string) ConfigFormat {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		return FormatJSON
	case ".yml", ".yaml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".ini", ".conf", ".cfg", ".config":
		return FormatINI
	case ".properties", ".props":
		return FormatProperties
	}
	return FormatUnknown
}

// ParseFormat parses a format name such as "json" or "yaml". "auto" and
// the empty string yield FormatUnknown.
func ParseFormat(name string) (ConfigFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "toml":
		return FormatTOML, nil
	case "ini", "conf", "cfg":
		return FormatINI, nil
	case "properties", "props":
		return FormatProperties, nil
	case "", "auto":
		return FormatUnknown, nil
	}
	return FormatUnknown, errors.New(ErrCodeUnsupportedFormat, fmt.Sprintf("unsupported format %q", name))
}

// Codec converts between the bytes of a file format and a section tree.
type Codec interface {
	// Supports reports whether the codec handles format.
	Supports(format ConfigFormat) bool
	// Decode parses data. Null values are dropped.
	Decode(data []byte) (*Section, error)
	// Encode renders root.
	Encode(root *Section) ([]byte, error)
	// Name returns a human-readable name for diagnostics.
	Name() string
}

var (
	customCodecs []Codec
	codecMutex   sync.RWMutex
)

// RegisterCodec registers a codec. Registered codecs are tried before the
// built-in ones.
func RegisterCodec(c Codec) {
	codecMutex.Lock()
	defer codecMutex.Unlock()
	customCodecs = append(customCodecs, c)
}

// CodecFor returns the codec for format.
func CodecFor(format ConfigFormat) (Codec, error) {
	codecMutex.RLock()
	for i := len(customCodecs) - 1; i >= 0; i-- {
		if customCodecs[i].Supports(format) {
			c := customCodecs[i]
			codecMutex.RUnlock()
			return c, nil
		}
	}
	codecMutex.RUnlock()

	switch format {
	case FormatJSON:
		return jsonCodec{}, nil
	case FormatYAML:
		return yamlCodec{}, nil
	case FormatTOML:
		return tomlCodec{}, nil
	case FormatINI:
		return iniCodec{}, nil
	case FormatProperties:
		return propertiesCodec{}, nil
	}
	return nil, errors.New(ErrCodeUnsupportedFormat, fmt.Sprintf("no codec for format %s", format))
}

// CodecForFile returns the codec matching the extension of path.
func CodecForFile(path string) (Codec, error) {
	format := DetectFormat(path)
	if format == FormatUnknown {
		return nil, errors.New(ErrCodeUnsupportedFormat, fmt.Sprintf("cannot detect format of %s", path)).
			WithContext("path", path)
	}
	return CodecFor(format)
}

func decodeError(format ConfigFormat, err error) error {
	return errors.Wrap(err, ErrCodeIO, fmt.Sprintf("invalid %s document: %v", format, err)).
		WithContext("format", format.String())
}
