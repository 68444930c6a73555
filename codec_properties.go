// codec_properties.go: Java-style properties codec
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/agilira/go-errors"
)

type propertiesCodec struct{}

func (propertiesCodec) Supports(format ConfigFormat) bool { return format == FormatProperties }
func (propertiesCodec) Name() string                      { return "properties" }

// Decode reads key=value or key: value lines. Lines starting with # or !
// are comments and a trailing backslash continues the logical line. Values
// decode as strings.
func (propertiesCodec) Decode(data []byte) (*Section, error) {
	var entries []FlatEntry
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNum := 0
	var pending strings.Builder
	for scanner.Scan() {
		lineNum++
		line := strings.TrimLeftFunc(scanner.Text(), unicode.IsSpace)
		if pending.Len() == 0 && (line == "" || line[0] == '#' || line[0] == '!') {
			continue
		}
		if continues(line) {
			pending.WriteString(line[:len(line)-1])
			continue
		}
		pending.WriteString(line)
		logical := pending.String()
		pending.Reset()

		key, value := splitProperty(logical)
		key = unescapeProperty(key)
		if err := validatePropertiesKey(key, lineNum); err != nil {
			return nil, err
		}
		if err := validateFlatKey(key); err != nil {
			return nil, decodeError(FormatProperties, err)
		}
		entries = append(entries, FlatEntry{Path: key, Value: StringValue(unescapeProperty(value))})
	}
	if err := scanner.Err(); err != nil {
		return nil, decodeError(FormatProperties, err)
	}
	if pending.Len() > 0 {
		return nil, errors.New(ErrCodeIO,
			fmt.Sprintf("invalid Properties document: line %d ends with a continuation", lineNum))
	}
	return Unflatten(entries), nil
}

// continues reports whether line ends with an odd number of backslashes.
func continues(line string) bool {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// splitProperty splits at the first unescaped '=' or ':'. A line without a
// separator is a key with an empty value.
func splitProperty(line string) (string, string) {
	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case '=', ':':
			return trimPropertyKey(line[:i]), strings.TrimLeftFunc(line[i+1:], unicode.IsSpace)
		}
	}
	return trimPropertyKey(line), ""
}

// trimPropertyKey trims blanks around a raw key but keeps an escaped
// trailing space.
func trimPropertyKey(raw string) string {
	key := strings.TrimSpace(raw)
	if continues(key) && len(key) < len(strings.TrimLeftFunc(raw, unicode.IsSpace)) {
		key += " "
	}
	return key
}

func unescapeProperty(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// validatePropertiesKey rejects keys holding control or non-printable
// characters.
func validatePropertiesKey(key string, lineNum int) error {
	if key == "" {
		return errors.New(ErrCodeIO,
			fmt.Sprintf("invalid Properties key at line %d: key cannot be empty", lineNum))
	}
	for _, char := range key {
		if char == '\x00' {
			return errors.New(ErrCodeIO,
				fmt.Sprintf("invalid Properties key at line %d: null byte not allowed in keys", lineNum))
		}
		if !unicode.IsPrint(char) {
			return errors.New(ErrCodeIO,
				fmt.Sprintf("invalid Properties key at line %d: non-printable character not allowed in keys", lineNum))
		}
	}
	return nil
}

func (propertiesCodec) Encode(root *Section) ([]byte, error) {
	entries, err := FlattenStrict(root)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	for _, e := range entries {
		buf.WriteString(escapePropertyKey(e.Path))
		buf.WriteByte('=')
		buf.WriteString(escapeProperty(e.Value.Text()))
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

var propertyEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
)

var propertyKeyEscaper = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
	"=", `\=`,
	":", `\:`,
	" ", `\ `,
)

// escapePropertyKey escapes separators and blanks so that a map key such as
// "team name" reads back as one key.
func escapePropertyKey(s string) string {
	s = propertyKeyEscaper.Replace(s)
	if s != "" && (s[0] == '#' || s[0] == '!') {
		s = `\` + s
	}
	return s
}

func escapeProperty(s string) string {
	s = propertyEscaper.Replace(s)
	if s != "" && s[0] == ' ' {
		s = `\` + s
	}
	return s
}
