// codec_ini.go: INI codec
//
// Keys of the DEFAULT section map to top-level paths; every other section
// name is used as a dotted path prefix, so [database.pool] size=4 becomes
// database.pool.size. INI values carry no type, they decode as strings and
// the entry types coerce them.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"bytes"
	"strings"

	"github.com/agilira/go-errors"
	"github.com/go-ini/ini"
)

type iniCodec struct{}

func (iniCodec) Supports(format ConfigFormat) bool { return format == FormatINI }
func (iniCodec) Name() string                      { return "ini" }

func (iniCodec) Decode(data []byte) (*Section, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewSection(), nil
	}
	file, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return nil, decodeError(FormatINI, err)
	}
	var entries []FlatEntry
	for _, sec := range file.Sections() {
		prefix := sec.Name()
		if prefix == ini.DefaultSection {
			prefix = ""
		}
		for _, key := range sec.Keys() {
			path := JoinPath(prefix, key.Name())
			if err := validateFlatKey(path); err != nil {
				return nil, decodeError(FormatINI, err)
			}
			entries = append(entries, FlatEntry{Path: path, Value: StringValue(key.Value())})
		}
	}
	return Unflatten(entries), nil
}

func (iniCodec) Encode(root *Section) ([]byte, error) {
	entries, err := FlattenStrict(root)
	if err != nil {
		return nil, err
	}
	file := ini.Empty()
	for _, e := range entries {
		sectionName, key := "", e.Path
		if i := strings.LastIndexByte(e.Path, '.'); i >= 0 {
			sectionName, key = e.Path[:i], e.Path[i+1:]
		}
		if _, err := file.Section(sectionName).NewKey(key, e.Value.Text()); err != nil {
			return nil, errors.Wrap(err, ErrCodeIO, "cannot encode INI document").WithContext("path", e.Path)
		}
	}
	var buf bytes.Buffer
	if _, err := file.WriteTo(&buf); err != nil {
		return nil, errors.Wrap(err, ErrCodeIO, "cannot encode INI document")
	}
	return buf.Bytes(), nil
}
