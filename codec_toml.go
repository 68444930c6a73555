// codec_toml.go: TOML codec
//
// go-toml decodes into maps, so section order is lost on the way in and
// tables are written with sorted keys on the way out.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"github.com/agilira/go-errors"
	"github.com/cockroachdb/apd/v3"
	"github.com/pelletier/go-toml/v2"
)

type tomlCodec struct{}

func (tomlCodec) Supports(format ConfigFormat) bool { return format == FormatTOML }
func (tomlCodec) Name() string                      { return "toml" }

func (tomlCodec) Decode(data []byte) (*Section, error) {
	var doc map[string]interface{}
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, decodeError(FormatTOML, err)
	}
	v, err := FromNative(doc)
	if err != nil {
		return nil, decodeError(FormatTOML, err)
	}
	if !v.IsValid() {
		return NewSection(), nil
	}
	return v.Section(), nil
}

func (tomlCodec) Encode(root *Section) ([]byte, error) {
	data, err := toml.Marshal(tomlNative(SectionValue(root)))
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeIO, "cannot encode TOML document")
	}
	return data, nil
}

// tomlNative is ToNative with arbitrary-precision numbers narrowed to what
// TOML can carry. Values that do not fit are written as strings.
func tomlNative(v Value) interface{} {
	switch v.Kind() {
	case KindBigInt:
		b := v.BigInt()
		if b.IsInt64() {
			return b.Int64()
		}
		return b.String()
	case KindBigDecimal:
		d := v.Decimal()
		f, err := d.Float64()
		if err == nil {
			var back apd.Decimal
			if _, err := back.SetFloat64(f); err == nil && back.Cmp(d) == 0 {
				return f
			}
		}
		return d.Text('f')
	case KindList:
		out := make([]interface{}, len(v.List()))
		for i, item := range v.List() {
			out[i] = tomlNative(item)
		}
		return out
	case KindSection:
		out := make(map[string]interface{}, v.Section().Len())
		v.Section().Each(func(k string, item Value) bool {
			out[k] = tomlNative(item)
			return true
		})
		return out
	}
	return ToNative(v)
}
