// codec_json.go: JSON codec
//
// Decoding walks the document with gjson so object keys keep their document
// order and numbers keep their literal precision. Encoding writes compact
// JSON in section order and indents it with tidwall/pretty.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/agilira/go-errors"
	"github.com/cockroachdb/apd/v3"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

type jsonCodec struct{}

func (jsonCodec) Supports(format ConfigFormat) bool { return format == FormatJSON }
func (jsonCodec) Name() string                      { return "json" }

func (jsonCodec) Decode(data []byte) (*Section, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return NewSection(), nil
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.New(ErrCodeIO, "invalid JSON document").WithContext("format", FormatJSON.String())
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return nil, errors.New(ErrCodeIO, "JSON document root must be an object").WithContext("format", FormatJSON.String())
	}
	v, err := jsonValue(doc)
	if err != nil {
		return nil, decodeError(FormatJSON, err)
	}
	return v.Section(), nil
}

func jsonValue(r gjson.Result) (Value, error) {
	switch r.Type {
	case gjson.Null:
		return Value{}, nil
	case gjson.True:
		return BoolValue(true), nil
	case gjson.False:
		return BoolValue(false), nil
	case gjson.String:
		return StringValue(r.Str), nil
	case gjson.Number:
		if v, ok := NumberValue(r.Raw); ok {
			return v, nil
		}
		return DoubleValue(r.Num), nil
	}
	if r.IsArray() {
		var items []Value
		var failure error
		r.ForEach(func(_, item gjson.Result) bool {
			v, err := jsonValue(item)
			if err != nil {
				failure = err
				return false
			}
			if v.IsValid() {
				items = append(items, v)
			}
			return true
		})
		return Value{kind: KindList, list: items}, failure
	}
	sec := NewSection()
	var failure error
	r.ForEach(func(key, item gjson.Result) bool {
		v, err := jsonValue(item)
		if err != nil {
			failure = err
			return false
		}
		if v.IsValid() {
			sec.Set(key.Str, v)
		}
		return true
	})
	return SectionValue(sec), failure
}

func (jsonCodec) Encode(root *Section) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, SectionValue(root)); err != nil {
		return nil, errors.Wrap(err, ErrCodeIO, "cannot encode JSON document")
	}
	return pretty.Pretty(buf.Bytes()), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch v.Kind() {
	case KindBool, KindInt, KindLong, KindBigInt:
		buf.WriteString(v.Text())
	case KindBigDecimal:
		// JSON has no NaN or Infinity literal.
		if v.Decimal().Form != apd.Finite {
			return writeJSONString(buf, v.Text())
		}
		buf.WriteString(v.Text())
	case KindFloat, KindDouble:
		if math.IsNaN(v.Double()) || math.IsInf(v.Double(), 0) {
			return writeJSONString(buf, v.Text())
		}
		buf.WriteString(v.Text())
	case KindString:
		return writeJSONString(buf, v.Str())
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.List() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindSection:
		buf.WriteByte('{')
		first := true
		var failure error
		v.Section().Each(func(key string, item Value) bool {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if failure = writeJSONString(buf, key); failure != nil {
				return false
			}
			buf.WriteByte(':')
			failure = writeJSON(buf, item)
			return failure == nil
		})
		if failure != nil {
			return failure
		}
		buf.WriteByte('}')
	default:
		buf.WriteString("null")
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}
