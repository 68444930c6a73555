// value.go: Format-neutral configuration values
//
// A Value is what a store hands to the typed layer and what the typed layer
// hands back: a scalar, an ordered list, or an insertion-ordered section.
// Stores never see Go types and types never see file formats.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	goerrors "errors"
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Kind identifies the payload carried by a Value.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBool
	KindInt    // 32-bit signed integer
	KindLong   // 64-bit signed integer
	KindFloat  // 32-bit float
	KindDouble // 64-bit float
	KindBigInt
	KindBigDecimal
	KindString
	KindList
	KindSection
)

var kindNames = [...]string{
	KindInvalid:    "invalid",
	KindBool:       "bool",
	KindInt:        "int",
	KindLong:       "long",
	KindFloat:      "float",
	KindDouble:     "double",
	KindBigInt:     "big-integer",
	KindBigDecimal: "big-decimal",
	KindString:     "string",
	KindList:       "list",
	KindSection:    "section",
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// IsNumeric reports whether the kind carries a number.
func (k Kind) IsNumeric() bool {
	return k >= KindInt && k <= KindBigDecimal
}

// IsScalar reports whether the kind is neither a list nor a section.
func (k Kind) IsScalar() bool {
	return k >= KindBool && k <= KindString
}

// Value is an untyped configuration value. The zero Value is invalid and
// stands for "absent".
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	big  *big.Int
	dec  *apd.Decimal
	s    string
	list []Value
	sec  *Section
	err  error // set on an invalid Value by an encoder that failed
}

// Scalar constructors
func BoolValue(b bool) Value      { return Value{kind: KindBool, b: b} }
func IntValue(i int32) Value      { return Value{kind: KindInt, i: int64(i)} }
func LongValue(i int64) Value     { return Value{kind: KindLong, i: i} }
func FloatValue(f float32) Value  { return Value{kind: KindFloat, f: float64(f)} }
func DoubleValue(f float64) Value { return Value{kind: KindDouble, f: f} }
func StringValue(s string) Value  { return Value{kind: KindString, s: s} }

// BigIntValue wraps a copy of b.
func BigIntValue(b *big.Int) Value {
	if b == nil {
		b = new(big.Int)
	}
	return Value{kind: KindBigInt, big: new(big.Int).Set(b)}
}

// DecimalValue wraps a copy of d.
func DecimalValue(d *apd.Decimal) Value {
	c := new(apd.Decimal)
	if d != nil {
		c.Set(d)
	}
	return Value{kind: KindBigDecimal, dec: c}
}

// EncodeFailure returns an invalid Value recording why a Go value could not
// be encoded. Types whose Encode can fail return it in place of the value;
// entries report it from SetValue and Write.
func EncodeFailure(err error) Value { return Value{err: err} }

// Err returns the first encoding failure recorded in v or, for lists and
// sections, in any value below it.
func (v Value) Err() error {
	switch v.kind {
	case KindInvalid:
		return v.err
	case KindList:
		for _, item := range v.list {
			if err := item.Err(); err != nil {
				return err
			}
		}
	case KindSection:
		var failure error
		v.sec.Each(func(_ string, item Value) bool {
			failure = item.Err()
			return failure == nil
		})
		return failure
	}
	return nil
}

// ListValue builds a list value from elements.
func ListValue(elems ...Value) Value {
	l := make([]Value, len(elems))
	copy(l, elems)
	return Value{kind: KindList, list: l}
}

// SectionValue wraps a section. A nil section becomes an empty one.
func SectionValue(s *Section) Value {
	if s == nil {
		s = NewSection()
	}
	return Value{kind: KindSection, sec: s}
}

// NumberValue parses a numeric literal into the narrowest integer kind that
// holds it (int, long, big-integer) or a double for fractional literals.
func NumberValue(text string) (Value, bool) {
	if text == "" {
		return Value{}, false
	}
	if i, err := strconv.ParseInt(text, 10, 64); err == nil {
		if i >= math.MinInt32 && i <= math.MaxInt32 {
			return IntValue(int32(i)), true
		}
		return LongValue(i), true
	}
	if b, ok := new(big.Int).SetString(text, 10); ok {
		return Value{kind: KindBigInt, big: b}, true
	}
	f, err := strconv.ParseFloat(text, 64)
	if err == nil {
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return Value{}, false // "inf" and "nan" are words here
		}
		return DoubleValue(f), true
	}
	if !goerrors.Is(err, strconv.ErrRange) || !math.IsInf(f, 0) {
		return Value{}, false
	}
	d, _, derr := apd.NewFromString(text)
	if derr != nil {
		return Value{}, false
	}
	return Value{kind: KindBigDecimal, dec: d}, true
}

// Kind returns the payload kind.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v carries a payload.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// Payload accessors. Each returns the zero value when v is of another kind.
func (v Value) Bool() bool        { return v.b }
func (v Value) Int() int32        { return int32(v.i) }
func (v Value) Long() int64       { return v.i }
func (v Value) Float() float32    { return float32(v.f) }
func (v Value) Double() float64   { return v.f }
func (v Value) Str() string       { return v.s }
func (v Value) Section() *Section { return v.sec }

// BigInt returns a copy of the big-integer payload.
func (v Value) BigInt() *big.Int {
	if v.big == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(v.big)
}

// Decimal returns a copy of the big-decimal payload.
func (v Value) Decimal() *apd.Decimal {
	d := new(apd.Decimal)
	if v.dec != nil {
		d.Set(v.dec)
	}
	return d
}

// List returns the list elements. The slice must not be modified.
func (v Value) List() []Value { return v.list }

// Text renders a scalar in its canonical, locale-independent form. Lists
// render as comma separated elements.
func (v Value) Text() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt, KindLong:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case KindDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBigInt:
		return v.big.String()
	case KindBigDecimal:
		return v.dec.Text('f')
	case KindString:
		return v.s
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.Text()
		}
		return strings.Join(parts, ",")
	case KindSection:
		return v.sec.String()
	}
	return ""
}

// String implements fmt.Stringer.
func (v Value) String() string {
	if v.kind == KindString {
		return strconv.Quote(v.s)
	}
	if v.kind == KindList {
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	if v.kind == KindInvalid {
		return "<absent>"
	}
	return v.Text()
}

// Clone returns a deep copy of v.
func (v Value) Clone() Value {
	switch v.kind {
	case KindBigInt:
		return BigIntValue(v.big)
	case KindBigDecimal:
		return DecimalValue(v.dec)
	case KindList:
		l := make([]Value, len(v.list))
		for i, e := range v.list {
			l[i] = e.Clone()
		}
		return Value{kind: KindList, list: l}
	case KindSection:
		return Value{kind: KindSection, sec: v.sec.Clone()}
	}
	return v
}

// Equal reports whether v and o have the same kind and payload. Sections
// compare by content irrespective of key order.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInvalid:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt, KindLong:
		return v.i == o.i
	case KindFloat, KindDouble:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindBigInt:
		return v.big.Cmp(o.big) == 0
	case KindBigDecimal:
		return v.dec.Cmp(o.dec) == 0
	case KindString:
		return v.s == o.s
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindSection:
		return v.sec.Equal(o.sec)
	}
	return false
}

// Section is an insertion-ordered string-keyed map of values. Replacing an
// existing key keeps its position.
type Section struct {
	keys   []string
	values map[string]Value
}

// NewSection returns an empty section.
func NewSection() *Section {
	return &Section{values: make(map[string]Value)}
}

// Len returns the number of keys.
func (s *Section) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}

// Get returns the value stored under key.
func (s *Section) Get(key string) (Value, bool) {
	if s == nil {
		return Value{}, false
	}
	v, ok := s.values[key]
	return v, ok
}

// Set stores v under key, replacing in place or appending.
func (s *Section) Set(key string, v Value) {
	if s.values == nil {
		s.values = make(map[string]Value)
	}
	if _, exists := s.values[key]; !exists {
		s.keys = append(s.keys, key)
	}
	s.values[key] = v
}

// Delete removes key and reports whether it was present.
func (s *Section) Delete(key string) bool {
	if s == nil {
		return false
	}
	if _, ok := s.values[key]; !ok {
		return false
	}
	delete(s.values, key)
	for i, k := range s.keys {
		if k == key {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the keys in insertion order.
func (s *Section) Keys() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.keys))
	copy(out, s.keys)
	return out
}

// Each calls fn for every key in insertion order until fn returns false.
func (s *Section) Each(fn func(key string, v Value) bool) {
	if s == nil {
		return
	}
	for _, k := range s.keys {
		if !fn(k, s.values[k]) {
			return
		}
	}
}

// Clone returns a deep copy of s.
func (s *Section) Clone() *Section {
	c := NewSection()
	if s == nil {
		return c
	}
	c.keys = make([]string, len(s.keys))
	copy(c.keys, s.keys)
	for k, v := range s.values {
		c.values[k] = v.Clone()
	}
	return c
}

// Equal compares two sections by content, ignoring key order.
func (s *Section) Equal(o *Section) bool {
	if s.Len() != o.Len() {
		return false
	}
	for _, k := range s.Keys() {
		ov, ok := o.Get(k)
		if !ok {
			return false
		}
		sv, _ := s.Get(k)
		if !sv.Equal(ov) {
			return false
		}
	}
	return true
}

// String renders the section for diagnostics.
func (s *Section) String() string {
	var b strings.Builder
	b.WriteByte('{')
	for i, k := range s.Keys() {
		if i > 0 {
			b.WriteString(", ")
		}
		v, _ := s.Get(k)
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v.String())
	}
	b.WriteByte('}')
	return b.String()
}

// SortedKeys returns the keys in lexical order.
func (s *Section) SortedKeys() []string {
	keys := s.Keys()
	sort.Strings(keys)
	return keys
}
