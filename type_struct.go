// type_struct.go: Object types derived from Go structs
//
// StructBuilder walks a struct type with reflection and produces a Type for
// it. Field keys come from the `carta` tag (or the lower camel case field
// name), constraints from the `validate` tag. Types are cached per builder and
// recursive struct types are rejected when the type is built, not when a
// value is decoded.
//
//	type Server struct {
//	    Host    string        `carta:"host"`
//	    Port    int           `carta:"port" validate:"min=1,max=65535"`
//	    Timeout time.Duration `carta:"timeout,optional"`
//	}
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"encoding"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/agilira/go-errors"
	"github.com/cockroachdb/apd/v3"
)

// codec is the reflection level counterpart of Type.
type codec interface {
	decode(raw Value) (reflect.Value, error)
	encode(v reflect.Value, key KeyFunc) Value
}

// StructBuilder builds and caches struct types. It is not safe for
// concurrent use.
type StructBuilder struct {
	tags  *TagValidators
	cache map[reflect.Type]*structCodec
}

// NewStructBuilder returns a builder. tags may be nil, in which case
// `validate` tags are rejected.
func NewStructBuilder(tags *TagValidators) *StructBuilder {
	return &StructBuilder{tags: tags, cache: make(map[reflect.Type]*structCodec)}
}

// StructOf returns the object type of struct T.
func StructOf[T any](b *StructBuilder) (Type[T], error) {
	if b == nil {
		b = NewStructBuilder(nil)
	}
	t := reflect.TypeOf((*T)(nil)).Elem()
	if t.Kind() != reflect.Struct {
		return nil, errors.New(ErrCodeInvalidType, fmt.Sprintf("%s is not a struct type", t))
	}
	c, err := b.codecFor(t, make(map[reflect.Type]bool))
	if err != nil {
		return nil, err
	}
	return NewType(t.Name(),
		func(raw Value) (T, error) {
			rv, err := c.decode(raw)
			if err != nil {
				var zero T
				return zero, err
			}
			return rv.Interface().(T), nil
		},
		func(x T, key KeyFunc) Value {
			return c.encode(reflect.ValueOf(x), key)
		}), nil
}

var (
	durationType        = reflect.TypeOf(time.Duration(0))
	bigIntPtrType       = reflect.TypeOf((*big.Int)(nil))
	decimalPtrType      = reflect.TypeOf((*apd.Decimal)(nil))
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

func (b *StructBuilder) codecFor(t reflect.Type, visiting map[reflect.Type]bool) (codec, error) {
	switch t {
	case durationType:
		return typed(t, DurationType, func(v reflect.Value) time.Duration { return time.Duration(v.Int()) }), nil
	case bigIntPtrType:
		return typed(t, BigIntType, func(v reflect.Value) *big.Int { return v.Interface().(*big.Int) }), nil
	case decimalPtrType:
		return typed(t, BigDecimalType, func(v reflect.Value) *apd.Decimal { return v.Interface().(*apd.Decimal) }), nil
	}
	if t.Kind() != reflect.Pointer && t.Implements(textMarshalerType) && reflect.PointerTo(t).Implements(textUnmarshalerType) {
		return textCodec{t: t}, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return typed(t, BoolType, reflect.Value.Bool), nil
	case reflect.String:
		return typed(t, StringType, reflect.Value.String), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intCodec{t: t}, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return uintCodec{t: t}, nil
	case reflect.Float32:
		return typed(t, FloatType, func(v reflect.Value) float32 { return float32(v.Float()) }), nil
	case reflect.Float64:
		return typed(t, DoubleType, reflect.Value.Float), nil
	case reflect.Slice:
		elem, err := b.codecFor(t.Elem(), visiting)
		if err != nil {
			return nil, err
		}
		return sliceCodec{t: t, elem: elem}, nil
	case reflect.Map:
		key, err := b.codecFor(t.Key(), visiting)
		if err != nil {
			return nil, err
		}
		if !isScalarKind(t.Key().Kind()) {
			return nil, errors.New(ErrCodeInvalidType, fmt.Sprintf("map key type %s is not a scalar", t.Key()))
		}
		val, err := b.codecFor(t.Elem(), visiting)
		if err != nil {
			return nil, err
		}
		return mapCodec{t: t, key: key, val: val}, nil
	case reflect.Pointer:
		elem, err := b.codecFor(t.Elem(), visiting)
		if err != nil {
			return nil, err
		}
		return ptrCodec{t: t, elem: elem}, nil
	case reflect.Struct:
		c, err := b.structCodecFor(t, visiting)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, errors.New(ErrCodeInvalidType, fmt.Sprintf("unsupported field type %s", t))
}

func isScalarKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

type structField struct {
	index    int
	key      string
	optional bool
	codec    codec
	check    func(reflect.Value) error
}

type structCodec struct {
	t      reflect.Type
	fields []structField
}

func (b *StructBuilder) structCodecFor(t reflect.Type, visiting map[reflect.Type]bool) (*structCodec, error) {
	if c, ok := b.cache[t]; ok {
		return c, nil
	}
	if visiting[t] {
		return nil, errors.New(ErrCodeInvalidType, fmt.Sprintf("recursive type %s cannot be represented as a configuration value", t)).
			WithContext("type", t.String())
	}
	visiting[t] = true
	defer delete(visiting, t)

	c := &structCodec{t: t}
	seen := make(map[string]string)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key, optional, skip := parseFieldTag(f)
		if skip {
			continue
		}
		if other, dup := seen[key]; dup {
			return nil, errors.New(ErrCodeInvalidType, fmt.Sprintf("%s: fields %s and %s share key %q", t, other, f.Name, key))
		}
		seen[key] = f.Name

		fc, err := b.codecFor(f.Type, visiting)
		if err != nil {
			return nil, qualify(err, t.String()+"."+f.Name)
		}
		sf := structField{index: i, key: key, optional: optional || f.Type.Kind() == reflect.Pointer, codec: fc}
		if tag := f.Tag.Get("validate"); tag != "" {
			if b.tags == nil {
				return nil, errors.New(ErrCodeInvalidType, fmt.Sprintf("%s.%s has a validate tag but the builder has no tag validators", t, f.Name))
			}
			check, err := b.tags.compile(f.Type, tag)
			if err != nil {
				return nil, qualify(err, t.String()+"."+f.Name)
			}
			sf.check = check
		}
		c.fields = append(c.fields, sf)
	}
	b.cache[t] = c
	return c, nil
}

func parseFieldTag(f reflect.StructField) (key string, optional, skip bool) {
	tag := f.Tag.Get("carta")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	key = parts[0]
	if key == "" {
		r, size := utf8.DecodeRuneInString(f.Name)
		key = string(unicode.ToLower(r)) + f.Name[size:]
	}
	for _, opt := range parts[1:] {
		if opt == "optional" || opt == "omitempty" {
			optional = true
		}
	}
	return key, optional, false
}

func (c *structCodec) decode(raw Value) (reflect.Value, error) {
	out := reflect.New(c.t).Elem()
	if raw.Kind() != KindSection {
		return out, mismatch(c.t.Name(), raw)
	}
	sec := raw.Section()
	for _, f := range c.fields {
		item, ok := sec.Get(f.key)
		if !ok || !item.IsValid() {
			if f.optional {
				continue
			}
			return out, typeError("%s: missing required property %q", c.t.Name(), f.key)
		}
		v, err := f.codec.decode(item)
		if err != nil {
			return out, qualify(err, f.key)
		}
		if f.check != nil {
			if err := f.check(v); err != nil {
				return out, qualify(err, f.key)
			}
		}
		out.Field(f.index).Set(v)
	}
	return out, nil
}

func (c *structCodec) encode(v reflect.Value, key KeyFunc) Value {
	sec := NewSection()
	for _, f := range c.fields {
		fv := v.Field(f.index)
		if f.optional && fv.IsZero() {
			continue
		}
		sec.Set(f.key, f.codec.encode(fv, key))
	}
	return SectionValue(sec)
}

// typedCodec adapts a primitive Type to reflection.
type typedCodec[T any] struct {
	t   reflect.Type
	typ Type[T]
	get func(reflect.Value) T
}

func typed[T any](t reflect.Type, typ Type[T], get func(reflect.Value) T) codec {
	return typedCodec[T]{t: t, typ: typ, get: get}
}

func (c typedCodec[T]) decode(raw Value) (reflect.Value, error) {
	x, err := c.typ.Decode(raw)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(x).Convert(c.t), nil
}

func (c typedCodec[T]) encode(v reflect.Value, key KeyFunc) Value {
	return c.typ.Encode(c.get(v), key)
}

type intCodec struct{ t reflect.Type }

func (c intCodec) decode(raw Value) (reflect.Value, error) {
	bits := c.t.Bits()
	hi := int64(1)<<(bits-1) - 1
	lo := -hi - 1
	if bits == 64 {
		lo, hi = math.MinInt64, math.MaxInt64
	}
	i, err := decodeIntRange(c.t.String(), raw, lo, hi)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(c.t).Elem()
	out.SetInt(i)
	return out, nil
}

func (c intCodec) encode(v reflect.Value, _ KeyFunc) Value { return narrowInt(v.Int()) }

type uintCodec struct{ t reflect.Type }

func (c uintCodec) decode(raw Value) (reflect.Value, error) {
	hi := uint64(math.MaxUint64)
	if bits := c.t.Bits(); bits < 64 {
		hi = uint64(1)<<bits - 1
	}
	u, err := decodeUintRange(c.t.String(), raw, hi)
	if err != nil {
		return reflect.Value{}, err
	}
	out := reflect.New(c.t).Elem()
	out.SetUint(u)
	return out, nil
}

func (c uintCodec) encode(v reflect.Value, _ KeyFunc) Value { return fromUint(v.Uint()) }

type textCodec struct{ t reflect.Type }

func (c textCodec) decode(raw Value) (reflect.Value, error) {
	if raw.Kind() != KindString {
		return reflect.Value{}, mismatch(c.t.String(), raw)
	}
	ptr := reflect.New(c.t)
	if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(raw.Str())); err != nil {
		return reflect.Value{}, typeError("cannot read %q as %s: %v", raw.Str(), c.t, err)
	}
	return ptr.Elem(), nil
}

func (c textCodec) encode(v reflect.Value, _ KeyFunc) Value {
	text, err := v.Interface().(encoding.TextMarshaler).MarshalText()
	if err != nil {
		return EncodeFailure(typeError("cannot write %s as text: %v", c.t, err))
	}
	return StringValue(string(text))
}

type sliceCodec struct {
	t    reflect.Type
	elem codec
}

func (c sliceCodec) decode(raw Value) (reflect.Value, error) {
	var items []Value
	switch raw.Kind() {
	case KindList:
		items = raw.List()
	case KindString:
		items = splitList(raw.Str())
	default:
		return reflect.Value{}, mismatch(c.t.String(), raw)
	}
	out := reflect.MakeSlice(c.t, 0, len(items))
	for i, item := range items {
		v, err := c.elem.decode(item)
		if err != nil {
			return reflect.Value{}, qualify(err, fmt.Sprintf("[%d]", i))
		}
		out = reflect.Append(out, v)
	}
	return out, nil
}

func (c sliceCodec) encode(v reflect.Value, key KeyFunc) Value {
	items := make([]Value, v.Len())
	for i := range items {
		items[i] = c.elem.encode(v.Index(i), key)
	}
	return Value{kind: KindList, list: items}
}

type mapCodec struct {
	t        reflect.Type
	key, val codec
}

func (c mapCodec) decode(raw Value) (reflect.Value, error) {
	if raw.Kind() != KindSection {
		return reflect.Value{}, mismatch(c.t.String(), raw)
	}
	out := reflect.MakeMapWithSize(c.t, raw.Section().Len())
	var failure error
	raw.Section().Each(func(k string, item Value) bool {
		kv, err := c.key.decode(StringValue(k))
		if err != nil {
			failure = qualify(err, fmt.Sprintf("key %q", k))
			return false
		}
		vv, err := c.val.decode(item)
		if err != nil {
			failure = qualify(err, k)
			return false
		}
		out.SetMapIndex(kv, vv)
		return true
	})
	if failure != nil {
		return reflect.Value{}, failure
	}
	return out, nil
}

func (c mapCodec) encode(v reflect.Value, key KeyFunc) Value {
	if key == nil {
		key = DefaultKeyFunc
	}
	names := make([]string, 0, v.Len())
	values := make(map[string]Value, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		name := key(c.key.encode(iter.Key(), key))
		names = append(names, name)
		values[name] = c.val.encode(iter.Value(), key)
	}
	sort.Strings(names)
	sec := NewSection()
	for _, n := range names {
		sec.Set(n, values[n])
	}
	return SectionValue(sec)
}

type ptrCodec struct {
	t    reflect.Type
	elem codec
}

func (c ptrCodec) decode(raw Value) (reflect.Value, error) {
	v, err := c.elem.decode(raw)
	if err != nil {
		return reflect.Value{}, err
	}
	ptr := reflect.New(c.t.Elem())
	ptr.Elem().Set(v)
	return ptr, nil
}

func (c ptrCodec) encode(v reflect.Value, key KeyFunc) Value {
	if v.IsNil() {
		return Value{}
	}
	return c.elem.encode(v.Elem(), key)
}
