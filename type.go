// type.go: Bidirectional conversion between Values and Go types
//
// A Type[T] knows how to turn a raw Value into a T (with the coercions flat
// formats need, such as numbers stored as text) and how to turn a T back
// into a Value. Types are stateless and may be shared between entries and
// configurations.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// KeyFunc renders an encoded map key as the string a section is keyed by.
type KeyFunc func(Value) string

// DefaultKeyFunc renders keys with their canonical text.
func DefaultKeyFunc(v Value) string { return v.Text() }

// Type converts between raw Values and T.
//
// Decode(Encode(x)) == x for every valid x, except for the one-directional
// coercions listed on each primitive type.
type Type[T any] interface {
	Decode(raw Value) (T, error)
	Encode(x T, key KeyFunc) Value
	Name() string
}

type funcType[T any] struct {
	name   string
	decode func(Value) (T, error)
	encode func(T, KeyFunc) Value
}

func (t *funcType[T]) Decode(raw Value) (T, error)   { return t.decode(raw) }
func (t *funcType[T]) Encode(x T, key KeyFunc) Value { return t.encode(x, key) }
func (t *funcType[T]) Name() string                  { return t.name }

// NewType builds a Type from a pair of functions. It is the extension point
// for application specific value types.
func NewType[T any](name string, decode func(Value) (T, error), encode func(T, KeyFunc) Value) Type[T] {
	return &funcType[T]{name: name, decode: decode, encode: encode}
}

func mismatch(expected string, raw Value) error {
	if !raw.IsValid() {
		return typeError("expected %s, got nothing", expected)
	}
	return typeError("expected %s, got %s %s", expected, raw.Kind(), raw)
}

func outOfRange(expected string, raw Value) error {
	return typeError("value %s out of range for %s", raw, expected)
}

// Primitive types.
//
// Accepted input kinds beyond the exact one:
//   - bool: integers (true when > 0) and the strings "true"/"false"
//   - int, long: any integral number within range and base-10 strings
//   - float: doubles and integers within float32 range, numeric strings
//   - double, big-decimal: every number and numeric strings
//   - big-integer: every integral number and base-10 strings
//   - string: every scalar, rendered canonically
//   - duration: Go duration strings and integers (nanoseconds)
var (
	BoolType       Type[bool]          = NewType("bool", decodeBool, func(b bool, _ KeyFunc) Value { return BoolValue(b) })
	IntType        Type[int32]         = NewType("int", decodeInt32, func(i int32, _ KeyFunc) Value { return IntValue(i) })
	LongType       Type[int64]         = NewType("long", decodeInt64, func(i int64, _ KeyFunc) Value { return LongValue(i) })
	FloatType      Type[float32]       = NewType("float", decodeFloat32, func(f float32, _ KeyFunc) Value { return FloatValue(f) })
	DoubleType     Type[float64]       = NewType("double", decodeFloat64, func(f float64, _ KeyFunc) Value { return DoubleValue(f) })
	BigIntType     Type[*big.Int]      = NewType("big-integer", decodeBigInt, func(b *big.Int, _ KeyFunc) Value { return BigIntValue(b) })
	BigDecimalType Type[*apd.Decimal]  = NewType("big-decimal", decodeDecimal, func(d *apd.Decimal, _ KeyFunc) Value { return DecimalValue(d) })
	StringType     Type[string]        = NewType("string", decodeString, func(s string, _ KeyFunc) Value { return StringValue(s) })
	DurationType   Type[time.Duration] = NewType("duration", decodeDuration, func(d time.Duration, _ KeyFunc) Value { return StringValue(d.String()) })
)

func decodeBool(raw Value) (bool, error) {
	switch raw.Kind() {
	case KindBool:
		return raw.Bool(), nil
	case KindInt, KindLong:
		return raw.Long() > 0, nil
	case KindBigInt:
		return raw.big.Sign() > 0, nil
	case KindString:
		switch strings.ToLower(strings.TrimSpace(raw.Str())) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, mismatch("bool", raw)
}

// integral extracts an integer from any numeric or textual kind.
func integral(expected string, raw Value) (*big.Int, error) {
	switch raw.Kind() {
	case KindInt, KindLong:
		return big.NewInt(raw.Long()), nil
	case KindBigInt:
		return raw.BigInt(), nil
	case KindFloat, KindDouble:
		f := raw.Double()
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return nil, mismatch(expected, raw)
		}
		b, _ := new(big.Float).SetFloat64(f).Int(nil)
		return b, nil
	case KindBigDecimal:
		return decimalIntegral(expected, raw)
	case KindString:
		b, ok := new(big.Int).SetString(strings.TrimSpace(raw.Str()), 10)
		if !ok {
			return nil, mismatch(expected, raw)
		}
		return b, nil
	}
	return nil, mismatch(expected, raw)
}

func decimalIntegral(expected string, raw Value) (*big.Int, error) {
	d := raw.Decimal()
	if d.Form != apd.Finite {
		return nil, mismatch(expected, raw)
	}
	var integ, frac apd.Decimal
	d.Modf(&integ, &frac)
	if !frac.IsZero() {
		return nil, mismatch(expected, raw)
	}
	b, ok := new(big.Int).SetString(integ.Text('f'), 10)
	if !ok {
		return nil, mismatch(expected, raw)
	}
	return b, nil
}

func decodeInt32(raw Value) (int32, error) {
	if raw.Kind() == KindInt {
		return raw.Int(), nil
	}
	i, err := decodeIntRange("int", raw, math.MinInt32, math.MaxInt32)
	return int32(i), err
}

func decodeInt64(raw Value) (int64, error) {
	if raw.Kind() == KindInt || raw.Kind() == KindLong {
		return raw.Long(), nil
	}
	return decodeIntRange("long", raw, math.MinInt64, math.MaxInt64)
}

func decodeIntRange(expected string, raw Value, lo, hi int64) (int64, error) {
	b, err := integral(expected, raw)
	if err != nil {
		return 0, err
	}
	if !b.IsInt64() || b.Int64() < lo || b.Int64() > hi {
		return 0, outOfRange(expected, raw)
	}
	return b.Int64(), nil
}

func decodeUintRange(expected string, raw Value, hi uint64) (uint64, error) {
	b, err := integral(expected, raw)
	if err != nil {
		return 0, err
	}
	if !b.IsUint64() || b.Uint64() > hi {
		return 0, outOfRange(expected, raw)
	}
	return b.Uint64(), nil
}

func decodeFloat32(raw Value) (float32, error) {
	if raw.Kind() == KindFloat {
		return raw.Float(), nil
	}
	f, err := numeric("float", raw)
	if err != nil {
		return 0, err
	}
	if !math.IsInf(f, 0) && !math.IsNaN(f) && math.Abs(f) > math.MaxFloat32 {
		return 0, outOfRange("float", raw)
	}
	return float32(f), nil
}

func decodeFloat64(raw Value) (float64, error) {
	return numeric("double", raw)
}

func numeric(expected string, raw Value) (float64, error) {
	switch raw.Kind() {
	case KindFloat, KindDouble:
		return raw.Double(), nil
	case KindInt, KindLong:
		return float64(raw.Long()), nil
	case KindBigInt:
		f, _ := new(big.Float).SetInt(raw.big).Float64()
		if math.IsInf(f, 0) {
			return 0, outOfRange(expected, raw)
		}
		return f, nil
	case KindBigDecimal:
		f, err := raw.dec.Float64()
		if err != nil || math.IsInf(f, 0) {
			return 0, outOfRange(expected, raw)
		}
		return f, nil
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw.Str()), 64)
		if err != nil {
			return 0, mismatch(expected, raw)
		}
		return f, nil
	}
	return 0, mismatch(expected, raw)
}

func decodeBigInt(raw Value) (*big.Int, error) {
	return integral("big-integer", raw)
}

func decodeDecimal(raw Value) (*apd.Decimal, error) {
	switch raw.Kind() {
	case KindBigDecimal:
		return raw.Decimal(), nil
	case KindInt, KindLong:
		return apd.New(raw.Long(), 0), nil
	case KindBigInt:
		return apd.NewWithBigInt(new(apd.BigInt).SetMathBigInt(raw.big), 0), nil
	case KindFloat, KindDouble:
		d, err := new(apd.Decimal).SetFloat64(raw.Double())
		if err != nil {
			return nil, mismatch("big-decimal", raw)
		}
		return d, nil
	case KindString:
		d, _, err := apd.NewFromString(strings.TrimSpace(raw.Str()))
		if err != nil {
			return nil, mismatch("big-decimal", raw)
		}
		return d, nil
	}
	return nil, mismatch("big-decimal", raw)
}

func decodeString(raw Value) (string, error) {
	if raw.Kind().IsScalar() {
		return raw.Text(), nil
	}
	return "", mismatch("string", raw)
}

func decodeDuration(raw Value) (time.Duration, error) {
	switch raw.Kind() {
	case KindString:
		d, err := time.ParseDuration(strings.TrimSpace(raw.Str()))
		if err != nil {
			return 0, mismatch("duration", raw)
		}
		return d, nil
	case KindInt, KindLong:
		return time.Duration(raw.Long()), nil
	}
	return 0, mismatch("duration", raw)
}
