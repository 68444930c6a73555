// value_native.go: Conversion between Values and plain Go data
//
// Codecs built on map-based libraries (TOML, tests, CLI input) exchange
// interface{} trees; this file converts those trees to Values and back.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"time"

	"github.com/agilira/go-errors"
	"github.com/cockroachdb/apd/v3"
)

// FromNative converts plain Go data into a Value. Maps are converted with
// their keys sorted since Go maps carry no order. A nil input yields the
// invalid (absent) Value.
func FromNative(x interface{}) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Value{}, nil
	case Value:
		return t, nil
	case *Section:
		return SectionValue(t), nil
	case bool:
		return BoolValue(t), nil
	case int:
		return narrowInt(int64(t)), nil
	case int8:
		return IntValue(int32(t)), nil
	case int16:
		return IntValue(int32(t)), nil
	case int32:
		return IntValue(t), nil
	case int64:
		return narrowInt(t), nil
	case uint:
		return fromUint(uint64(t)), nil
	case uint8:
		return IntValue(int32(t)), nil
	case uint16:
		return IntValue(int32(t)), nil
	case uint32:
		return LongValue(int64(t)), nil
	case uint64:
		return fromUint(t), nil
	case float32:
		return FloatValue(t), nil
	case float64:
		return DoubleValue(t), nil
	case *big.Int:
		return BigIntValue(t), nil
	case *apd.Decimal:
		return DecimalValue(t), nil
	case string:
		return StringValue(t), nil
	case time.Duration:
		return StringValue(t.String()), nil
	case time.Time:
		return StringValue(t.Format(time.RFC3339Nano)), nil
	case []string:
		l := make([]Value, len(t))
		for i, s := range t {
			l[i] = StringValue(s)
		}
		return Value{kind: KindList, list: l}, nil
	case []interface{}:
		l := make([]Value, 0, len(t))
		for i, e := range t {
			v, err := FromNative(e)
			if err != nil {
				return Value{}, qualify(err, fmt.Sprintf("[%d]", i))
			}
			if v.IsValid() {
				l = append(l, v)
			}
		}
		return Value{kind: KindList, list: l}, nil
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sec := NewSection()
		for _, k := range keys {
			v, err := FromNative(t[k])
			if err != nil {
				return Value{}, qualify(err, k)
			}
			if v.IsValid() {
				sec.Set(k, v)
			}
		}
		return SectionValue(sec), nil
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[fmt.Sprint(k)] = e
		}
		return FromNative(m)
	case fmt.Stringer:
		return StringValue(t.String()), nil
	}
	return Value{}, errors.New(ErrCodeType, fmt.Sprintf("unsupported native value of type %T", x))
}

func narrowInt(i int64) Value {
	if i >= math.MinInt32 && i <= math.MaxInt32 {
		return IntValue(int32(i))
	}
	return LongValue(i)
}

func fromUint(u uint64) Value {
	if u <= math.MaxInt64 {
		return narrowInt(int64(u))
	}
	return BigIntValue(new(big.Int).SetUint64(u))
}

// ToNative converts a Value into plain Go data: bool, int64, float64,
// string, *big.Int, *apd.Decimal, []interface{} and map[string]interface{}.
func ToNative(v Value) interface{} {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt, KindLong:
		return v.i
	case KindFloat, KindDouble:
		return v.f
	case KindBigInt:
		return v.BigInt()
	case KindBigDecimal:
		return v.Decimal()
	case KindString:
		return v.s
	case KindList:
		out := make([]interface{}, len(v.list))
		for i, e := range v.list {
			out[i] = ToNative(e)
		}
		return out
	case KindSection:
		out := make(map[string]interface{}, v.sec.Len())
		v.sec.Each(func(k string, e Value) bool {
			out[k] = ToNative(e)
			return true
		})
		return out
	}
	return nil
}
