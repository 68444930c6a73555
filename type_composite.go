// type_composite.go: Types composed from other types
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"fmt"
	"sort"
	"strings"
)

// ListOf returns the type of ordered lists whose elements are of type elem.
// Decoding fails on the first element that fails. A string value is read as
// a comma separated list, which is how flat formats store lists.
func ListOf[E any](elem Type[E]) Type[[]E] {
	name := "list<" + elem.Name() + ">"
	return NewType(name,
		func(raw Value) ([]E, error) {
			var items []Value
			switch raw.Kind() {
			case KindList:
				items = raw.List()
			case KindString:
				items = splitList(raw.Str())
			default:
				return nil, mismatch(name, raw)
			}
			out := make([]E, 0, len(items))
			for i, item := range items {
				x, err := elem.Decode(item)
				if err != nil {
					return nil, qualify(err, fmt.Sprintf("[%d]", i))
				}
				out = append(out, x)
			}
			return out, nil
		},
		func(xs []E, key KeyFunc) Value {
			items := make([]Value, len(xs))
			for i, x := range xs {
				items[i] = elem.Encode(x, key)
			}
			return Value{kind: KindList, list: items}
		})
}

func splitList(s string) []Value {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]Value, len(parts))
	for i, p := range parts {
		out[i] = StringValue(strings.TrimSpace(p))
	}
	return out
}

// MapOf returns the type of maps read from sections. Section keys are decoded
// with key (from their string form) and values with val. Encoded maps are
// written in the lexical order of their rendered keys.
func MapOf[K comparable, V any](key Type[K], val Type[V]) Type[map[K]V] {
	name := "map<" + key.Name() + "," + val.Name() + ">"
	return NewType(name,
		func(raw Value) (map[K]V, error) {
			if raw.Kind() != KindSection {
				return nil, mismatch(name, raw)
			}
			sec := raw.Section()
			out := make(map[K]V, sec.Len())
			var failure error
			sec.Each(func(k string, item Value) bool {
				mk, err := key.Decode(StringValue(k))
				if err != nil {
					failure = qualify(err, fmt.Sprintf("key %q", k))
					return false
				}
				mv, err := val.Decode(item)
				if err != nil {
					failure = qualify(err, k)
					return false
				}
				out[mk] = mv
				return true
			})
			if failure != nil {
				return nil, failure
			}
			return out, nil
		},
		func(m map[K]V, keyFn KeyFunc) Value {
			if keyFn == nil {
				keyFn = DefaultKeyFunc
			}
			type pair struct {
				name string
				val  Value
			}
			pairs := make([]pair, 0, len(m))
			for k, v := range m {
				pairs = append(pairs, pair{name: keyFn(key.Encode(k, keyFn)), val: val.Encode(v, keyFn)})
			}
			sort.Slice(pairs, func(i, j int) bool { return pairs[i].name < pairs[j].name })
			sec := NewSection()
			for _, p := range pairs {
				sec.Set(p.name, p.val)
			}
			return SectionValue(sec)
		})
}

// Variant is implemented by enumeration types. String returns the variant
// name used in configuration files.
type Variant interface {
	comparable
	fmt.Stringer
}

// EnumOf returns a type accepting exactly the names of the given variants,
// compared case-sensitively.
func EnumOf[T Variant](name string, variants ...T) Type[T] {
	byName := make(map[string]T, len(variants))
	names := make([]string, 0, len(variants))
	for _, v := range variants {
		n := v.String()
		if _, dup := byName[n]; dup {
			continue
		}
		byName[n] = v
		names = append(names, n)
	}
	return NewType(name,
		func(raw Value) (T, error) {
			var zero T
			if raw.Kind() != KindString {
				return zero, mismatch(name, raw)
			}
			v, ok := byName[raw.Str()]
			if !ok {
				return zero, typeError("no such variant %q for %s (expected one of %s)",
					raw.Str(), name, strings.Join(names, ", "))
			}
			return v, nil
		},
		func(x T, _ KeyFunc) Value { return StringValue(x.String()) })
}

// Validated wraps t so that decoded values must satisfy v. Encoding is
// unchanged.
func Validated[T any](t Type[T], v Validator[T]) Type[T] {
	if v == nil {
		return t
	}
	return NewType(t.Name(),
		func(raw Value) (T, error) {
			x, err := t.Decode(raw)
			if err != nil {
				return x, err
			}
			if err := v(x); err != nil {
				var zero T
				return zero, err
			}
			return x, nil
		},
		t.Encode)
}
