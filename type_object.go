// type_object.go: Object types declared property by property
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"fmt"

	"github.com/agilira/go-errors"
)

// Property describes one key of an object type. Build properties with Field
// and OptionalField.
type Property[T any] interface {
	Key() string
	Optional() bool
	decodeInto(raw Value, dst *T) error
	encodeFrom(src *T, key KeyFunc) (Value, bool)
}

type property[T, P any] struct {
	key      string
	typ      Type[P]
	optional bool
	get      func(*T) (P, bool)
	set      func(*T, P)
}

func (p *property[T, P]) Key() string    { return p.key }
func (p *property[T, P]) Optional() bool { return p.optional }

func (p *property[T, P]) decodeInto(raw Value, dst *T) error {
	x, err := p.typ.Decode(raw)
	if err != nil {
		return err
	}
	p.set(dst, x)
	return nil
}

func (p *property[T, P]) encodeFrom(src *T, key KeyFunc) (Value, bool) {
	x, present := p.get(src)
	if !present {
		return Value{}, false
	}
	return p.typ.Encode(x, key), true
}

// Field declares a required property stored under key.
func Field[T, P any](key string, typ Type[P], get func(*T) P, set func(*T, P)) Property[T] {
	return &property[T, P]{
		key: key,
		typ: typ,
		get: func(t *T) (P, bool) { return get(t), true },
		set: set,
	}
}

// OptionalField declares a property that may be absent. get reports whether
// the property is present; absent properties are not written.
func OptionalField[T, P any](key string, typ Type[P], get func(*T) (P, bool), set func(*T, P)) Property[T] {
	return &property[T, P]{key: key, typ: typ, optional: true, get: get, set: set}
}

// ObjectOf builds a type that reads T from a section, one property per key.
// Keys not declared by any property are ignored. Duplicate or empty keys
// are rejected.
func ObjectOf[T any](name string, props ...Property[T]) (Type[T], error) {
	seen := make(map[string]bool, len(props))
	for _, p := range props {
		if p.Key() == "" {
			return nil, errors.New(ErrCodeInvalidType, fmt.Sprintf("object %s declares a property with an empty key", name))
		}
		if seen[p.Key()] {
			return nil, errors.New(ErrCodeInvalidType, fmt.Sprintf("object %s declares property %q twice", name, p.Key())).
				WithContext("property", p.Key())
		}
		seen[p.Key()] = true
	}
	return NewType(name,
		func(raw Value) (T, error) {
			var out T
			if raw.Kind() != KindSection {
				return out, mismatch(name, raw)
			}
			sec := raw.Section()
			for _, p := range props {
				item, ok := sec.Get(p.Key())
				if !ok || !item.IsValid() {
					if p.Optional() {
						continue
					}
					var zero T
					return zero, typeError("%s: missing required property %q", name, p.Key())
				}
				if err := p.decodeInto(item, &out); err != nil {
					var zero T
					return zero, qualify(err, p.Key())
				}
			}
			return out, nil
		},
		func(x T, key KeyFunc) Value {
			sec := NewSection()
			for _, p := range props {
				if v, ok := p.encodeFrom(&x, key); ok {
					sec.Set(p.Key(), v)
				}
			}
			return SectionValue(sec)
		}), nil
}
