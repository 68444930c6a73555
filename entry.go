// entry.go: Typed configuration entries
//
// An Entry is one typed, defaulted, validated value addressed by a dotted
// path. It is the source of truth for that value: stores feed it on load and
// read it back on write, and the dirty flag records whether the in-memory
// value still has to be persisted.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

// Entry is a typed configuration value registered under a path.
type Entry[T any] struct {
	path        string
	description string
	typ         Type[T] // includes the entry's validators
	base        Type[T]
	def         T
	current     T
	dirty       bool
}

// AnyEntry is the type-erased view of an Entry used by configurations,
// overlays and tools that handle entries of mixed types.
type AnyEntry interface {
	Path() string
	Description() string
	TypeName() string
	IsModified() bool

	// Encoded returns the current value as a raw Value.
	Encoded(key KeyFunc) Value
	// EncodedDefault returns the default value as a raw Value.
	EncodedDefault(key KeyFunc) Value
	// SetRaw decodes raw and sets it as the current value. The entry becomes
	// dirty only when the value changes.
	SetRaw(raw Value) error

	stage(raw Value) (commit func(), err error)
	stageDefault() (commit func())
	valueToWrite(key KeyFunc) (Value, error)
	markClean()
}

func newEntry[T any](path, description string, def T, typ Type[T], validators []Validator[T]) (*Entry[T], error) {
	base := typ
	if len(validators) > 0 {
		typ = Validated(typ, Of(validators...))
	}
	enc := typ.Encode(def, DefaultKeyFunc)
	if err := enc.Err(); err != nil {
		return nil, qualify(err, "invalid default for "+path).WithContext("path", path)
	}
	current, err := typ.Decode(enc)
	if err != nil {
		return nil, qualify(err, "invalid default for "+path).WithContext("path", path)
	}
	return &Entry[T]{
		path:        path,
		description: description,
		typ:         typ,
		base:        base,
		def:         current,
		current:     current,
		dirty:       true,
	}, nil
}

// Path returns the dotted path the entry is registered under.
func (e *Entry[T]) Path() string { return e.path }

// Description returns the human readable description given at registration.
func (e *Entry[T]) Description() string { return e.description }

// TypeName returns the name of the entry's type.
func (e *Entry[T]) TypeName() string { return e.typ.Name() }

// Type returns the entry's type, validators included.
func (e *Entry[T]) Type() Type[T] { return e.typ }

// Value returns a copy of the current value. Modifying a returned slice,
// map or big number does not change the entry; use SetValue instead.
func (e *Entry[T]) Value() T { return e.copyOf(e.current) }

// DefaultValue returns a copy of the registered default.
func (e *Entry[T]) DefaultValue() T { return e.copyOf(e.def) }

// copyOf detaches x from the entry by decoding its encoded form. The
// validators are skipped: a copy is not a new value.
func (e *Entry[T]) copyOf(x T) T {
	c, err := e.base.Decode(e.base.Encode(x, DefaultKeyFunc))
	if err != nil {
		return x
	}
	return c
}

// IsModified reports whether the current value has not been persisted yet.
// Fresh entries are modified so that the first write materializes defaults.
func (e *Entry[T]) IsModified() bool { return e.dirty }

// SetValue validates x and makes it the current value. Setting a value equal
// to the current one is a no-op and leaves the dirty flag untouched.
func (e *Entry[T]) SetValue(x T) error {
	raw, err := e.encode(x, DefaultKeyFunc)
	if err != nil {
		return err
	}
	return e.SetRaw(raw)
}

// Reset restores the default value.
func (e *Entry[T]) Reset() error {
	return e.SetValue(e.def)
}

func (e *Entry[T]) Encoded(key KeyFunc) Value {
	return e.typ.Encode(e.current, orDefaultKey(key))
}

func (e *Entry[T]) EncodedDefault(key KeyFunc) Value {
	return e.typ.Encode(e.def, orDefaultKey(key))
}

func (e *Entry[T]) SetRaw(raw Value) error {
	x, err := e.decode(raw)
	if err != nil {
		return err
	}
	if e.typ.Encode(x, DefaultKeyFunc).Equal(e.typ.Encode(e.current, DefaultKeyFunc)) {
		return nil
	}
	e.current = x
	e.dirty = true
	return nil
}

// encode renders x and reports a failure the type recorded in the result.
func (e *Entry[T]) encode(x T, key KeyFunc) (Value, error) {
	v := e.typ.Encode(x, orDefaultKey(key))
	if err := v.Err(); err != nil {
		return Value{}, qualify(err, e.path).WithContext("path", e.path)
	}
	return v, nil
}

func (e *Entry[T]) decode(raw Value) (T, error) {
	x, err := e.typ.Decode(raw)
	if err != nil {
		var zero T
		return zero, qualify(err, e.path).WithContext("path", e.path)
	}
	return x, nil
}

// stage decodes a value read from a store. The returned commit sets it as
// the current, persisted value.
func (e *Entry[T]) stage(raw Value) (func(), error) {
	x, err := e.decode(raw)
	if err != nil {
		return nil, err
	}
	return func() {
		e.current = x
		e.dirty = false
	}, nil
}

// stageDefault prepares a reset to the default for an entry the store had no
// usable value for. The entry stays dirty so the default gets written.
func (e *Entry[T]) stageDefault() func() {
	return func() {
		e.current = e.def
		e.dirty = true
	}
}

// valueToWrite re-validates the current value and encodes it for a store.
func (e *Entry[T]) valueToWrite(key KeyFunc) (Value, error) {
	raw, err := e.encode(e.current, DefaultKeyFunc)
	if err != nil {
		return Value{}, err
	}
	if _, err := e.decode(raw); err != nil {
		return Value{}, err
	}
	return e.encode(e.current, key)
}

func (e *Entry[T]) markClean() { e.dirty = false }

func orDefaultKey(key KeyFunc) KeyFunc {
	if key == nil {
		return DefaultKeyFunc
	}
	return key
}
