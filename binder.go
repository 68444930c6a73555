// binder.go: Binding entries to plain variables
//
// A Binder registers entries and ties each one to a Go variable. Refresh
// copies entry values into the variables, typically after Load or Reload;
// Commit copies the variables back into the entries before Write.
//
//	var port int32
//	var hosts []string
//	b := carta.NewBinder(registry)
//	carta.Bind(b, &port, "server.port", "listen port", 8080, carta.IntType, carta.Range[int32](1, 65535))
//	carta.Bind(b, &hosts, "server.hosts", "upstreams", nil, carta.ListOf(carta.StringType))
//	if err := b.Err(); err != nil { ... }
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import "github.com/agilira/go-errors"

type binding interface {
	path() string
	refresh()
	// prepare checks the variable and returns the assignment to perform.
	prepare() (func() error, error)
}

type typedBinding[T any] struct {
	target *T
	entry  *Entry[T]
}

func (b *typedBinding[T]) path() string { return b.entry.Path() }

// refresh hands the variable its own copy, so edits made in place show up as
// changes on Commit.
func (b *typedBinding[T]) refresh() { *b.target = b.entry.Value() }

func (b *typedBinding[T]) prepare() (func() error, error) {
	raw, err := b.entry.encode(*b.target, DefaultKeyFunc)
	if err != nil {
		return nil, err
	}
	x, err := b.entry.decode(raw)
	if err != nil {
		return nil, err
	}
	return func() error { return b.entry.SetValue(x) }, nil
}

// Binder collects variable bindings. The first registration error is kept
// and makes later Bind calls no-ops.
type Binder struct {
	registry *Registry
	bindings []binding
	err      error
}

// NewBinder creates a binder that registers its entries in r.
func NewBinder(r *Registry) *Binder {
	return &Binder{registry: r, bindings: make([]binding, 0, 16)}
}

// Bind registers an entry at path and binds it to target, which is set to
// the entry's value right away.
func Bind[T any](b *Binder, target *T, path, description string, def T, typ Type[T], validators ...Validator[T]) *Binder {
	if b.err != nil {
		return b
	}
	if target == nil {
		b.err = errors.New(ErrCodeInvalidOptions, "bind target cannot be nil").WithContext("path", path)
		return b
	}
	entry, err := Register(b.registry, path, description, def, typ, validators...)
	if err != nil {
		b.err = err
		return b
	}
	tb := &typedBinding[T]{target: target, entry: entry}
	tb.refresh()
	b.bindings = append(b.bindings, tb)
	return b
}

// Err returns the first registration error.
func (b *Binder) Err() error { return b.err }

// Registry returns the registry the entries live in.
func (b *Binder) Registry() *Registry { return b.registry }

// Len returns the number of bindings.
func (b *Binder) Len() int { return len(b.bindings) }

// Refresh copies every entry value into its variable.
func (b *Binder) Refresh() {
	for _, bd := range b.bindings {
		bd.refresh()
	}
}

// Commit copies every variable into its entry. All variables are decoded
// and validated before any entry changes, so a failing variable leaves
// every entry untouched. Entries only become modified when their value
// actually changes.
func (b *Binder) Commit() error {
	if b.err != nil {
		return b.err
	}
	assigns := make([]func() error, 0, len(b.bindings))
	for _, bd := range b.bindings {
		assign, err := bd.prepare()
		if err != nil {
			return err
		}
		assigns = append(assigns, assign)
	}
	for i, assign := range assigns {
		if err := assign(); err != nil {
			return qualify(err, "commit "+b.bindings[i].path())
		}
	}
	return nil
}
