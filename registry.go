// registry.go: Entry registration and path rules
//
// A Registry owns the entries of one configuration. Paths are dotted
// sequences of [A-Za-z0-9_-] segments, unique, and prefix-free: once "a.b"
// is registered neither "a" nor "a.b.c" can be, since one value cannot be
// both a leaf and a container.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"fmt"
	"sort"
	"strings"

	"github.com/agilira/go-errors"
)

// Registry is the set of entries of one configuration.
type Registry struct {
	byPath map[string]AnyEntry
	order  []AnyEntry
	sealed bool // set while the owning configuration is loaded
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byPath: make(map[string]AnyEntry)}
}

// Register creates an entry of type typ under path. The default must pass
// the validators; its normalized form (decoded from its own encoding)
// becomes the initial value. Entries are registered before the owning
// configuration is loaded; registering while it is loaded fails with
// ErrCodeIllegalState.
func Register[T any](r *Registry, path, description string, def T, typ Type[T], validators ...Validator[T]) (*Entry[T], error) {
	if r.sealed {
		return nil, errors.New(ErrCodeIllegalState,
			fmt.Sprintf("cannot register %q while the configuration is loaded", path)).
			WithContext("path", path)
	}
	if err := r.checkPath(path); err != nil {
		return nil, err
	}
	e, err := newEntry(path, description, def, typ, validators)
	if err != nil {
		return nil, err
	}
	r.byPath[path] = e
	r.order = append(r.order, e)
	return e, nil
}

// MustRegister is like Register but panics on error. Intended for package
// level entry declarations.
func MustRegister[T any](r *Registry, path, description string, def T, typ Type[T], validators ...Validator[T]) *Entry[T] {
	e, err := Register(r, path, description, def, typ, validators...)
	if err != nil {
		panic(err)
	}
	return e
}

// ValidatePath checks path syntax without touching any registry.
func ValidatePath(path string) error {
	if path == "" {
		return errors.New(ErrCodeInvalidPath, "path must not be empty")
	}
	for i, seg := range strings.Split(path, ".") {
		if seg == "" {
			return errors.New(ErrCodeInvalidPath, fmt.Sprintf("path %q has an empty segment at position %d", path, i)).
				WithContext("path", path)
		}
		for _, c := range seg {
			if !isPathChar(c) {
				return errors.New(ErrCodeInvalidPath, fmt.Sprintf("path %q contains invalid character %q", path, c)).
					WithContext("path", path)
			}
		}
	}
	return nil
}

func isPathChar(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '_' || c == '-'
}

func (r *Registry) checkPath(path string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if _, dup := r.byPath[path]; dup {
		return errors.New(ErrCodeInvalidPath, fmt.Sprintf("path %q is already registered", path)).
			WithContext("path", path)
	}
	for existing := range r.byPath {
		if strings.HasPrefix(path, existing+".") || strings.HasPrefix(existing, path+".") {
			return errors.New(ErrCodeInvalidPath, fmt.Sprintf("path %q conflicts with registered path %q", path, existing)).
				WithContext("path", path).
				WithContext("conflict", existing)
		}
	}
	return nil
}

// Lookup returns the entry registered under path.
func (r *Registry) Lookup(path string) (AnyEntry, bool) {
	e, ok := r.byPath[path]
	return e, ok
}

// LookupAs returns the entry registered under path if it holds a T.
func LookupAs[T any](r *Registry, path string) (*Entry[T], bool) {
	e, ok := r.byPath[path]
	if !ok {
		return nil, false
	}
	typed, ok := e.(*Entry[T])
	return typed, ok
}

// IsLive reports whether path is registered.
func (r *Registry) IsLive(path string) bool {
	_, ok := r.byPath[path]
	return ok
}

// Len returns the number of registered entries.
func (r *Registry) Len() int { return len(r.order) }

// Entries returns the entries in registration order.
func (r *Registry) Entries() []AnyEntry {
	out := make([]AnyEntry, len(r.order))
	copy(out, r.order)
	return out
}

// Paths returns the registered paths in lexical order.
func (r *Registry) Paths() []string {
	paths := make([]string, 0, len(r.byPath))
	for p := range r.byPath {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Modified returns the dirty entries in registration order.
func (r *Registry) Modified() []AnyEntry {
	var out []AnyEntry
	for _, e := range r.order {
		if e.IsModified() {
			out = append(out, e)
		}
	}
	return out
}

func (r *Registry) liveSet() map[string]bool {
	live := make(map[string]bool, len(r.byPath))
	for p := range r.byPath {
		live[p] = true
	}
	return live
}
