// tree.go: Dotted path access to nested sections
//
// The tree mapper is the only code that knows how a dotted path maps onto
// nested sections. Reads never fail (a missing node is "not found"), writes
// create the intermediate sections they need, and Strip sweeps every node
// that no live path reaches.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"fmt"
	"strings"

	"github.com/agilira/go-errors"
)

// SplitPath splits a dotted path into its segments.
func SplitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// JoinPath joins a prefix and a key with a dot.
func JoinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// ReadAt returns the value at path. A missing segment, or a non-section
// value where a section is needed, reports not found.
func ReadAt(root *Section, path string) (Value, bool) {
	segs := SplitPath(path)
	if len(segs) == 0 || root == nil {
		return Value{}, false
	}
	current := root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := current.Get(seg)
		if !ok || next.Kind() != KindSection {
			return Value{}, false
		}
		current = next.Section()
	}
	v, ok := current.Get(segs[len(segs)-1])
	if !ok || !v.IsValid() {
		return Value{}, false
	}
	return v, true
}

// WriteAt stores v at path, creating empty sections for missing
// intermediate segments. A non-section value found where a section is
// needed is replaced, in place, by a new section. Existing keys keep their
// position.
func WriteAt(root *Section, path string, v Value) {
	segs := SplitPath(path)
	if len(segs) == 0 {
		return
	}
	current := root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := current.Get(seg)
		if !ok || next.Kind() != KindSection {
			next = SectionValue(NewSection())
			current.Set(seg, next)
		}
		current = next.Section()
	}
	current.Set(segs[len(segs)-1], v)
}

// DeleteAt removes the value at path and then every section on the way
// that became empty. It reports whether a value was removed.
func DeleteAt(root *Section, path string) bool {
	return deleteSegments(root, SplitPath(path))
}

func deleteSegments(sec *Section, segs []string) bool {
	if len(segs) == 0 || sec == nil {
		return false
	}
	if len(segs) == 1 {
		return sec.Delete(segs[0])
	}
	next, ok := sec.Get(segs[0])
	if !ok || next.Kind() != KindSection {
		return false
	}
	if !deleteSegments(next.Section(), segs[1:]) {
		return false
	}
	if next.Section().Len() == 0 {
		sec.Delete(segs[0])
	}
	return true
}

// Paths returns the path of every non-section value in document order.
func Paths(root *Section) []string {
	var paths []string
	collectPaths(root, "", &paths)
	return paths
}

func collectPaths(sec *Section, prefix string, paths *[]string) {
	sec.Each(func(key string, v Value) bool {
		full := JoinPath(prefix, key)
		if v.Kind() == KindSection {
			collectPaths(v.Section(), full, paths)
		} else {
			*paths = append(*paths, full)
		}
		return true
	})
}

// Strip removes every value whose path is not live and every section left
// empty afterwards. A section whose own path is live is kept whole: it is
// the value of an entry. It returns the removed paths, empty when nothing
// changed.
func Strip(root *Section, live func(path string) bool) []string {
	var removed []string
	stripSection(root, "", live, &removed)
	return removed
}

func stripSection(sec *Section, prefix string, live func(string) bool, removed *[]string) {
	for _, key := range sec.Keys() {
		full := JoinPath(prefix, key)
		if live(full) {
			continue
		}
		v, _ := sec.Get(key)
		if v.Kind() == KindSection {
			stripSection(v.Section(), full, live, removed)
			if v.Section().Len() > 0 {
				continue
			}
		}
		sec.Delete(key)
		*removed = append(*removed, full)
	}
}

// FlatEntry is one leaf of a flattened tree.
type FlatEntry struct {
	Path  string
	Value Value
}

// Flatten lists the leaves of root in document order. Empty sections are
// dropped since flat formats cannot represent them.
func Flatten(root *Section) []FlatEntry {
	var out []FlatEntry
	var walk func(sec *Section, prefix string)
	walk = func(sec *Section, prefix string) {
		sec.Each(func(key string, v Value) bool {
			full := JoinPath(prefix, key)
			if v.Kind() == KindSection {
				walk(v.Section(), full)
			} else {
				out = append(out, FlatEntry{Path: full, Value: v})
			}
			return true
		})
	}
	walk(root, "")
	return out
}

// FlattenStrict is Flatten for formats that store a leaf under its full
// dotted key. A key that is empty or holds a dot, such as a map key
// "eu.west", would read back as a different tree, so it is rejected.
func FlattenStrict(root *Section) ([]FlatEntry, error) {
	var bad string
	var check func(sec *Section, prefix string)
	check = func(sec *Section, prefix string) {
		sec.Each(func(key string, v Value) bool {
			full := JoinPath(prefix, key)
			if key == "" || strings.ContainsRune(key, '.') {
				bad = full
				return false
			}
			if v.Kind() == KindSection {
				check(v.Section(), full)
			}
			return bad == ""
		})
	}
	check(root, "")
	if bad != "" {
		return nil, errors.New(ErrCodeIO,
			fmt.Sprintf("key %q cannot be stored in a flat format: keys must be non-empty and hold no dots", bad)).
			WithContext("path", bad)
	}
	return Flatten(root), nil
}

// validateFlatKey checks a key read from a flat format. Only empty segments
// are refused; segments are otherwise free-form since map keys may hold
// spaces and punctuation.
func validateFlatKey(key string) error {
	for _, seg := range strings.Split(key, ".") {
		if seg == "" {
			return errors.New(ErrCodeInvalidPath,
				fmt.Sprintf("invalid key %q: empty segment", key)).WithContext("path", key)
		}
	}
	return nil
}

// Unflatten rebuilds a tree from dotted keys.
func Unflatten(entries []FlatEntry) *Section {
	root := NewSection()
	for _, e := range entries {
		WriteAt(root, e.Path, e.Value)
	}
	return root
}
