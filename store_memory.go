// store_memory.go: In-memory store
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import "sync"

// MemoryStore keeps the tree in memory. It counts saves and can be told to
// fail, which makes it the store of choice in tests.
type MemoryStore struct {
	mu      sync.Mutex
	name    string
	root    *Section
	saves   int
	closes  int
	loadErr error
	saveErr error
}

// NewMemoryStore creates a store holding a copy of root. A nil root starts
// empty.
func NewMemoryStore(name string, root *Section) *MemoryStore {
	if root == nil {
		root = NewSection()
	}
	if name == "" {
		name = "memory"
	}
	return &MemoryStore{name: name, root: root.Clone()}
}

func (m *MemoryStore) Name() string { return m.name }

func (m *MemoryStore) Load() (*Section, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.root.Clone(), nil
}

func (m *MemoryStore) Save(root *Section) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.root = root.Clone()
	m.saves++
	return nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

// Root returns a copy of the stored tree.
func (m *MemoryStore) Root() *Section {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.root.Clone()
}

// Put replaces the stored tree, as an external edit would.
func (m *MemoryStore) Put(root *Section) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.root = root.Clone()
}

// Saves returns how many times Save succeeded.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Closes returns how many times Close was called.
func (m *MemoryStore) Closes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

// FailLoad makes subsequent loads fail with err. A nil err restores normal
// behavior.
func (m *MemoryStore) FailLoad(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// FailSave makes subsequent saves fail with err. A nil err restores normal
// behavior.
func (m *MemoryStore) FailSave(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}
