// configuration.go: Configuration lifecycle over a store
//
// A Configuration ties a Registry of entries to a Store and moves through
// Unloaded -> Loaded -> Closed. Load populates entries from the store, Write
// persists modified entries, Strip sweeps values no entry owns. Every
// mutating step works on a copy of the tree and only adopts it once the store
// has accepted it, so a failed store call leaves the configuration as it was.
//
// A Configuration is not safe for concurrent use.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"fmt"

	"github.com/agilira/go-errors"
	"github.com/rs/zerolog"
)

// State is the lifecycle state of a Configuration.
type State int

const (
	StateUnloaded State = iota
	StateLoaded
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoaded:
		return "loaded"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Store persists a configuration tree. Load returns the whole tree (an empty
// section when nothing is stored yet), Save replaces it. Close releases any
// resource acquired by Load and must be safe to call more than once; a
// closed store may be loaded again.
type Store interface {
	Name() string
	Load() (*Section, error)
	Save(root *Section) error
	Close() error
}

// Configuration is a set of typed entries backed by a store.
type Configuration struct {
	store    Store
	registry *Registry
	opts     Options
	log      zerolog.Logger
	audit    *AuditLogger
	ownAudit bool
	state    State
	tree     *Section
}

// New creates an unloaded configuration over store.
func New(store Store, opts Options) (*Configuration, error) {
	if store == nil {
		return nil, errors.New(ErrCodeInvalidOptions, "store must not be nil")
	}
	opts = opts.WithDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	c := &Configuration{
		store:    store,
		registry: NewRegistry(),
		opts:     opts,
		log:      opts.Logger.With().Str("store", store.Name()).Logger(),
		audit:    opts.Audit,
	}
	if c.audit == nil && opts.AuditConfig.Enabled {
		audit, err := NewAuditLogger(opts.AuditConfig)
		if err != nil {
			return nil, err
		}
		c.audit = audit
		c.ownAudit = true
	}
	return c, nil
}

// Registry returns the registry entries are registered against.
func (c *Configuration) Registry() *Registry { return c.registry }

// State returns the current lifecycle state.
func (c *Configuration) State() State { return c.state }

// StoreName returns the name of the underlying store.
func (c *Configuration) StoreName() string { return c.store.Name() }

// Tree returns a copy of the tree as last loaded or persisted. It is nil
// unless the configuration is loaded.
func (c *Configuration) Tree() *Section {
	if c.tree == nil {
		return nil
	}
	return c.tree.Clone()
}

// Load reads the store and populates every entry. It is allowed from the
// unloaded and closed states. Nothing is changed when any entry fails to
// decode (unless a DecodeErrorHandler accepts the failure) or the store
// cannot be read.
func (c *Configuration) Load() error {
	if c.state == StateLoaded {
		return illegalState("load", c.state)
	}
	return c.load("load")
}

// Reload re-reads the store and repopulates every entry. Values set in
// memory but not written are discarded.
func (c *Configuration) Reload() error {
	if c.state != StateLoaded {
		return illegalState("reload", c.state)
	}
	return c.load("reload")
}

func (c *Configuration) load(op string) error {
	if c.audit == nil && c.opts.Audit == nil && c.opts.AuditConfig.Enabled {
		audit, err := NewAuditLogger(c.opts.AuditConfig)
		if err != nil {
			return err
		}
		c.audit = audit
		c.ownAudit = true
	}
	root, err := c.store.Load()
	if err != nil {
		return errors.Wrap(err, ErrCodeIO, fmt.Sprintf("cannot %s configuration from %s: %v", op, c.store.Name(), err)).
			WithContext("store", c.store.Name())
	}
	if root == nil {
		root = NewSection()
	}

	entries := c.registry.Entries()
	commits := make([]func(), 0, len(entries))
	missing := 0
	for _, e := range entries {
		raw, found := ReadAt(root, e.Path())
		if !found {
			missing++
			commits = append(commits, e.stageDefault())
			continue
		}
		commit, err := e.stage(raw)
		if err != nil {
			if c.opts.DecodeErrorHandler == nil {
				return err
			}
			if herr := c.opts.DecodeErrorHandler(e, raw, err); herr != nil {
				return herr
			}
			c.log.Warn().Str("path", e.Path()).Err(err).Msg("stored value rejected, using default")
			commits = append(commits, e.stageDefault())
			continue
		}
		commits = append(commits, commit)
	}
	for _, commit := range commits {
		commit()
	}
	c.tree = root
	c.state = StateLoaded
	c.registry.sealed = true

	c.log.Debug().Str("op", op).Int("entries", len(entries)).Int("missing", missing).Msg("configuration loaded")
	c.audit.Log(AuditInfo, "config_"+op, c.store.Name(), "", nil, nil, map[string]interface{}{
		"entries": len(entries),
		"missing": missing,
	})
	return nil
}

// Write persists every modified entry. Entries are re-validated, grafted
// into a copy of the loaded tree and the copy is handed to the store. When
// no entry is modified the store is not touched.
func (c *Configuration) Write() error {
	if c.state != StateLoaded {
		return illegalState("write", c.state)
	}
	dirty := c.registry.Modified()
	if len(dirty) == 0 {
		c.log.Debug().Msg("nothing to write")
		return nil
	}

	next := c.tree.Clone()
	written := make([]Value, len(dirty))
	for i, e := range dirty {
		v, err := e.valueToWrite(c.opts.KeyFunc)
		if err != nil {
			return err
		}
		written[i] = v
		WriteAt(next, e.Path(), v)
	}
	if err := c.store.Save(next); err != nil {
		return errors.Wrap(err, ErrCodeIO, fmt.Sprintf("cannot write configuration to %s: %v", c.store.Name(), err)).
			WithContext("store", c.store.Name())
	}

	previous := c.tree
	c.tree = next
	for i, e := range dirty {
		e.markClean()
		old, _ := ReadAt(previous, e.Path())
		c.audit.Log(AuditCritical, "entry_write", c.store.Name(), e.Path(), auditValue(old), auditValue(written[i]), nil)
	}
	c.log.Debug().Int("entries", len(dirty)).Msg("configuration written")
	return nil
}

// Strip removes from the store every value that no registered entry owns
// and every section left empty. It saves only when something was removed
// and reports whether it did.
func (c *Configuration) Strip() (bool, error) {
	if c.state != StateLoaded {
		return false, illegalState("strip", c.state)
	}
	next := c.tree.Clone()
	removed := Strip(next, c.registry.IsLive)
	if len(removed) == 0 {
		c.log.Debug().Msg("nothing to strip")
		return false, nil
	}
	if err := c.store.Save(next); err != nil {
		return false, errors.Wrap(err, ErrCodeIO, fmt.Sprintf("cannot write stripped configuration to %s: %v", c.store.Name(), err)).
			WithContext("store", c.store.Name())
	}
	c.tree = next
	c.log.Debug().Strs("removed", removed).Msg("configuration stripped")
	c.audit.Log(AuditWarn, "config_strip", c.store.Name(), "", nil, nil, map[string]interface{}{
		"removed": removed,
	})
	return true, nil
}

// Close releases the store. Entries and the registry survive and a later
// Load is allowed. Closing twice is a no-op.
func (c *Configuration) Close() error {
	if c.state == StateClosed {
		return nil
	}
	err := c.store.Close()
	c.state = StateClosed
	c.registry.sealed = false
	c.tree = nil
	c.audit.Log(AuditInfo, "config_close", c.store.Name(), "", nil, nil, nil)
	if c.ownAudit {
		if aerr := c.audit.Close(); aerr != nil && err == nil {
			err = aerr
		}
		c.audit = nil
		c.ownAudit = false
	}
	if err != nil {
		if ErrorCode(err) == ErrCodeAudit {
			return err
		}
		return errors.Wrap(err, ErrCodeIO, fmt.Sprintf("cannot close %s: %v", c.store.Name(), err)).
			WithContext("store", c.store.Name())
	}
	c.log.Debug().Msg("configuration closed")
	return nil
}

func auditValue(v Value) interface{} {
	if !v.IsValid() {
		return nil
	}
	return v.Text()
}
