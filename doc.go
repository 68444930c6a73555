// Package carta provides typed configuration entries over heterogeneous
// configuration stores.
//
// Applications declare the settings they use as entries: a dotted path, a
// description, a default value, a type and optional validators. A
// Configuration then loads those entries from a store (a file in JSON, YAML,
// TOML, INI or properties format, an in-memory tree, or a remote document),
// tracks which ones changed, writes back only when something changed, and can
// strip values no entry owns.
//
// # Quick Start
//
//	store, err := carta.NewFileStore("service.yaml")
//	if err != nil {
//		return err
//	}
//	cfg, err := carta.New(store, carta.Options{})
//	if err != nil {
//		return err
//	}
//	defer cfg.Close()
//
//	port := carta.MustRegister(cfg.Registry(), "server.port", "listen port",
//		int32(8080), carta.IntType, carta.Range[int32](1, 65535))
//	hosts := carta.MustRegister(cfg.Registry(), "server.hosts", "upstreams",
//		[]string{"localhost"}, carta.ListOf(carta.StringType))
//
//	if err := cfg.Load(); err != nil {
//		return err
//	}
//	listen(port.Value(), hosts.Value())
//
//	// Values missing from the file took their defaults; persist them.
//	if err := cfg.Write(); err != nil {
//		return err
//	}
//
// # Values and Types
//
// Stores hold trees of Value: booleans, 32 and 64 bit integers, single and
// double precision floats, arbitrary precision integers and decimals,
// strings, lists and sections (ordered string-keyed maps). A Type[T] converts
// between a Value and a Go value. Decoding is lenient where formats differ:
// any integer kind decodes into an int if it fits, and numeric text decodes
// into numbers, so flat formats that only store strings work with every
// type.
//
// Composite types are built from simpler ones:
//
//	carta.ListOf(carta.StringType)                      // []string, or "a,b" in flat formats
//	carta.MapOf(carta.StringType, carta.IntType)        // map[string]int32
//	carta.EnumOf("level", Debug, Info, Warn)            // named constants
//	carta.Validated(carta.StringType, carta.NotEmpty()) // type plus validator
//	carta.StructOf[Server](carta.NewStructBuilder(nil)) // struct fields from `carta` tags
//
// StructOf maps struct fields through `carta` tags. A builder created with
// NewTagValidators also checks `validate` tags with go-playground/validator.
// Recursive struct types are rejected when the type is built.
//
// # Paths and the Registry
//
// Entry paths are dot separated segments of letters, digits, '_' and '-'. The
// registry keeps paths prefix-free: once server.port is registered, neither
// server nor server.port.tls can be. Each entry therefore owns exactly one
// subtree of the store.
//
// # Lifecycle
//
// A Configuration starts Unloaded, becomes Loaded on Load and ends Closed.
// Load and Reload are atomic: if any stored value fails to decode, no entry
// changes (unless Options.DecodeErrorHandler chooses a fallback). Write saves
// only when at least one entry is modified. Strip removes values that no
// registered entry owns and prunes sections left empty, then saves. Every
// store failure is reported with ErrCodeIO and leaves the in-memory state as
// it was.
//
// # Overlays and Bindings
//
// ApplyEnv and FlagOverlay override entries from environment variables and
// command-line flags. A Binder ties entries to plain Go variables.
//
// # Remote Stores
//
// OpenStore resolves a URL to a store. Plain paths and file:// URLs open file
// stores; other schemes are served by registered StoreProvider
// implementations, such as the MongoDB provider in providers/mongo.
//
// # Audit
//
// With Options.AuditConfig enabled, loads, writes and strips are recorded to
// a JSONL file or an SQLite database with tamper-evident checksums.
//
// # Errors
//
// Every error carries a go-errors code: ErrCodeInvalidPath, ErrCodeType,
// ErrCodeValidation, ErrCodeIllegalState and ErrCodeIO cover the core
// operations. Use HasCode or ErrorCode to branch on them.
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0
package carta
