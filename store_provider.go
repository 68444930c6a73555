// store_provider.go: Store providers selected by URL scheme
//
// Stores other than plain files are opened through providers registered by
// URL scheme, usually from an init function in the provider package:
//
//	import _ "github.com/agilira/carta/providers/mongo" // registers mongodb://
//
//	store, err := carta.OpenStore("mongodb://localhost:27017/app/settings/main")
//	store, err := carta.OpenStore("config/app.yaml")
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/agilira/go-errors"
)

// StoreProvider opens stores for one URL scheme.
type StoreProvider interface {
	// Name returns a human-readable name for this provider.
	Name() string

	// Scheme returns the URL scheme this provider handles, e.g. "mongodb".
	Scheme() string

	// Validate checks that the provider can handle storeURL.
	Validate(storeURL string) error

	// Open connects to the store described by storeURL.
	Open(ctx context.Context, storeURL string) (Store, error)
}

// StoreOptions controls how OpenStoreWithContext connects.
type StoreOptions struct {
	// Timeout bounds the open. Zero leaves only the caller's context.
	Timeout time.Duration
}

// DefaultStoreOptions returns the options used by OpenStore.
func DefaultStoreOptions() *StoreOptions {
	return &StoreOptions{Timeout: 30 * time.Second}
}

var (
	storeProviders []StoreProvider
	providerMutex  sync.RWMutex
)

// RegisterStoreProvider registers a provider. Duplicate schemes are
// rejected, as is the reserved "file" scheme.
func RegisterStoreProvider(provider StoreProvider) error {
	if provider == nil {
		return errors.New(ErrCodeInvalidOptions, "store provider cannot be nil")
	}
	scheme := provider.Scheme()
	if scheme == "" {
		return errors.New(ErrCodeInvalidOptions, "store provider scheme cannot be empty")
	}
	if scheme == "file" {
		return errors.New(ErrCodeInvalidOptions, "the file scheme is handled by FileStore")
	}

	providerMutex.Lock()
	defer providerMutex.Unlock()
	for _, existing := range storeProviders {
		if existing.Scheme() == scheme {
			return errors.New(ErrCodeInvalidOptions,
				fmt.Sprintf("store provider for scheme '%s' already registered", scheme))
		}
	}
	storeProviders = append(storeProviders, provider)
	return nil
}

// GetStoreProvider returns the provider registered for scheme.
func GetStoreProvider(scheme string) (StoreProvider, error) {
	providerMutex.RLock()
	defer providerMutex.RUnlock()
	for _, provider := range storeProviders {
		if provider.Scheme() == scheme {
			return provider, nil
		}
	}
	return nil, errors.New(ErrCodeInvalidOptions,
		fmt.Sprintf("no store provider registered for scheme '%s'", scheme))
}

// ListStoreProviders returns a copy of the registered providers.
func ListStoreProviders() []StoreProvider {
	providerMutex.RLock()
	defer providerMutex.RUnlock()
	providers := make([]StoreProvider, len(storeProviders))
	copy(providers, storeProviders)
	return providers
}

// OpenStore opens the store named by location with default options.
// A bare path or a file:// URL opens a FileStore; anything else goes to
// the provider registered for the URL scheme.
func OpenStore(location string) (Store, error) {
	return OpenStoreWithContext(context.Background(), location, nil)
}

// OpenStoreWithContext is OpenStore with a context and options. The
// provider is asked once; a failed open is returned to the caller.
func OpenStoreWithContext(ctx context.Context, location string, opts *StoreOptions) (Store, error) {
	if strings.TrimSpace(location) == "" {
		return nil, errors.New(ErrCodeInvalidOptions, "store location cannot be empty")
	}
	if !strings.Contains(location, "://") {
		return NewFileStore(location)
	}
	parsed, err := url.Parse(location)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidOptions, "invalid store URL")
	}
	if parsed.Scheme == "file" {
		return NewFileStore(parsed.Path)
	}

	provider, err := GetStoreProvider(parsed.Scheme)
	if err != nil {
		return nil, err
	}
	if err := provider.Validate(location); err != nil {
		return nil, errors.Wrap(err, ErrCodeInvalidOptions, "store URL validation failed")
	}
	if opts == nil {
		opts = DefaultStoreOptions()
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	store, err := provider.Open(ctx, location)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeIO, fmt.Sprintf("failed to open %s store", provider.Name()))
	}
	return store, nil
}
