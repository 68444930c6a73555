// store_test.go: Tests for file and memory stores and store providers
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"context"
	goerrors "errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestFileStoreLoadSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "app.yaml")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if store.Codec().Name() != "yaml" || store.Name() != path {
		t.Errorf("Unexpected store %s with codec %s", store.Name(), store.Codec().Name())
	}

	root, err := store.Load()
	if err != nil {
		t.Fatalf("Missing file should load as empty: %v", err)
	}
	if root.Len() != 0 {
		t.Errorf("Expected empty tree, got %s", root)
	}

	WriteAt(root, "server.port", IntValue(9090))
	if err := store.Save(root); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "port: 9090") {
		t.Errorf("Unexpected file content:\n%s", data)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Temporary files left behind: %v", entries)
	}

	back, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(root) {
		t.Errorf("Load after Save = %s, want %s", back, root)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestFileStoreErrors(t *testing.T) {
	dir := t.TempDir()

	if _, err := NewFileStore(filepath.Join(dir, "app.txt")); !HasCode(err, ErrCodeUnsupportedFormat) {
		t.Errorf("Expected %s, got %v", ErrCodeUnsupportedFormat, err)
	}

	broken := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(broken, []byte(`{"a": `), 0600); err != nil {
		t.Fatal(err)
	}
	store, err := NewFileStore(broken)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Load(); !HasCode(err, ErrCodeIO) {
		t.Errorf("Expected %s for a malformed file, got %v", ErrCodeIO, err)
	}

	asDir := NewFileStoreWithCodec(dir, codecFor(t, FormatJSON))
	if _, err := asDir.Load(); !HasCode(err, ErrCodeIO) {
		t.Errorf("Expected %s when the path is a directory, got %v", ErrCodeIO, err)
	}
}

func TestFileStoreWithConfiguration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.properties")
	if err := os.WriteFile(path, []byte("service.name=billing\nservice.legacy=yes\n"), 0600); err != nil {
		t.Fatal(err)
	}
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg := newTestConfig(t, store)
	name := MustRegister(cfg.Registry(), "service.name", "", "", StringType)
	workers := MustRegister(cfg.Registry(), "service.workers", "", int32(4), IntType)

	if err := cfg.Load(); err != nil {
		t.Fatal(err)
	}
	if name.Value() != "billing" || workers.Value() != 4 {
		t.Errorf("name=%q workers=%d", name.Value(), workers.Value())
	}
	if _, err := cfg.Strip(); err != nil {
		t.Fatal(err)
	}
	if err := cfg.Write(); err != nil {
		t.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "service.name=billing\nservice.workers=4\n" {
		t.Errorf("Unexpected file:\n%s", data)
	}

	// Values written to a flat format come back as text and are coerced.
	if err := cfg.Reload(); err != nil {
		t.Fatal(err)
	}
	if workers.Value() != 4 || workers.IsModified() {
		t.Errorf("workers = %d modified=%v", workers.Value(), workers.IsModified())
	}
}

func TestMemoryStore(t *testing.T) {
	seed := NewSection()
	seed.Set("a", IntValue(1))
	store := NewMemoryStore("", seed)
	if store.Name() != "memory" {
		t.Errorf("Default name = %s", store.Name())
	}

	seed.Set("a", IntValue(2))
	if v, _ := store.Root().Get("a"); v.Int() != 1 {
		t.Error("NewMemoryStore must copy its seed")
	}

	loaded, _ := store.Load()
	loaded.Set("b", IntValue(3))
	if store.Root().Len() != 1 {
		t.Error("Load must return a copy")
	}

	if err := store.Save(loaded); err != nil {
		t.Fatal(err)
	}
	if store.Saves() != 1 || store.Root().Len() != 2 {
		t.Errorf("saves=%d root=%s", store.Saves(), store.Root())
	}

	boom := goerrors.New("boom")
	store.FailSave(boom)
	if err := store.Save(loaded); !goerrors.Is(err, boom) {
		t.Errorf("FailSave not honored: %v", err)
	}
	store.FailLoad(boom)
	if _, err := store.Load(); !goerrors.Is(err, boom) {
		t.Errorf("FailLoad not honored: %v", err)
	}
}

// mockStoreProvider opens memory stores and can fail a number of times.
type mockStoreProvider struct {
	scheme   string
	failures int
	mu       sync.Mutex
	opens    int
}

func (m *mockStoreProvider) Name() string   { return "Mock " + m.scheme }
func (m *mockStoreProvider) Scheme() string { return m.scheme }

func (m *mockStoreProvider) Validate(storeURL string) error {
	if strings.Contains(storeURL, "invalid") {
		return goerrors.New("invalid URL")
	}
	return nil
}

func (m *mockStoreProvider) Open(ctx context.Context, storeURL string) (Store, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opens++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.opens <= m.failures {
		return nil, goerrors.New("temporarily unavailable")
	}
	return NewMemoryStore(storeURL, nil), nil
}

func resetStoreProviders(t *testing.T) {
	t.Helper()
	providerMutex.Lock()
	saved := storeProviders
	storeProviders = nil
	providerMutex.Unlock()
	t.Cleanup(func() {
		providerMutex.Lock()
		storeProviders = saved
		providerMutex.Unlock()
	})
}

func TestRegisterStoreProvider(t *testing.T) {
	resetStoreProviders(t)

	if err := RegisterStoreProvider(&mockStoreProvider{scheme: "mock"}); err != nil {
		t.Fatal(err)
	}
	invalid := []StoreProvider{
		nil,
		&mockStoreProvider{scheme: ""},
		&mockStoreProvider{scheme: "file"},
		&mockStoreProvider{scheme: "mock"},
	}
	for _, p := range invalid {
		if err := RegisterStoreProvider(p); !HasCode(err, ErrCodeInvalidOptions) {
			t.Errorf("RegisterStoreProvider(%v) should fail with %s, got %v", p, ErrCodeInvalidOptions, err)
		}
	}

	if p, err := GetStoreProvider("mock"); err != nil || p.Scheme() != "mock" {
		t.Errorf("GetStoreProvider = %v, %v", p, err)
	}
	if _, err := GetStoreProvider("redis"); err == nil {
		t.Error("Unknown scheme should fail")
	}
	if got := ListStoreProviders(); len(got) != 1 {
		t.Errorf("ListStoreProviders() = %v", got)
	}
}

func TestOpenStore(t *testing.T) {
	resetStoreProviders(t)
	provider := &mockStoreProvider{scheme: "mock"}
	if err := RegisterStoreProvider(provider); err != nil {
		t.Fatal(err)
	}

	opts := &StoreOptions{Timeout: time.Second}
	store, err := OpenStoreWithContext(context.Background(), "mock://host/config", opts)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if store.Name() != "mock://host/config" || provider.opens != 1 {
		t.Errorf("store=%s opens=%d", store.Name(), provider.opens)
	}

	path := filepath.Join(t.TempDir(), "app.toml")
	for _, location := range []string{path, "file://" + path} {
		s, err := OpenStore(location)
		if err != nil {
			t.Errorf("OpenStore(%q) failed: %v", location, err)
			continue
		}
		if fs, ok := s.(*FileStore); !ok || fs.Path() != path {
			t.Errorf("OpenStore(%q) = %T", location, s)
		}
	}

	if _, err := OpenStore(""); !HasCode(err, ErrCodeInvalidOptions) {
		t.Errorf("Empty location: %v", err)
	}
	if _, err := OpenStore("mock://invalid"); !HasCode(err, ErrCodeInvalidOptions) {
		t.Errorf("Validation failure: %v", err)
	}
	if _, err := OpenStore("unknown://x"); !HasCode(err, ErrCodeInvalidOptions) {
		t.Errorf("Unknown scheme: %v", err)
	}
}

func TestOpenStoreDoesNotRetry(t *testing.T) {
	resetStoreProviders(t)
	provider := &mockStoreProvider{scheme: "flaky", failures: 1}
	if err := RegisterStoreProvider(provider); err != nil {
		t.Fatal(err)
	}

	if _, err := OpenStoreWithContext(context.Background(), "flaky://x", nil); !HasCode(err, ErrCodeIO) {
		t.Errorf("Expected %s from a failed open, got %v", ErrCodeIO, err)
	}
	if provider.opens != 1 {
		t.Errorf("A failed open must not be retried, opens = %d", provider.opens)
	}
	if _, err := OpenStore("flaky://x"); err != nil {
		t.Errorf("A second call should reach the recovered provider: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := OpenStoreWithContext(ctx, "flaky://x", &StoreOptions{})
	if !HasCode(err, ErrCodeIO) || !goerrors.Is(err, context.Canceled) {
		t.Errorf("Expected %s wrapping the canceled context, got %v", ErrCodeIO, err)
	}
}
