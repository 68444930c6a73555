// tree_test.go: Tests for path addressing and mark-and-sweep stripping
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"reflect"
	"testing"
)

func sampleTree(t *testing.T) *Section {
	t.Helper()
	v, err := FromNative(map[string]interface{}{
		"app": map[string]interface{}{
			"name":  "demo",
			"debug": true,
		},
		"server": map[string]interface{}{
			"http": map[string]interface{}{
				"port": 8080,
				"host": "localhost",
			},
			"legacy": map[string]interface{}{
				"enabled": false,
			},
		},
		"orphan": "x",
	})
	if err != nil {
		t.Fatal(err)
	}
	return v.Section()
}

func TestReadAt(t *testing.T) {
	root := sampleTree(t)

	if v, ok := ReadAt(root, "server.http.port"); !ok || v.Int() != 8080 {
		t.Errorf("ReadAt(server.http.port) = %v, %v", v, ok)
	}
	if v, ok := ReadAt(root, "server.http"); !ok || v.Kind() != KindSection {
		t.Errorf("ReadAt on a section should return it, got %v", v)
	}

	missing := []string{"server.http.tls", "orphan.child", "nope", "server.http.port.x", ""}
	for _, p := range missing {
		if _, ok := ReadAt(root, p); ok {
			t.Errorf("ReadAt(%q) should report absence", p)
		}
	}
	if _, ok := ReadAt(nil, "a"); ok {
		t.Error("ReadAt on a nil tree should report absence")
	}
}

func TestWriteAtCreatesAndReplaces(t *testing.T) {
	root := sampleTree(t)

	WriteAt(root, "server.http.tls.cert", StringValue("c.pem"))
	if v, ok := ReadAt(root, "server.http.tls.cert"); !ok || v.Str() != "c.pem" {
		t.Errorf("Missing intermediate sections were not created: %v", v)
	}

	// A scalar in the way is replaced by a section.
	WriteAt(root, "orphan.child", IntValue(1))
	if v, ok := ReadAt(root, "orphan.child"); !ok || v.Int() != 1 {
		t.Errorf("WriteAt through a scalar failed: %v", v)
	}

	WriteAt(root, "app.name", StringValue("renamed"))
	if got := root.Keys(); !reflect.DeepEqual(got, []string{"app", "orphan", "server"}) {
		t.Errorf("Replacing values must keep key order, got %v", got)
	}
	app, _ := ReadAt(root, "app")
	if got := app.Section().Keys(); !reflect.DeepEqual(got, []string{"debug", "name"}) {
		t.Errorf("Replacing values must keep key order, got %v", got)
	}

	WriteAt(root, "", IntValue(1))
	if root.Len() != 3 {
		t.Error("WriteAt with an empty path must be a no-op")
	}
}

func TestDeleteAtPrunesEmptySections(t *testing.T) {
	root := sampleTree(t)

	if !DeleteAt(root, "server.legacy.enabled") {
		t.Fatal("DeleteAt should report a removed value")
	}
	if _, ok := ReadAt(root, "server.legacy"); ok {
		t.Error("Empty parent section should be removed")
	}
	if _, ok := ReadAt(root, "server.http.port"); !ok {
		t.Error("Siblings must survive")
	}
	if DeleteAt(root, "server.legacy.enabled") {
		t.Error("Deleting twice should report false")
	}
	if DeleteAt(root, "orphan.child") {
		t.Error("Deleting below a scalar should report false")
	}
}

func TestStripRemovesDeadBranches(t *testing.T) {
	root := sampleTree(t)
	live := map[string]bool{
		"server.http.port": true,
		"app.name":         true,
		"app.missing":      true,
	}

	removed := Strip(root, func(p string) bool { return live[p] })

	wantRemoved := []string{"app.debug", "orphan", "server.http.host", "server.legacy.enabled", "server.legacy"}
	if !reflect.DeepEqual(removed, wantRemoved) {
		t.Errorf("removed = %v, want %v", removed, wantRemoved)
	}
	if got := Paths(root); !reflect.DeepEqual(got, []string{"app.name", "server.http.port"}) {
		t.Errorf("Remaining paths = %v", got)
	}
}

func TestStripKeepsWholeLiveSubtree(t *testing.T) {
	root := sampleTree(t)
	removed := Strip(root, func(p string) bool { return p == "server" })

	if _, ok := ReadAt(root, "server.legacy.enabled"); !ok {
		t.Error("Everything below a live path is owned by it")
	}
	want := []string{"app.debug", "app.name", "app", "orphan"}
	if !reflect.DeepEqual(removed, want) {
		t.Errorf("removed = %v, want %v", removed, want)
	}
}

func TestStripIsIdempotent(t *testing.T) {
	root := sampleTree(t)
	live := func(p string) bool { return p == "app.name" }
	Strip(root, live)
	if removed := Strip(root, live); len(removed) != 0 {
		t.Errorf("Second strip removed %v", removed)
	}

	empty := NewSection()
	empty.Set("dangling", SectionValue(NewSection()))
	if removed := Strip(empty, live); !reflect.DeepEqual(removed, []string{"dangling"}) {
		t.Errorf("Empty sections are not live, got %v", removed)
	}
}

func TestFlattenUnflatten(t *testing.T) {
	root := sampleTree(t)
	flat := Flatten(root)

	paths := make([]string, len(flat))
	for i, e := range flat {
		paths[i] = e.Path
	}
	want := []string{"app.debug", "app.name", "orphan", "server.http.host", "server.http.port", "server.legacy.enabled"}
	if !reflect.DeepEqual(paths, want) {
		t.Errorf("Flatten paths = %v", paths)
	}
	if !reflect.DeepEqual(paths, Paths(root)) {
		t.Error("Flatten and Paths must agree")
	}

	if back := Unflatten(flat); !back.Equal(root) {
		t.Errorf("Unflatten(Flatten(x)) = %s, want %s", back, root)
	}
}

func TestJoinAndSplitPath(t *testing.T) {
	if JoinPath("", "a") != "a" || JoinPath("a.b", "c") != "a.b.c" {
		t.Error("JoinPath")
	}
	if SplitPath("") != nil {
		t.Error("SplitPath of an empty path should be nil")
	}
	if got := SplitPath("a.b.c"); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("SplitPath = %v", got)
	}
}
