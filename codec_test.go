// codec_test.go: Tests for the file format codecs
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package carta

import (
	"encoding/json"
	"math/big"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/cockroachdb/apd/v3"
)

func codecFor(t *testing.T, format ConfigFormat) Codec {
	t.Helper()
	c, err := CodecFor(format)
	if err != nil {
		t.Fatalf("CodecFor(%s) failed: %v", format, err)
	}
	return c
}

// nestedTree has no arbitrary-precision numbers so every structured format
// can carry it unchanged.
func nestedTree() *Section {
	tls := NewSection()
	tls.Set("enabled", BoolValue(true))
	tls.Set("ciphers", ListValue(StringValue("aes"), StringValue("chacha")))

	server := NewSection()
	server.Set("port", IntValue(8080))
	server.Set("ratio", DoubleValue(0.5))
	server.Set("tls", SectionValue(tls))

	root := NewSection()
	root.Set("name", StringValue("demo \"quoted\""))
	root.Set("server", SectionValue(server))
	root.Set("big_long", LongValue(5000000000))
	return root
}

func TestStructuredCodecsRoundTrip(t *testing.T) {
	for _, format := range []ConfigFormat{FormatJSON, FormatYAML, FormatTOML} {
		t.Run(format.String(), func(t *testing.T) {
			c := codecFor(t, format)
			if !c.Supports(format) {
				t.Errorf("%s codec does not support its own format", c.Name())
			}
			data, err := c.Encode(nestedTree())
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			back, err := c.Decode(data)
			if err != nil {
				t.Fatalf("Decode failed: %v\n%s", err, data)
			}
			if !back.Equal(nestedTree()) {
				t.Errorf("Round trip changed the tree:\n got %s\nwant %s\n%s", back, nestedTree(), data)
			}
		})
	}
}

func TestJSONCodec(t *testing.T) {
	c := codecFor(t, FormatJSON)

	root, err := c.Decode([]byte(`{"z": 1, "a": {"y": null, "x": [1, null, "two"]}, "n": 12345678901234567890123}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := root.Keys(); !reflect.DeepEqual(got, []string{"z", "a", "n"}) {
		t.Errorf("JSON key order not preserved: %v", got)
	}
	a, _ := root.Get("a")
	if _, ok := a.Section().Get("y"); ok {
		t.Error("Null values must be dropped")
	}
	if x, _ := ReadAt(root, "a.x"); len(x.List()) != 2 {
		t.Errorf("Null list elements must be dropped, got %s", x)
	}
	if n, _ := root.Get("n"); n.Kind() != KindBigInt {
		t.Errorf("Large integers must keep their precision, got %s", n.Kind())
	}

	data, err := c.Encode(root)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "12345678901234567890123") {
		t.Errorf("Big integer lost on encode:\n%s", data)
	}
	if strings.Index(string(data), `"z"`) > strings.Index(string(data), `"a"`) {
		t.Errorf("Encode must keep key order:\n%s", data)
	}

	for _, bad := range []string{`{"a":`, `[1, 2]`, `"text"`} {
		if _, err := c.Decode([]byte(bad)); !HasCode(err, ErrCodeIO) {
			t.Errorf("Decode(%s) should fail with %s, got %v", bad, ErrCodeIO, err)
		}
	}
	if empty, err := c.Decode([]byte("  \n")); err != nil || empty.Len() != 0 {
		t.Errorf("Empty input should be an empty tree, got %v, %v", empty, err)
	}
}

func TestJSONCodecNonFiniteDecimals(t *testing.T) {
	c := codecFor(t, FormatJSON)
	for _, text := range []string{"NaN", "Infinity", "-Infinity"} {
		d, _, err := apd.NewFromString(text)
		if err != nil {
			t.Fatal(err)
		}
		root := NewSection()
		root.Set("ratio", DecimalValue(d))
		data, err := c.Encode(root)
		if err != nil {
			t.Fatalf("Encode(%s) failed: %v", text, err)
		}
		if !json.Valid(data) {
			t.Errorf("Encode(%s) produced invalid JSON:\n%s", text, data)
		}
		back, err := c.Decode(data)
		if err != nil {
			t.Fatalf("Decode failed: %v\n%s", err, data)
		}
		raw, _ := back.Get("ratio")
		got, err := BigDecimalType.Decode(raw)
		if err != nil || got.Form != d.Form || got.Negative != d.Negative {
			t.Errorf("%s read back as %v, %v", text, got, err)
		}
	}
}

func TestYAMLCodec(t *testing.T) {
	c := codecFor(t, FormatYAML)
	doc := `
defaults: &defaults
  timeout: 30s
  retries: 3
service:
  <<: *defaults
  name: api
  ratio: 2.0
  huge: 123456789012345678901234567890
  missing: ~
`
	root, err := c.Decode([]byte(doc))
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := ReadAt(root, "defaults.retries"); v.Kind() != KindInt || v.Int() != 3 {
		t.Errorf("defaults.retries = %s", v)
	}
	if v, _ := ReadAt(root, "service.retries"); v.Int() != 3 {
		t.Errorf("Merge keys should be resolved, service.retries = %s", v)
	}
	if _, ok := ReadAt(root, "service.<<"); ok {
		t.Error("The merge key itself must not appear in the tree")
	}
	if v, _ := ReadAt(root, "service.ratio"); v.Kind() != KindDouble {
		t.Errorf("service.ratio kind = %s", v.Kind())
	}
	if v, _ := ReadAt(root, "service.huge"); v.Kind() != KindBigInt {
		t.Errorf("service.huge kind = %s", v.Kind())
	}
	if _, ok := ReadAt(root, "service.missing"); ok {
		t.Error("Null values must be dropped")
	}

	data, err := c.Encode(root)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "ratio: 2.0") {
		t.Errorf("Whole doubles must stay floats:\n%s", data)
	}

	if _, err := c.Decode([]byte("- a\n- b\n")); !HasCode(err, ErrCodeIO) {
		t.Errorf("Sequence root should fail, got %v", err)
	}
	if _, err := c.Decode([]byte("a: [unclosed")); !HasCode(err, ErrCodeIO) {
		t.Errorf("Malformed YAML should fail, got %v", err)
	}
	if empty, err := c.Decode(nil); err != nil || empty.Len() != 0 {
		t.Errorf("Empty input should be an empty tree, got %v, %v", empty, err)
	}
}

func TestTOMLCodec(t *testing.T) {
	c := codecFor(t, FormatTOML)
	root, err := c.Decode([]byte(`
title = "demo"

[server]
port = 8080
hosts = ["a", "b"]
`))
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := ReadAt(root, "server.port"); v.Kind() != KindInt || v.Int() != 8080 {
		t.Errorf("server.port = %s", v)
	}
	if v, _ := ReadAt(root, "server.hosts"); v.Text() != "a,b" {
		t.Errorf("server.hosts = %s", v)
	}

	huge, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	tree := NewSection()
	tree.Set("huge", BigIntValue(huge))
	tree.Set("small", BigIntValue(big.NewInt(7)))
	data, err := c.Encode(tree)
	if err != nil {
		t.Fatal(err)
	}
	back, err := c.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if v, _ := back.Get("huge"); v.Kind() != KindString || v.Str() != huge.String() {
		t.Errorf("Integers beyond TOML range are written as strings, got %s", v)
	}
	if v, _ := back.Get("small"); v.Kind() != KindInt || v.Int() != 7 {
		t.Errorf("Small big-integers narrow to TOML integers, got %s", v)
	}

	if _, err := c.Decode([]byte("a = ")); !HasCode(err, ErrCodeIO) {
		t.Errorf("Malformed TOML should fail, got %v", err)
	}
}

func TestINICodec(t *testing.T) {
	c := codecFor(t, FormatINI)
	root, err := c.Decode([]byte(`
; comment
name = top

[server]
port = 8080
url = http://localhost/#anchor

[server.tls]
cert = c.pem
`))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"name":            "top",
		"server.port":     "8080",
		"server.url":      "http://localhost/#anchor",
		"server.tls.cert": "c.pem",
	}
	for path, text := range want {
		v, ok := ReadAt(root, path)
		if !ok || v.Kind() != KindString || v.Str() != text {
			t.Errorf("%s = %s, want string %q", path, v, text)
		}
	}

	data, err := c.Encode(root)
	if err != nil {
		t.Fatal(err)
	}
	back, err := c.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	if !back.Equal(root) {
		t.Errorf("Round trip changed the tree:\n got %s\nwant %s\n%s", back, root, data)
	}

	if _, err := c.Decode([]byte("[a..b]\nx = 1\n")); !HasCode(err, ErrCodeIO) {
		t.Errorf("Invalid section path should fail, got %v", err)
	}
}

func TestPropertiesCodec(t *testing.T) {
	c := codecFor(t, FormatProperties)
	root, err := c.Decode([]byte(`# comment
! also a comment
app.name = demo
app.motd: hello \
    world
app.path=C:\\temp
app.escaped=tab\there
empty.key
`))
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]string{
		"app.name":    "demo",
		"app.motd":    "hello world",
		"app.path":    `C:\temp`,
		"app.escaped": "tab\there",
		"empty.key":   "",
	}
	for path, text := range want {
		if v, ok := ReadAt(root, path); !ok || v.Str() != text {
			t.Errorf("%s = %s, want %q", path, v, text)
		}
	}

	tree := NewSection()
	WriteAt(tree, "msg.multi", StringValue("a\nb"))
	WriteAt(tree, "msg.padded", StringValue("  x"))
	WriteAt(tree, "msg.list", ListValue(IntValue(1), IntValue(2)))
	data, err := c.Encode(tree)
	if err != nil {
		t.Fatal(err)
	}
	back, err := c.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	for path, text := range map[string]string{"msg.multi": "a\nb", "msg.padded": "  x", "msg.list": "1,2"} {
		if v, _ := ReadAt(back, path); v.Str() != text {
			t.Errorf("%s = %s, want %q\n%s", path, v, text, data)
		}
	}

	bad := []string{"a..b=1\n", "=value\n", "key=\\\n", "bad\x01key=1\n"}
	for _, doc := range bad {
		if _, err := c.Decode([]byte(doc)); !HasCode(err, ErrCodeIO) {
			t.Errorf("Decode(%q) should fail with %s, got %v", doc, ErrCodeIO, err)
		}
	}
}

func TestFlatCodecsRoundTripMapKeys(t *testing.T) {
	for name, teams := range map[string]map[string]int32{
		"teams.properties": {"team name": 3, "ops:on=call": 4, "#lead": 5, `back\slash`: 6},
		"teams.ini":        {"team name": 3, "ops:on=call": 4, `back\slash`: 6},
	} {
		t.Run(name, func(t *testing.T) {
			store, err := NewFileStore(filepath.Join(t.TempDir(), name))
			if err != nil {
				t.Fatal(err)
			}
			cfg := newTestConfig(t, store)
			MustRegister(cfg.Registry(), "org.teams", "", teams, MapOf(StringType, IntType))
			if err := cfg.Load(); err != nil {
				t.Fatal(err)
			}
			if err := cfg.Write(); err != nil {
				t.Fatalf("Write failed: %v", err)
			}

			reader := newTestConfig(t, store)
			back := MustRegister(reader.Registry(), "org.teams", "", map[string]int32{}, MapOf(StringType, IntType))
			if err := reader.Load(); err != nil {
				t.Fatalf("Reload of written file failed: %v", err)
			}
			if !reflect.DeepEqual(back.Value(), teams) || back.IsModified() {
				t.Errorf("org.teams = %v modified=%v, want %v", back.Value(), back.IsModified(), teams)
			}
		})
	}
}

func TestFlatCodecsRejectDottedKeys(t *testing.T) {
	org := NewSection()
	org.Set("eu.west", IntValue(1))
	tree := NewSection()
	tree.Set("org", SectionValue(org))
	for _, format := range []ConfigFormat{FormatINI, FormatProperties} {
		if _, err := codecFor(t, format).Encode(tree); !HasCode(err, ErrCodeIO) {
			t.Errorf("%s: a key holding a dot should fail with %s, got %v", format, ErrCodeIO, err)
		}
	}
}

func TestFormatDetection(t *testing.T) {
	tests := map[string]ConfigFormat{
		"app.json":        FormatJSON,
		"app.YML":         FormatYAML,
		"app.yaml":        FormatYAML,
		"app.toml":        FormatTOML,
		"app.conf":        FormatINI,
		"app.ini":         FormatINI,
		"app.properties":  FormatProperties,
		"app.txt":         FormatUnknown,
		"no_extension":    FormatUnknown,
		"dir.json/app.sh": FormatUnknown,
	}
	for path, want := range tests {
		if got := DetectFormat(path); got != want {
			t.Errorf("DetectFormat(%q) = %s, want %s", path, got, want)
		}
	}

	if f, err := ParseFormat(" YAML "); err != nil || f != FormatYAML {
		t.Errorf("ParseFormat(YAML) = %s, %v", f, err)
	}
	if f, err := ParseFormat("auto"); err != nil || f != FormatUnknown {
		t.Errorf("ParseFormat(auto) = %s, %v", f, err)
	}
	if _, err := ParseFormat("xml"); !HasCode(err, ErrCodeUnsupportedFormat) {
		t.Errorf("Expected %s, got %v", ErrCodeUnsupportedFormat, err)
	}
	if _, err := CodecFor(FormatUnknown); !HasCode(err, ErrCodeUnsupportedFormat) {
		t.Errorf("Expected %s, got %v", ErrCodeUnsupportedFormat, err)
	}
	if _, err := CodecForFile("app.txt"); !HasCode(err, ErrCodeUnsupportedFormat) {
		t.Errorf("Expected %s, got %v", ErrCodeUnsupportedFormat, err)
	}
	if !FormatINI.IsFlat() || FormatJSON.IsFlat() {
		t.Error("IsFlat")
	}
}

type upperJSONCodec struct{ jsonCodec }

func (upperJSONCodec) Name() string { return "upper-json" }

func TestRegisterCodecTakesPrecedence(t *testing.T) {
	RegisterCodec(upperJSONCodec{})
	defer func() {
		codecMutex.Lock()
		customCodecs = nil
		codecMutex.Unlock()
	}()

	c, err := CodecForFile("settings.json")
	if err != nil {
		t.Fatal(err)
	}
	if c.Name() != "upper-json" {
		t.Errorf("Registered codec not used, got %s", c.Name())
	}
}
