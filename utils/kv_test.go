package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestKV(t *testing.T) {
	stores := map[string]func(t *testing.T) KV{
		"memory": func(*testing.T) KV { return NewMemoryKV() },
		"file":   func(t *testing.T) KV { return NewFileKV(filepath.Join(t.TempDir(), "dir", "kv.json")) },
	}

	for name, newKV := range stores {
		t.Run(name, func(t *testing.T) {
			kv := newKV(t)

			if _, ok, err := kv.Get("missing"); ok || err != nil {
				t.Fatalf("Get(missing) = %v, %v", ok, err)
			}
			if err := kv.Set("a", []byte(`"one"`)); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := kv.Set("b", []byte(`"two"`)); err != nil {
				t.Fatalf("Set() error = %v", err)
			}

			v, ok, err := kv.Get("a")
			if !ok || err != nil || string(v) != `"one"` {
				t.Errorf("Get(a) = %s, %v, %v", v, ok, err)
			}
			v[0] = 'X'
			if again, _, _ := kv.Get("a"); string(again) != `"one"` {
				t.Error("Get() must not expose stored bytes")
			}

			kv.Set("a", []byte(`2`))
			if v, _, _ := kv.Get("a"); string(v) != `2` {
				t.Errorf("overwritten Get(a) = %s", v)
			}
			if v, _, _ := kv.Get("b"); string(v) != `"two"` {
				t.Errorf("Get(b) = %s", v)
			}
		})
	}
}

func TestFileKVRejectsInvalidJSON(t *testing.T) {
	kv := NewFileKV(filepath.Join(t.TempDir(), "kv.json"))
	if err := kv.Set("k", []byte("not json")); err == nil {
		t.Error("Set() accepted invalid JSON")
	}
}

func TestFileKVCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.json")
	os.WriteFile(path, []byte("{broken"), 0644)
	kv := NewFileKV(path)

	if _, _, err := kv.Get("k"); err == nil {
		t.Error("Get() on a corrupt file should fail")
	}
	if err := kv.Set("k", []byte(`true`)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, ok, err := kv.Get("k"); !ok || err != nil || string(v) != "true" {
		t.Errorf("Get() after recovery = %s, %v, %v", v, ok, err)
	}
}

func TestFileKVUnreadableFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "kv.json")
	os.Mkdir(dir, 0755)
	kv := NewFileKV(dir)
	if err := kv.Set("k", []byte(`true`)); err == nil {
		t.Error("Set() over an unreadable file succeeded")
	}
}
