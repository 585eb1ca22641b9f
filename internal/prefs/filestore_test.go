package prefs

import (
	"path/filepath"
	"testing"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "preferences.json")

	store := NewFileStore(path)
	if err := store.Load(); err != nil {
		t.Fatalf("load of missing file should succeed: %v", err)
	}

	if err := store.Set(KeyNotificationEnabled, "true"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Set(KeyNotificationTime, `{"hour":8,"minute":0}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	v, ok, err := store.Get(KeyNotificationEnabled)
	if err != nil || !ok || v != "true" {
		t.Fatalf("get returned (%q, %v, %v)", v, ok, err)
	}

	// A fresh store over the same file sees the persisted values.
	reloaded := NewFileStore(path)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok, _ = reloaded.Get(KeyNotificationTime)
	if !ok || v != `{"hour":8,"minute":0}` {
		t.Fatalf("persisted value lost: (%q, %v)", v, ok)
	}
}

func TestFileStoreRemove(t *testing.T) {
	path := filepath.Join(t.TempDir(), "preferences.json")

	store := NewFileStore(path)
	if err := store.Load(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := store.Set(KeySelectedCity, `{"name":"Ankara"}`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := store.Remove(KeySelectedCity); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok, _ := store.Get(KeySelectedCity); ok {
		t.Fatal("key should be gone after Remove")
	}

	// Removing an absent key is a no-op.
	if err := store.Remove(KeySelectedCity); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
