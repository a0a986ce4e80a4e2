package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileTokenStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "token")
	store := NewFileTokenStore(path)

	if got, err := store.Load(); err != nil || got != "" {
		t.Fatalf("fresh store must load empty, got %q, %v", got, err)
	}

	if err := store.Save("tok-123"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if got, _ := store.Load(); got != "tok-123" {
		t.Fatalf("Load returned %q", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat token file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("token file must be 0600, got %o", perm)
	}

	if err := store.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	if got, _ := store.Load(); got != "" {
		t.Fatalf("token survived Clear: %q", got)
	}

	// Clearing again is not an error.
	if err := store.Clear(); err != nil {
		t.Fatalf("second Clear failed: %v", err)
	}
}

func TestFileTokenStore_TrimsWhitespace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	if err := os.WriteFile(path, []byte("tok-abc\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	store := NewFileTokenStore(path)
	if got, _ := store.Load(); got != "tok-abc" {
		t.Fatalf("expected trimmed token, got %q", got)
	}
}
