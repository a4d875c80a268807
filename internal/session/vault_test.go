package session

import (
	"os"
	"path/filepath"
	"testing"
)

func TestVaultRoundTrip(t *testing.T) {
	t.Parallel()

	vault := NewFileVault(filepath.Join(t.TempDir(), "state", "session.json"))

	if err := vault.Store("ava"); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	username, err := vault.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if username != "ava" {
		t.Fatalf("unexpected username: %q", username)
	}
}

func TestVaultLoadMissingFile(t *testing.T) {
	t.Parallel()

	vault := NewFileVault(filepath.Join(t.TempDir(), "absent.json"))
	username, err := vault.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if username != "" {
		t.Fatalf("expected empty username, got %q", username)
	}
}

func TestVaultLoadCorruptFileIsNoSession(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	vault := NewFileVault(path)
	username, err := vault.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if username != "" {
		t.Fatalf("expected empty username for corrupt state, got %q", username)
	}
}

func TestVaultClear(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "session.json")
	vault := NewFileVault(path)

	if err := vault.Store("ava"); err != nil {
		t.Fatalf("store failed: %v", err)
	}
	if err := vault.Clear(); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected state file removed")
	}

	// Clearing again is a no-op.
	if err := vault.Clear(); err != nil {
		t.Fatalf("second clear failed: %v", err)
	}
}
