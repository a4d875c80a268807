// Package session persists the logged-in identity across application restarts.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileVault stores the username as a single JSON state file. It implements
// ports.SessionVault.
type FileVault struct {
	path string
}

func NewFileVault(path string) *FileVault {
	return &FileVault{path: path}
}

type vaultState struct {
	Username string `json:"username"`
}

// Load returns the stored username, or "" when no session is stored. An
// unreadable or corrupt state file is treated as no session.
func (v *FileVault) Load() (string, error) {
	data, err := os.ReadFile(v.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read session state: %w", err)
	}

	var state vaultState
	if err := json.Unmarshal(data, &state); err != nil {
		return "", nil
	}
	return strings.TrimSpace(state.Username), nil
}

// Store writes the username, creating the state directory if needed.
func (v *FileVault) Store(username string) error {
	if err := os.MkdirAll(filepath.Dir(v.path), 0o755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.Marshal(vaultState{Username: username})
	if err != nil {
		return fmt.Errorf("failed to encode session state: %w", err)
	}
	if err := os.WriteFile(v.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session state: %w", err)
	}
	return nil
}

// Clear removes the stored session. Clearing an absent session is a no-op.
func (v *FileVault) Clear() error {
	if err := os.Remove(v.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to clear session state: %w", err)
	}
	return nil
}
