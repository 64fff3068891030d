// Package prefs persists the CLI's local state: server address, auth
// session and the user's appearance preferences.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const fileName = "prefs.json"

type Prefs struct {
	ServerURL   string `json:"server_url"`
	Token       string `json:"token"`
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name,omitempty"`
	Theme       string `json:"theme,omitempty"`
	Font        string `json:"font,omitempty"`
}

// DefaultPath resolves to the per-user config directory, e.g.
// ~/.config/notaflow/prefs.json on Linux.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "notaflow", fileName), nil
}

// Load returns zero prefs (no error) when the file does not exist yet.
func Load(path string) (Prefs, error) {
	var p Prefs
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return p, nil
		}
		return p, fmt.Errorf("read prefs: %w", err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("decode prefs: %w", err)
	}
	return p, nil
}

// Save writes via a temp file and rename so a crash mid-write cannot
// leave a truncated prefs file behind.
func Save(path string, p Prefs) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode prefs: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace prefs: %w", err)
	}
	return nil
}
