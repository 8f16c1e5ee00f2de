package backend

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Auth holds the operator's API credentials.
type Auth struct {
	Token    string `json:"token,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Email    string `json:"email,omitempty"`
	ExpireAt int64  `json:"expire_at,omitempty"`
}

// IsAuthenticated returns true if a token is present and not expired.
func (a *Auth) IsAuthenticated(now time.Time) bool {
	if a == nil || a.Token == "" {
		return false
	}
	return a.ExpireAt == 0 || now.Unix() < a.ExpireAt
}

// LoadAuth reads credentials from path. A missing file is not an error and
// yields empty credentials.
func LoadAuth(path string) (*Auth, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Auth{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read auth %s: %w", path, err)
	}
	var auth Auth
	if err := json.Unmarshal(data, &auth); err != nil {
		return nil, fmt.Errorf("parse auth %s: %w", path, err)
	}
	return &auth, nil
}

// SaveAuth writes credentials to path, readable only by the owner.
func SaveAuth(path string, auth *Auth) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(auth, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// ClearAuth removes stored credentials (logout).
func ClearAuth(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(path)
}

// DefaultAuthPath returns ~/.lendops/auth.json.
func DefaultAuthPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".lendops", "auth.json")
}
