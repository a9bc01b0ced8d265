package main

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// session is what login leaves on disk for later commands.
type session struct {
	Username     string    `json:"username"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

var errLoginRequired = errors.New("no session (login required)")

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "podsub")
	}
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, "podsub")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "podsub")
}

func sessionPath() string { return filepath.Join(cfgDir(), "session.json") }

func saveSession(s session) error {
	if err := os.MkdirAll(cfgDir(), 0o700); err != nil {
		return err
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(sessionPath(), b, 0o600)
}

func loadSession() (session, error) {
	b, err := os.ReadFile(sessionPath())
	if errors.Is(err, os.ErrNotExist) {
		return session{}, errLoginRequired
	}
	if err != nil {
		return session{}, err
	}
	var s session
	if err := json.Unmarshal(b, &s); err != nil {
		return session{}, err
	}
	if s.AccessToken == "" {
		return session{}, errLoginRequired
	}
	return s, nil
}

// expired reports whether the access token is at or near its expiry.
func (s session) expired(now time.Time) bool {
	return !now.Add(10 * time.Second).Before(s.ExpiresAt)
}
