// Package cli implements the resumectl command-line client.
package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultServerURL is used by login when --server is not given.
const DefaultServerURL = "http://localhost:8080"

// ErrNotLoggedIn is returned when no credential is stored.
var ErrNotLoggedIn = errors.New("not logged in: run 'resumectl login --token <token>'")

// Config is the stored credential.
type Config struct {
	ServerURL string `json:"server_url"`
	Token     string `json:"token"`
}

// ConfigPath returns the config file location: RESUMECTL_CONFIG_PATH when
// set, otherwise ~/.resumectl/config.json.
func ConfigPath() (string, error) {
	if p := os.Getenv("RESUMECTL_CONFIG_PATH"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".resumectl", "config.json"), nil
}

// LoadConfig reads the stored credential. A missing file yields an empty
// Config.
func LoadConfig() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// SaveConfig writes the credential with owner-only permissions.
func SaveConfig(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ClearConfig removes the stored credential. Missing files are not an error.
func ClearConfig() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove config: %w", err)
	}
	return nil
}

// requireLogin loads the config and fails when no token is stored.
func requireLogin() (*Config, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Token == "" {
		return nil, ErrNotLoggedIn
	}
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultServerURL
	}
	return cfg, nil
}
