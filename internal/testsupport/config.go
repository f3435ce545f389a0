// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"jobwatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Backend.BaseURL = "http://127.0.0.1:0"
	cfg.Backend.APIToken = "test-token"
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithBaseURL overrides the backend base URL on the test config.
func WithBaseURL(baseURL string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Backend.BaseURL = baseURL
	}
}

// WithPolling overrides the polling section on the test config.
func WithPolling(intervalMS, maxAttempts int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Polling.IntervalMS = intervalMS
		cfg.Polling.MaxAttempts = maxAttempts
	}
}
