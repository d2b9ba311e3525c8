// Package testsupport provides shared helpers for package tests: temp-dir
// seeded configurations and gzipped payload builders.
package testsupport

import (
	"path/filepath"
	"testing"

	"epgmerge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Sources.URLs = nil
	cfg.Sources.Timeout = 5
	cfg.Output.Path = filepath.Join(base, "out", "epg_all.xml")
	cfg.Cache.Path = filepath.Join(base, "cache", "fetch.db")
	cfg.Refresh.Path = filepath.Join(base, "pluto.xml")
	cfg.Paths.LockDir = filepath.Join(base, "lock")

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithSources sets the source URL list on the test config.
func WithSources(urls ...string) ConfigOption {
	return func(c *config.Config) {
		c.Sources.URLs = urls
	}
}

// WithOutputMode sets the output container mode.
func WithOutputMode(mode string) ConfigOption {
	return func(c *config.Config) {
		c.Output.Mode = mode
	}
}
