package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Sources contains the provider feed list and fetch behavior.
type Sources struct {
	URLs      []string `toml:"urls"`
	Timeout   int      `toml:"timeout"`
	UserAgent string   `toml:"user_agent"`
}

// Output contains destination settings for the merged document.
type Output struct {
	Path           string `toml:"path"`
	Mode           string `toml:"mode"`
	Overwrite      bool   `toml:"overwrite"`
	Atomic         bool   `toml:"atomic"`
	DedupeChannels bool   `toml:"dedupe_channels"`
}

// Cache contains settings for the conditional-request fetch cache.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Refresh contains settings for the single-document refresh operation.
type Refresh struct {
	URL  string `toml:"url"`
	Path string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Paths contains directory configuration.
type Paths struct {
	LockDir string `toml:"lock_dir"`
}

// Config encapsulates all configuration values for epgmerge.
//
// Configuration sections by subsystem:
//   - Sources: provider feed URLs and per-request fetch timeout
//   - Output: merged document path, container mode, and dedup policy
//   - Cache: optional ETag/Last-Modified fetch cache
//   - Refresh: single-document fetch-and-replace target
//   - Logging: log format and level
//   - Paths: run lock directory
type Config struct {
	Sources Sources `toml:"sources"`
	Output  Output  `toml:"output"`
	Cache   Cache   `toml:"cache"`
	Refresh Refresh `toml:"refresh"`
	Logging Logging `toml:"logging"`
	Paths   Paths   `toml:"paths"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/epgmerge/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("epgmerge.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for a merge run.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Paths.LockDir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", c.Paths.LockDir, err)
	}
	if c.Cache.Enabled && strings.TrimSpace(c.Cache.Path) != "" {
		if err := os.MkdirAll(filepath.Dir(c.Cache.Path), 0o755); err != nil {
			return fmt.Errorf("create cache directory %q: %w", filepath.Dir(c.Cache.Path), err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
