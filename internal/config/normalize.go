package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeSources(); err != nil {
		return err
	}
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	if err := c.normalizeCache(); err != nil {
		return err
	}
	if err := c.normalizeRefresh(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeSources() error {
	urls := make([]string, 0, len(c.Sources.URLs))
	for _, u := range c.Sources.URLs {
		if trimmed := strings.TrimSpace(u); trimmed != "" {
			urls = append(urls, trimmed)
		}
	}
	c.Sources.URLs = urls
	if c.Sources.Timeout == 0 {
		c.Sources.Timeout = defaultTimeoutSeconds
	}
	c.Sources.UserAgent = strings.TrimSpace(c.Sources.UserAgent)
	if c.Sources.UserAgent == "" {
		c.Sources.UserAgent = defaultUserAgent
	}
	return nil
}

// Output.Path is deliberately not made absolute here: the merge command
// resolves it against the working directory at run time, matching CLI
// expectations for a default like "epg_all.xml".
func (c *Config) normalizeOutput() error {
	c.Output.Path = strings.TrimSpace(c.Output.Path)
	if c.Output.Path == "" {
		c.Output.Path = defaultOutputPath
	}
	c.Output.Mode = strings.ToLower(strings.TrimSpace(c.Output.Mode))
	if c.Output.Mode == "" {
		c.Output.Mode = defaultOutputMode
	}
	return nil
}

func (c *Config) normalizeCache() error {
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = defaultCachePath
	}
	var err error
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeRefresh() error {
	c.Refresh.URL = strings.TrimSpace(c.Refresh.URL)
	c.Refresh.Path = strings.TrimSpace(c.Refresh.Path)
	if c.Refresh.Path == "" {
		c.Refresh.Path = defaultRefreshPath
	}
	var err error
	if c.Refresh.Path, err = expandPath(c.Refresh.Path); err != nil {
		return fmt.Errorf("refresh.path: %w", err)
	}
	return nil
}

func (c *Config) normalizePaths() error {
	if strings.TrimSpace(c.Paths.LockDir) == "" {
		c.Paths.LockDir = defaultLockDir
	}
	var err error
	if c.Paths.LockDir, err = expandPath(c.Paths.LockDir); err != nil {
		return fmt.Errorf("paths.lock_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
