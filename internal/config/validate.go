package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateOutput(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSources() error {
	if len(c.Sources.URLs) == 0 {
		return errors.New("sources.urls must list at least one feed URL")
	}
	for _, raw := range c.Sources.URLs {
		parsed, err := url.Parse(raw)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("sources.urls entry %q is not an absolute URL", raw)
		}
	}
	if c.Sources.Timeout < 0 {
		return errors.New("sources.timeout must not be negative")
	}
	return nil
}

func (c *Config) validateOutput() error {
	switch c.Output.Mode {
	case OutputModeBoth, OutputModeGzip:
	default:
		return fmt.Errorf("output.mode must be %q or %q, got %q", OutputModeBoth, OutputModeGzip, c.Output.Mode)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}
