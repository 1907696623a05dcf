package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateIntercept(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.DataDir == "" {
		return errors.New("paths.data_dir must be set")
	}
	if c.Watch.Enabled && c.Paths.DownloadsDir == "" {
		return errors.New("paths.downloads_dir must be set when watch.enabled is true")
	}
	return nil
}

func (c *Config) validateIntercept() error {
	if c.Intercept.SimilarityThreshold < 0 || c.Intercept.SimilarityThreshold > 1 {
		return errors.New("intercept.similarity_threshold must be between 0 and 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
}
