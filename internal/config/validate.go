package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"unicode/utf8"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStitch(); err != nil {
		return err
	}
	if err := c.validateNaming(); err != nil {
		return err
	}
	if err := c.validateScan(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateStitch() error {
	if c.Stitch.JPEGQuality < 1 || c.Stitch.JPEGQuality > 100 {
		return fmt.Errorf("stitch.jpeg_quality must be between 1 and 100, got %d", c.Stitch.JPEGQuality)
	}
	if c.Stitch.MaxCanvasPixels <= 0 {
		return errors.New("stitch.max_canvas_pixels must be positive")
	}
	return nil
}

func (c *Config) validateNaming() error {
	fields := []struct {
		key   string
		value string
	}{
		{"naming.delimiter", c.Naming.Delimiter},
		{"naming.column_prefix", c.Naming.ColumnPrefix},
		{"naming.row_prefix", c.Naming.RowPrefix},
	}
	for _, field := range fields {
		if utf8.RuneCountInString(field.value) != 1 {
			return fmt.Errorf("%s must be exactly one character, got %q", field.key, field.value)
		}
		if field.value == "." {
			return fmt.Errorf("%s cannot be %q; it separates the file extension", field.key, field.value)
		}
		if r, _ := utf8.DecodeRuneInString(field.value); r >= '0' && r <= '9' {
			return fmt.Errorf("%s cannot be a digit, got %q", field.key, field.value)
		}
	}
	if c.Naming.Delimiter == c.Naming.ColumnPrefix || c.Naming.Delimiter == c.Naming.RowPrefix {
		return fmt.Errorf("naming.delimiter %q must differ from the coordinate prefixes", c.Naming.Delimiter)
	}
	return nil
}

func (c *Config) validateScan() error {
	for _, pattern := range c.Scan.Ignore {
		if _, err := filepath.Match(pattern, ""); err != nil {
			return fmt.Errorf("scan.ignore: invalid pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
