package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStitch()
	c.normalizeNaming()
	c.normalizeScan()
	if err := c.normalizeLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(strings.TrimSpace(c.Paths.OutputDir)); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.HistoryDB) == "" {
		c.Paths.HistoryDB = defaultHistoryDB
	}
	if c.Paths.HistoryDB, err = expandPath(strings.TrimSpace(c.Paths.HistoryDB)); err != nil {
		return fmt.Errorf("paths.history_db: %w", err)
	}
	return nil
}

func (c *Config) normalizeStitch() {
	if c.Stitch.Workers < 0 {
		c.Stitch.Workers = 0
	}
	if c.Stitch.JPEGQuality == 0 {
		c.Stitch.JPEGQuality = defaultJPEGQuality
	}
	if c.Stitch.MaxCanvasPixels <= 0 {
		c.Stitch.MaxCanvasPixels = defaultMaxCanvasPixels
	}
}

func (c *Config) normalizeNaming() {
	if c.Naming.Delimiter == "" {
		c.Naming.Delimiter = defaultDelimiter
	}
	if c.Naming.ColumnPrefix == "" {
		c.Naming.ColumnPrefix = defaultColumnPrefix
	}
	if c.Naming.RowPrefix == "" {
		c.Naming.RowPrefix = defaultRowPrefix
	}
}

func (c *Config) normalizeScan() {
	if len(c.Scan.Ignore) == 0 {
		c.Scan.Ignore = nil
		return
	}
	patterns := make([]string, 0, len(c.Scan.Ignore))
	seen := make(map[string]struct{}, len(c.Scan.Ignore))
	for _, pattern := range c.Scan.Ignore {
		trimmed := strings.TrimSpace(pattern)
		if trimmed == "" {
			continue
		}
		if _, exists := seen[trimmed]; exists {
			continue
		}
		seen[trimmed] = struct{}{}
		patterns = append(patterns, trimmed)
	}
	c.Scan.Ignore = patterns
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if file := strings.TrimSpace(c.Logging.File); file != "" {
		expanded, err := expandPath(file)
		if err != nil {
			return fmt.Errorf("logging.file: %w", err)
		}
		c.Logging.File = expanded
	}
	return nil
}
