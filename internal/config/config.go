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

// Paths contains output and state locations.
type Paths struct {
	OutputDir string `toml:"output_dir"`
	HistoryDB string `toml:"history_db"`
}

// Stitch contains worker pool and compositor settings.
type Stitch struct {
	// Workers is the number of concurrent workers. Zero means one per CPU.
	Workers     int `toml:"workers"`
	JPEGQuality int `toml:"jpeg_quality"`
	// StrictDimensions fails a group when a tile does not match the first
	// tile's size instead of drawing it as-is.
	StrictDimensions bool  `toml:"strict_dimensions"`
	MaxCanvasPixels  int64 `toml:"max_canvas_pixels"`
}

// Naming describes the tile filename contract
// <identifier><delimiter><column_prefix>N<delimiter><row_prefix>N.<ext>.
type Naming struct {
	Delimiter    string `toml:"delimiter"`
	ColumnPrefix string `toml:"column_prefix"`
	RowPrefix    string `toml:"row_prefix"`
}

// Scan contains input listing settings.
type Scan struct {
	// Ignore lists filepath.Match patterns for names that are skipped before parsing.
	Ignore []string `toml:"ignore"`
}

// History controls the run history ledger.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	File   string `toml:"file"`
}

// Config encapsulates all configuration values for the stitcher.
//
// Configuration sections by subsystem:
//   - Paths: default output directory and history database
//   - Stitch: worker count, JPEG quality, dimension checks, canvas guard
//   - Naming: tile filename delimiter and coordinate prefixes
//   - Scan: names skipped while listing the input directory
//   - History: run ledger toggle
//   - Logging: log format, level, and optional file
type Config struct {
	Paths   Paths   `toml:"paths"`
	Stitch  Stitch  `toml:"stitch"`
	Naming  Naming  `toml:"naming"`
	Scan    Scan    `toml:"scan"`
	History History `toml:"history"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
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
		decoder.DisallowUnknownFields()
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

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("stitcher.toml")
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

// EnsureDirectories creates the directories the CLI writes into. The output
// directory itself is created per run so a mistyped --output is not left behind.
func (c *Config) EnsureDirectories() error {
	if c.History.Enabled && strings.TrimSpace(c.Paths.HistoryDB) != "" {
		dir := filepath.Dir(c.Paths.HistoryDB)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}
	if file := strings.TrimSpace(c.Logging.File); file != "" {
		dir := filepath.Dir(file)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create log directory %q: %w", dir, err)
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
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
