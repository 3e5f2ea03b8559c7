package config

const (
	defaultConfigPath      = "~/.config/stitcher/config.toml"
	defaultOutputDir       = "Stitched"
	defaultHistoryDB       = "~/.local/share/stitcher/history.db"
	defaultJPEGQuality     = 90
	defaultMaxCanvasPixels = 1 << 28
	defaultDelimiter       = "_"
	defaultColumnPrefix    = "x"
	defaultRowPrefix       = "y"
	defaultHistoryEnabled  = true
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir: defaultOutputDir,
			HistoryDB: defaultHistoryDB,
		},
		Stitch: Stitch{
			JPEGQuality:     defaultJPEGQuality,
			MaxCanvasPixels: defaultMaxCanvasPixels,
		},
		Naming: Naming{
			Delimiter:    defaultDelimiter,
			ColumnPrefix: defaultColumnPrefix,
			RowPrefix:    defaultRowPrefix,
		},
		History: History{
			Enabled: defaultHistoryEnabled,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
