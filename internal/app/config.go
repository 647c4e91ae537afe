package app

import (
	"io"

	"github.com/pijaz/pijaz-go/internal/config"
)

// Config holds the application configuration
type Config struct {
	// Debug raises the log level to debug regardless of the config file.
	Debug bool

	// Quiet suppresses log output below the error level.
	Quiet bool

	// ConfigPath is a config file or directory. Empty means the user's
	// default config directory.
	ConfigPath string

	// SkipValidation loads the file without rejecting invalid settings.
	// Render operations still fail until the client section is valid.
	SkipValidation bool

	// LogOutput receives log lines. Nil means standard error.
	LogOutput io.Writer

	// PijazConfig is populated during bootstrap.
	PijazConfig *config.PijazConfig
}

// NewConfig creates a new application configuration
func NewConfig(debug, quiet bool, configPath string) *Config {
	return &Config{
		Debug:      debug,
		Quiet:      quiet,
		ConfigPath: configPath,
	}
}
