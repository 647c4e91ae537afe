package app

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pijaz/pijaz-go/internal/config"
	"github.com/pijaz/pijaz-go/pkg/logging"
)

// Application wires the loaded configuration to the pijaz client.
//
// Bootstrap happens in two phases: configuration is loaded and logging is set
// up, then services are built from the client section. Reload repeats both
// phases and swaps the result in atomically, so a running server always sees
// a consistent configuration.
//
// Example usage:
//
//	cfg := app.NewConfig(false, false, "")
//	application, err := app.NewApplication(cfg)
//	if err != nil {
//	    return fmt.Errorf("failed to create application: %w", err)
//	}
//	url, err := application.GenerateURL(ctx, app.RenderOptions{})
type Application struct {
	config *Config

	mu            sync.RWMutex
	pijazConfig   config.PijazConfig
	services      *Services
	validationErr error
}

// NewApplication loads the configuration and initializes services.
//
// When cfg.SkipValidation is set an invalid configuration is accepted and
// recorded; ValidationError reports it and render operations fail until a
// valid configuration is loaded.
func NewApplication(cfg *Config) (*Application, error) {
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = config.GetDefaultConfigPathOrPanic()
	}

	initLogging(cfg, config.DefaultLogLevel)

	pijazCfg, err := config.LoadConfig(cfg.ConfigPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Failed to load configuration from %s", cfg.ConfigPath)
		return nil, err
	}

	app := &Application{config: cfg}
	if err := app.apply(pijazCfg); err != nil {
		return nil, err
	}
	return app, nil
}

// Reload re-reads the configuration file and replaces the active settings.
// On error the previous settings stay in effect.
func (a *Application) Reload() error {
	pijazCfg, err := config.LoadConfig(a.config.ConfigPath)
	if err != nil {
		logging.Error("Bootstrap", err, "Reload of %s failed, keeping previous configuration", a.config.ConfigPath)
		return err
	}
	if err := a.apply(pijazCfg); err != nil {
		logging.Error("Bootstrap", err, "Reloaded configuration rejected, keeping previous configuration")
		return err
	}
	logging.Info("Bootstrap", "Configuration reloaded from %s", a.config.ConfigPath)
	return nil
}

func (a *Application) apply(pijazCfg config.PijazConfig) error {
	validationErr := pijazCfg.Validate()
	if validationErr != nil && !a.config.SkipValidation {
		return config.FormatValidationError("configuration", a.config.ConfigPath, validationErr)
	}

	initLogging(a.config, pijazCfg.LogLevel)

	var services *Services
	if validationErr == nil {
		var err error
		services, err = InitializeServices(&pijazCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize services: %w", err)
		}
	}

	snapshot := pijazCfg

	a.mu.Lock()
	a.pijazConfig = pijazCfg
	a.services = services
	a.validationErr = validationErr
	a.config.PijazConfig = &snapshot
	a.mu.Unlock()
	return nil
}

// PijazConfig returns a copy of the active configuration.
func (a *Application) PijazConfig() config.PijazConfig {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pijazConfig
}

// ValidationError returns the validation failure recorded for the active
// configuration, if any.
func (a *Application) ValidationError() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.validationErr
}

// ConfigPath is the file or directory the configuration was loaded from.
func (a *Application) ConfigPath() string {
	return a.config.ConfigPath
}

func (a *Application) current() (*Services, config.PijazConfig, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.services == nil {
		return nil, a.pijazConfig, config.FormatValidationError("configuration", a.config.ConfigPath, a.validationErr)
	}
	return a.services, a.pijazConfig, nil
}

// initLogging sets the log level from, in order of precedence, the debug and
// quiet flags, then the configured level, then info.
func initLogging(cfg *Config, configured string) {
	level := logging.LevelInfo
	if configured != "" {
		if parsed, err := logging.ParseLevel(configured); err == nil {
			level = parsed
		}
	}
	if cfg.Quiet {
		level = logging.LevelError
	}
	if cfg.Debug {
		level = logging.LevelDebug
	}

	var out io.Writer = os.Stderr
	if cfg.LogOutput != nil {
		out = cfg.LogOutput
	}
	logging.InitForCLI(level, out)
}
