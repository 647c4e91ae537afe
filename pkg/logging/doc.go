// Package logging provides the subsystem logger used by the pijaz CLI.
//
// It is a thin layer over log/slog: Init installs a text or JSON handler as
// both the package logger and the slog default, so the pijaz client library
// (which takes a *slog.Logger) and the CLI write to the same place.
//
// # Usage
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Config", "Loaded configuration from %s", path)
//	logging.Debug("Render", "Generated URL for workflow %s", workflow)
//	logging.Error("Serve", err, "Failed to render product")
//
//	manager, err := pijaz.NewServerManager(cfg,
//	    pijaz.WithLogger(logging.Logger("Client")))
//
// Every entry carries a subsystem attribute:
//
//   - Config: configuration loading, validation and reloads
//   - Client: token acquisition and API commands
//   - Render: URL generation and image downloads
//   - Serve: the HTTP render endpoint
//
// Messages below the configured level are dropped before formatting.
package logging
