// Package config provides configuration management for the pijaz CLI.
//
// Configuration is loaded from a single directory, by default
// ~/.config/pijaz, or from an explicit file given with --config-path. The
// directory is searched for config.yaml, config.yml and config.toml in that
// order. YAML files are decoded with gopkg.in/yaml.v3, TOML files with
// github.com/pelletier/go-toml/v2; unknown keys are rejected by both.
//
// # Precedence
//
//  1. Built-in defaults (GetDefaultConfig)
//  2. The configuration file
//  3. PIJAZ_APP_ID, PIJAZ_API_KEY, PIJAZ_API_SERVER, PIJAZ_RENDER_SERVER
//
// # Example
//
//	logLevel: warn
//	client:
//	  appId: my-app
//	  apiKey: s3cret
//	  refreshFuzz: 10s
//	  retryCount: 2
//	product:
//	  workflow: greeting-card
//	  parameters:
//	    message: "Happy {{ now | date \"2006\" }}"
//	  defaults:
//	    font: Arial
//	renders:
//	  - output: out/red.png
//	    parameters:
//	      color: red
//	serve:
//	  listen: localhost:8090
//
// Parameter values are templates expanded by the template package at render
// time, not at load time.
//
// # Errors
//
// Read and decode failures are returned as ConfigurationError, carrying the
// file, line when known, and suggestions. PijazConfig.Validate reports every
// invalid field at once as ValidationErrors.
//
// # Watching
//
// Watcher observes the configuration directory with fsnotify, falling back to
// polling, and calls OnChange once per debounced burst of writes.
package config
