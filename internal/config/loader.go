package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/pijaz/pijaz-go/pkg/logging"
)

const (
	userConfigDir = ".config/pijaz"

	envAppID        = "PIJAZ_APP_ID"
	envAPIKey       = "PIJAZ_API_KEY"
	envAPIServer    = "PIJAZ_API_SERVER"
	envRenderServer = "PIJAZ_RENDER_SERVER"
)

// configFileNames are tried in order when a directory is given.
var configFileNames = []string{"config.yaml", "config.yml", "config.toml"}

// Overridable in tests.
var (
	osUserHomeDir = os.UserHomeDir
	lookupEnv     = os.LookupEnv
)

func GetDefaultConfigPathOrPanic() string {
	homeDir, err := osUserHomeDir()
	if err != nil {
		panic(fmt.Errorf("could not determine user config directory: %w", err))
	}

	return filepath.Join(homeDir, userConfigDir)
}

// ResolveConfigFile returns the configuration file for configPath. A file path
// is returned as is; for a directory the first existing entry of
// config.yaml, config.yml and config.toml is returned. An empty string with a
// nil error means no configuration file exists.
func ResolveConfigFile(configPath string) (string, error) {
	info, err := os.Stat(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	if !info.IsDir() {
		return configPath, nil
	}

	for _, name := range configFileNames {
		candidate := filepath.Join(configPath, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", nil
}

// LoadConfig loads configuration from configPath, which may be a directory or
// a file. Defaults are applied first, then the file, then PIJAZ_* environment
// variables. A missing file is not an error.
func LoadConfig(configPath string) (PijazConfig, error) {
	config := GetDefaultConfig()

	configFilePath, err := ResolveConfigFile(configPath)
	if err != nil {
		return PijazConfig{}, newIOError(configPath, err)
	}

	if configFilePath == "" {
		logging.Info("ConfigLoader", "No configuration file found at %s, using defaults", configPath)
	} else {
		data, err := os.ReadFile(configFilePath)
		if err != nil {
			logging.Info("ConfigLoader", "Error loading %s: %s", configFilePath, err)
			return PijazConfig{}, newIOError(configFilePath, err)
		}
		if err := decode(configFilePath, data, &config); err != nil {
			return PijazConfig{}, err
		}
		logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	}

	applyEnvOverrides(&config)
	return config, nil
}

func decode(path string, data []byte, out *PijazConfig) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(out); err != nil {
			return newParseError(path, "toml", err, tomlErrorLine(err))
		}
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return newParseError(path, "yaml", err, yamlErrorLine(err))
		}
	default:
		return ConfigurationError{
			FilePath:    path,
			FileName:    filepath.Base(path),
			ErrorType:   "format",
			Message:     fmt.Sprintf("unsupported configuration format %q", filepath.Ext(path)),
			Suggestions: []string{"Use a .yaml, .yml or .toml file"},
		}
	}
	return nil
}

func applyEnvOverrides(config *PijazConfig) {
	overrides := []struct {
		name   string
		target *string
	}{
		{envAppID, &config.Client.AppID},
		{envAPIKey, &config.Client.APIKey},
		{envAPIServer, &config.Client.APIServer},
		{envRenderServer, &config.Client.RenderServer},
	}
	for _, o := range overrides {
		if v, ok := lookupEnv(o.name); ok && v != "" {
			logging.Debug("ConfigLoader", "Using %s from environment", o.name)
			*o.target = v
		}
	}
}

var yamlLinePattern = regexp.MustCompile(`line (\d+)`)

func yamlErrorLine(err error) int {
	m := yamlLinePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	line, _ := strconv.Atoi(m[1])
	return line
}

func tomlErrorLine(err error) int {
	var de *toml.DecodeError
	if errors.As(err, &de) {
		row, _ := de.Position()
		return row
	}
	return 0
}
