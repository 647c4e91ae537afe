package config

import (
	"fmt"
	"time"

	"github.com/pijaz/pijaz-go/pkg/pijaz"
)

// PijazConfig is the top-level configuration structure for the pijaz CLI.
type PijazConfig struct {
	LogLevel string         `yaml:"logLevel,omitempty" toml:"logLevel" json:"logLevel,omitempty"`
	Client   ClientConfig   `yaml:"client" toml:"client" json:"client"`
	Product  ProductConfig  `yaml:"product" toml:"product" json:"product"`
	Renders  []RenderConfig `yaml:"renders,omitempty" toml:"renders" json:"renders,omitempty"`
	Serve    ServeConfig    `yaml:"serve" toml:"serve" json:"serve"`
}

// ClientConfig holds credentials and server endpoints.
type ClientConfig struct {
	AppID        string   `yaml:"appId" toml:"appId" json:"appId"`
	APIKey       string   `yaml:"apiKey" toml:"apiKey" json:"-"`
	APIServer    string   `yaml:"apiServer,omitempty" toml:"apiServer" json:"apiServer,omitempty"`
	RenderServer string   `yaml:"renderServer,omitempty" toml:"renderServer" json:"renderServer,omitempty"`
	APIVersion   string   `yaml:"apiVersion,omitempty" toml:"apiVersion" json:"apiVersion,omitempty"`
	RefreshFuzz  Duration `yaml:"refreshFuzz,omitempty" toml:"refreshFuzz" json:"refreshFuzz"`
	RetryCount   int      `yaml:"retryCount" toml:"retryCount" json:"retryCount"`
	RetryDelay   Duration `yaml:"retryDelay,omitempty" toml:"retryDelay" json:"retryDelay"`
	Timeout      Duration `yaml:"timeout,omitempty" toml:"timeout" json:"timeout"`
}

// ProductConfig describes the product rendered by url, save and serve.
type ProductConfig struct {
	Workflow   string            `yaml:"workflow" toml:"workflow" json:"workflow"`
	XML        string            `yaml:"xml,omitempty" toml:"xml" json:"xml,omitempty"`
	Parameters map[string]string `yaml:"parameters,omitempty" toml:"parameters" json:"parameters,omitempty"`
	Defaults   map[string]string `yaml:"defaults,omitempty" toml:"defaults" json:"defaults,omitempty"`
}

// RenderConfig is one entry of a batch save. Parameters are applied on top of
// the product parameters; Workflow, when set, replaces the product workflow.
type RenderConfig struct {
	Output     string            `yaml:"output" toml:"output" json:"output"`
	Workflow   string            `yaml:"workflow,omitempty" toml:"workflow" json:"workflow,omitempty"`
	Parameters map[string]string `yaml:"parameters,omitempty" toml:"parameters" json:"parameters,omitempty"`
}

// ServeConfig configures the HTTP render endpoint.
type ServeConfig struct {
	Listen string `yaml:"listen,omitempty" toml:"listen" json:"listen,omitempty"`
}

// Duration is a time.Duration written as a string such as "10s" or "1m30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// ClientSettings converts the client section to a pijaz.Config. Defaults are
// already applied to the section, so a zero fuzz or retry count is meant
// literally.
func (c ClientConfig) ClientSettings() pijaz.Config {
	settings := pijaz.Config{
		AppID:           c.AppID,
		APIKey:          pijaz.NewSecret(c.APIKey),
		APIServerURL:    c.APIServer,
		RenderServerURL: c.RenderServer,
		APIVersion:      c.APIVersion,
		RefreshFuzz:     c.RefreshFuzz.Std(),
		RetryCount:      c.RetryCount,
		RetryDelay:      c.RetryDelay.Std(),
		HTTPTimeout:     c.Timeout.Std(),
	}
	if settings.RefreshFuzz == 0 {
		settings.RefreshFuzz = pijaz.NoRefreshFuzz
	}
	if settings.RetryCount == 0 {
		settings.RetryCount = pijaz.NoRetries
	}
	return settings
}
