package pijaz

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultAPIServerURL is the base URL of the API service.
	DefaultAPIServerURL = "http://api.pijaz.com/"

	// DefaultRenderServerURL is the base URL of the rendering service.
	DefaultRenderServerURL = "http://render.pijaz.com/"

	// DefaultAPIVersion is the only API version currently served.
	DefaultAPIVersion = "1"

	// DefaultRefreshFuzz is shaved off every token lifetime so tokens are
	// renewed slightly before the server expires them.
	DefaultRefreshFuzz = 10 * time.Second

	// DefaultRetryCount is the number of additional attempts made for an API
	// command whose HTTP exchange failed.
	DefaultRetryCount = 1

	// DefaultHTTPTimeout bounds every HTTP request.
	DefaultHTTPTimeout = 30 * time.Second

	// NoRefreshFuzz as Config.RefreshFuzz uses token lifetimes unshortened.
	NoRefreshFuzz time.Duration = -1

	// NoRetries as Config.RetryCount makes a single attempt per API command.
	NoRetries = -1

	renderEndpoint = "render-image"
)

// Config holds the client credentials and server endpoints. It is copied into
// the ServerManager and not modified afterwards.
//
// Zero values select the named defaults, so Config{AppID: id, APIKey: key}
// behaves like DefaultConfig. Use NoRefreshFuzz and NoRetries to turn the
// refresh margin or retries off.
type Config struct {
	// AppID is the ID of the client application. Required.
	AppID string

	// APIKey authorizes AppID against the API server. Required.
	APIKey Secret

	// APIServerURL is the base URL of the API service, with trailing slash.
	APIServerURL string

	// RenderServerURL is the base URL of the rendering service, with trailing slash.
	RenderServerURL string

	// APIVersion is sent with every API command.
	APIVersion string

	// RefreshFuzz is subtracted from token lifetimes. Zero means
	// DefaultRefreshFuzz.
	RefreshFuzz time.Duration

	// RetryCount is how many additional attempts are made when an API
	// command fails at the transport level. Zero means DefaultRetryCount.
	RetryCount int

	// RetryDelay is the pause between attempts.
	RetryDelay time.Duration

	// HTTPTimeout bounds each HTTP request. Zero means DefaultHTTPTimeout.
	HTTPTimeout time.Duration
}

// DefaultConfig returns a configuration for the given credentials with every
// other field set to its named default.
func DefaultConfig(appID, apiKey string) Config {
	return Config{
		AppID:           appID,
		APIKey:          NewSecret(apiKey),
		APIServerURL:    DefaultAPIServerURL,
		RenderServerURL: DefaultRenderServerURL,
		APIVersion:      DefaultAPIVersion,
		RefreshFuzz:     DefaultRefreshFuzz,
		RetryCount:      DefaultRetryCount,
		HTTPTimeout:     DefaultHTTPTimeout,
	}
}

// withDefaults fills zero fields from the named defaults and resolves the
// NoRefreshFuzz and NoRetries sentinels to zero.
func (c Config) withDefaults() Config {
	if c.APIServerURL == "" {
		c.APIServerURL = DefaultAPIServerURL
	}
	if c.RenderServerURL == "" {
		c.RenderServerURL = DefaultRenderServerURL
	}
	if c.APIVersion == "" {
		c.APIVersion = DefaultAPIVersion
	}
	if c.HTTPTimeout == 0 {
		c.HTTPTimeout = DefaultHTTPTimeout
	}
	switch c.RefreshFuzz {
	case 0:
		c.RefreshFuzz = DefaultRefreshFuzz
	case NoRefreshFuzz:
		c.RefreshFuzz = 0
	}
	switch c.RetryCount {
	case 0:
		c.RetryCount = DefaultRetryCount
	case NoRetries:
		c.RetryCount = 0
	}
	return c
}

// Validate checks that all required fields are set and well formed.
func (c Config) Validate() error {
	if strings.TrimSpace(c.AppID) == "" {
		return fmt.Errorf("pijaz: AppID is required")
	}
	if c.APIKey.IsEmpty() {
		return fmt.Errorf("pijaz: APIKey is required")
	}
	if err := validateServerURL("APIServerURL", c.APIServerURL); err != nil {
		return err
	}
	if err := validateServerURL("RenderServerURL", c.RenderServerURL); err != nil {
		return err
	}
	if c.RefreshFuzz < 0 && c.RefreshFuzz != NoRefreshFuzz {
		return fmt.Errorf("pijaz: RefreshFuzz must not be negative")
	}
	if c.RetryCount < 0 && c.RetryCount != NoRetries {
		return fmt.Errorf("pijaz: RetryCount must not be negative")
	}
	if c.RetryDelay < 0 {
		return fmt.Errorf("pijaz: RetryDelay must not be negative")
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("pijaz: HTTPTimeout must not be negative")
	}
	return nil
}

func validateServerURL(field, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("pijaz: %s is not a valid URL: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("pijaz: %s must be an absolute http(s) URL, got %q", field, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("pijaz: %s has no host: %q", field, raw)
	}
	return nil
}
