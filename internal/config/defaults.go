package config

import (
	"github.com/pijaz/pijaz-go/pkg/pijaz"
)

const (
	// DefaultListenAddress is where `pijaz serve` listens unless configured.
	DefaultListenAddress = "localhost:8090"

	// DefaultLogLevel is used when logLevel is not set.
	DefaultLogLevel = "warn"
)

// GetDefaultConfig returns the configuration used before any file or
// environment override is applied.
func GetDefaultConfig() PijazConfig {
	return PijazConfig{
		LogLevel: DefaultLogLevel,
		Client: ClientConfig{
			APIServer:    pijaz.DefaultAPIServerURL,
			RenderServer: pijaz.DefaultRenderServerURL,
			APIVersion:   pijaz.DefaultAPIVersion,
			RefreshFuzz:  Duration(pijaz.DefaultRefreshFuzz),
			RetryCount:   pijaz.DefaultRetryCount,
			Timeout:      Duration(pijaz.DefaultHTTPTimeout),
		},
		Serve: ServeConfig{
			Listen: DefaultListenAddress,
		},
	}
}
