package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pijaz/pijaz-go/internal/config"
)

// CommandFlags holds the flag values shared by every pijaz command.
type CommandFlags struct {
	// ConfigPath specifies a configuration directory or file
	ConfigPath string
	// Debug enables debug logging, including HTTP exchanges
	Debug bool
	// Quiet suppresses progress indicators and non-essential output
	Quiet bool
}

// RegisterCommonFlags registers the persistent flags on the root command.
//
// The registered flags are:
//   - --config-path: Configuration directory or file
//   - --debug: Enable debug logging
//   - --quiet/-q: Suppress non-essential output
func RegisterCommonFlags(cmd *cobra.Command, flags *CommandFlags) {
	cmd.PersistentFlags().StringVar(&flags.ConfigPath, "config-path", config.GetDefaultConfigPathOrPanic(), "Configuration directory or file")
	cmd.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVarP(&flags.Quiet, "quiet", "q", false, "Suppress non-essential output")
}

// RenderFlags holds the flags that adjust the configured product.
type RenderFlags struct {
	// Workflow overrides product.workflow
	Workflow string
	// Params are key=value pairs applied on top of product.parameters
	Params []string
}

// RegisterRenderFlags registers --workflow and --param on cmd.
func RegisterRenderFlags(cmd *cobra.Command, flags *RenderFlags) {
	cmd.Flags().StringVarP(&flags.Workflow, "workflow", "w", "", "Workflow ID (overrides product.workflow)")
	cmd.Flags().StringArrayVarP(&flags.Params, "param", "p", nil, "Render parameter as key=value (repeatable)")
}

// ParseParams converts key=value pairs to a map. Later pairs win; an empty
// value is kept so it can clear a configured parameter.
func ParseParams(pairs []string) (map[string]string, error) {
	params := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid parameter %q: expected key=value", pair)
		}
		params[key] = value
	}
	return params, nil
}
