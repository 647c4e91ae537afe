package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pijaz/pijaz-go/internal/app"
	"github.com/pijaz/pijaz-go/internal/cli"
)

// Exit codes for CLI commands. The mapping from errors lives in cli.ExitCode.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = cli.ExitOK
	// ExitCodeError indicates a general error (invalid arguments or configuration).
	ExitCodeError = cli.ExitGeneral
	// ExitCodeRenderUnavailable indicates no render URL or image could be produced.
	ExitCodeRenderUnavailable = cli.ExitRenderUnavailable
	// ExitCodeTransport indicates the API or render server could not be reached.
	ExitCodeTransport = cli.ExitTransport
	// ExitCodeFileWrite indicates a rendered image could not be written.
	ExitCodeFileWrite = cli.ExitFileWrite
)

// commonFlags are the persistent flags shared by every subcommand.
var commonFlags cli.CommandFlags

// rootCmd represents the base command for the pijaz application.
// It is the entry point when the application is called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "pijaz",
	Short: "Render images with the Pijaz platform",
	Long: `pijaz builds authenticated render URLs for Pijaz workflows, saves the
rendered images to files and serves them over HTTP.

Credentials, endpoints and the product to render are read from
~/.config/pijaz/config.yaml (or config.toml). PIJAZ_APP_ID, PIJAZ_API_KEY,
PIJAZ_API_SERVER and PIJAZ_RENDER_SERVER override the file.`,
	// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
	SilenceUsage: true,
	// Errors are printed by Execute with their classification.
	SilenceErrors: true,
}

// SetVersion sets the version for the root command.
// This function is typically called from the main package to inject the application version at build time.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute is the main entry point for the CLI application.
// This function is called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "pijaz version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), cli.FormatError(err))
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
// This provides semantic exit codes for scripting and automation.
func getExitCode(err error) int {
	return cli.ExitCode(err)
}

// newApplication bootstraps the application from the persistent flags.
func newApplication(skipValidation bool) (*app.Application, error) {
	cfg := app.NewConfig(commonFlags.Debug, commonFlags.Quiet, commonFlags.ConfigPath)
	cfg.SkipValidation = skipValidation
	return app.NewApplication(cfg)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func init() {
	cli.RegisterCommonFlags(rootCmd, &commonFlags)

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newURLCmd())
	rootCmd.AddCommand(newSaveCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newInspectCmd())
	rootCmd.AddCommand(newSelfUpdateCmd())
}
