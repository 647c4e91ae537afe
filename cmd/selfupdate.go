package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/spf13/cobra"
)

// releaseRepoSlug is the GitHub repository (owner/repo) that publishes releases.
const releaseRepoSlug = "pijaz/pijaz-go"

// releaseSource finds and installs releases. *selfupdate.Updater implements it.
type releaseSource interface {
	DetectLatest(ctx context.Context, repository selfupdate.Repository) (*selfupdate.Release, bool, error)
	UpdateTo(ctx context.Context, rel *selfupdate.Release, cmdPath string) error
}

// newReleaseSource is replaced in tests.
var newReleaseSource = func() (releaseSource, error) {
	return selfupdate.NewUpdater(selfupdate.Config{})
}

// newSelfUpdateCmd creates the Cobra command for the self-update functionality.
func newSelfUpdateCmd() *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "self-update",
		Short: "Update pijaz to the latest version",
		Long: `Checks for the latest release of pijaz on GitHub and
replaces the current binary if a newer version is found.

Use --check to only report whether an update is available.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSelfUpdate(commandContext(cmd), cmd.OutOrStdout(), rootCmd.Version, checkOnly)
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Only check for a newer version")
	return cmd
}

// runSelfUpdate compares currentVersion with the latest release and installs
// it over the running executable unless checkOnly is set.
func runSelfUpdate(ctx context.Context, out io.Writer, currentVersion string, checkOnly bool) error {
	// development builds do not follow semantic versioning
	if currentVersion == "" || currentVersion == "dev" {
		return fmt.Errorf("cannot self-update a development version")
	}

	fmt.Fprintf(out, "Current version: %s\n", currentVersion)

	source, err := newReleaseSource()
	if err != nil {
		return fmt.Errorf("failed to create updater: %w", err)
	}

	latest, found, err := source.DetectLatest(ctx, selfupdate.ParseSlug(releaseRepoSlug))
	if err != nil {
		return fmt.Errorf("error detecting latest version: %w", err)
	}
	if !found {
		return fmt.Errorf("latest release for %s could not be found", releaseRepoSlug)
	}

	if !latest.GreaterThan(currentVersion) {
		fmt.Fprintln(out, "Current version is the latest.")
		return nil
	}

	fmt.Fprintf(out, "Found newer version: %s (published at %s)\n", latest.Version(), latest.PublishedAt)
	if checkOnly {
		return nil
	}
	fmt.Fprintf(out, "Release notes:\n%s\n", latest.ReleaseNotes)

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("could not locate executable path: %w", err)
	}

	fmt.Fprintf(out, "Updating %s to version %s...\n", exe, latest.Version())
	if err := source.UpdateTo(ctx, latest, exe); err != nil {
		return fmt.Errorf("update failed: %w", err)
	}

	fmt.Fprintf(out, "Successfully updated to version %s\n", latest.Version())
	return nil
}
