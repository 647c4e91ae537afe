package cmd

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/pijaz/pijaz-go/internal/app"
	"github.com/pijaz/pijaz-go/internal/cli"
	"github.com/pijaz/pijaz-go/pkg/pijaz"
)

func newSaveCmd() *cobra.Command {
	var (
		flags       cli.RenderFlags
		output      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Render the configured product to image files",
		Long: `Renders the product and writes the image to a file.

With --output a single image is written. Without it every entry of the
renders section is rendered, up to --concurrency at a time. Parameters
given with --param apply to every entry.

Examples:
  pijaz save --output card.png -p message=Hello
  pijaz save --concurrency 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := cli.ParseParams(flags.Params)
			if err != nil {
				return err
			}
			if concurrency < 1 {
				return fmt.Errorf("--concurrency must be at least 1")
			}

			application, err := newApplication(false)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			ctx := commandContext(cmd)

			if output != "" {
				progress := cli.StartProgress(cmd.ErrOrStderr(), commonFlags.Quiet, "Rendering "+output)
				result := application.Save(ctx, app.RenderOptions{
					Workflow:   flags.Workflow,
					Parameters: params,
					Output:     output,
				})
				progress.Stop()
				return reportSaves(out, []app.SaveResult{result}, result.Err)
			}

			total := len(application.PijazConfig().Renders)
			var finished atomic.Int32
			progress := cli.StartProgress(cmd.ErrOrStderr(), commonFlags.Quiet, fmt.Sprintf("Rendering %d images", total))
			results, err := application.SaveAll(ctx, params, concurrency, func(r app.SaveResult) {
				progress.Update(fmt.Sprintf("Rendered %d/%d (%s)", finished.Add(1), total, r.Output))
			})
			progress.Stop()
			return reportSaves(out, results, err)
		},
	}

	cli.RegisterRenderFlags(cmd, &flags)
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write a single image to this file instead of the configured renders")
	cmd.Flags().IntVar(&concurrency, "concurrency", app.DefaultConcurrency, "Maximum renders in flight")
	return cmd
}

// saveFailure summarizes failed renders that were already reported one by
// one. It unwraps to the failures so the exit code can be derived from them.
type saveFailure struct {
	failed int
	total  int
	err    error
}

func (e *saveFailure) Error() string {
	return fmt.Sprintf("%d of %d renders failed", e.failed, e.total)
}

func (e *saveFailure) Unwrap() error {
	return e.err
}

// reportSaves prints one line per result. Declined renders turn a nil err
// into a render-unavailable error so the exit status reflects them.
func reportSaves(out io.Writer, results []app.SaveResult, err error) error {
	declined, failed := 0, 0
	for _, r := range results {
		switch {
		case r.Err != nil:
			failed++
			fmt.Fprintln(out, cli.FormatError(fmt.Errorf("%s: %w", r.Output, r.Err)))
		case r.Saved:
			fmt.Fprintln(out, cli.FormatSuccess("Saved "+r.Output))
		default:
			declined++
			fmt.Fprintln(out, cli.FormatWarning(r.Output+": render server returned no image"))
		}
	}

	if err != nil {
		if failed == 0 {
			return err
		}
		return &saveFailure{failed: failed, total: len(results), err: err}
	}
	if declined > 0 {
		return fmt.Errorf("%w: %d of %d renders returned no image", pijaz.ErrRenderUnavailable, declined, len(results))
	}
	return nil
}
