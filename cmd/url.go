package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pijaz/pijaz-go/internal/app"
	"github.com/pijaz/pijaz-go/internal/cli"
)

func newURLCmd() *cobra.Command {
	var flags cli.RenderFlags

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print a render URL for the configured product",
		Long: `Prints an authenticated render URL for the product configured in the
product section. An access token is requested from the API server when
needed; the URL is valid for the token's lifetime.

Examples:
  pijaz url
  pijaz url -p message="Happy Birthday" -p color=blue
  pijaz url --workflow 42 -p font=`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			params, err := cli.ParseParams(flags.Params)
			if err != nil {
				return err
			}

			application, err := newApplication(false)
			if err != nil {
				return err
			}

			renderURL, err := application.GenerateURL(commandContext(cmd), app.RenderOptions{
				Workflow:   flags.Workflow,
				Parameters: params,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), renderURL)
			return nil
		},
	}

	cli.RegisterRenderFlags(cmd, &flags)
	return cmd
}
