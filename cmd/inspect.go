package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pijaz/pijaz-go/internal/app"
	"github.com/pijaz/pijaz-go/internal/cli"
	"github.com/pijaz/pijaz-go/internal/config"
	"github.com/pijaz/pijaz-go/internal/template"
	"github.com/pijaz/pijaz-go/pkg/pijaz"
)

type inspectView struct {
	ConfigPath string                `json:"configPath"`
	Valid      bool                  `json:"valid"`
	Problems   []string              `json:"problems,omitempty"`
	Client     clientView            `json:"client"`
	Product    productView           `json:"product"`
	Renders    []config.RenderConfig `json:"renders,omitempty"`
	Token      *tokenView            `json:"token,omitempty"`
}

type clientView struct {
	AppID        string `json:"appId"`
	APIKey       string `json:"apiKey"`
	APIServer    string `json:"apiServer"`
	RenderServer string `json:"renderServer"`
	APIVersion   string `json:"apiVersion"`
	RefreshFuzz  string `json:"refreshFuzz"`
	RetryCount   int    `json:"retryCount"`
	RetryDelay   string `json:"retryDelay"`
	Timeout      string `json:"timeout"`
}

type productView struct {
	Workflow   string            `json:"workflow"`
	Parameters map[string]string `json:"parameters,omitempty"`
	Defaults   map[string]string `json:"defaults,omitempty"`
	Templated  []string          `json:"templated,omitempty"`
	Variables  []string          `json:"variables,omitempty"`
}

type tokenView struct {
	Workflow         string   `json:"workflow"`
	IssuedAt         string   `json:"issuedAt"`
	ExpiresAt        string   `json:"expiresAt"`
	Lifetime         string   `json:"lifetime"`
	AccessParameters []string `json:"accessParameters"`
}

func newInspectCmd() *cobra.Command {
	var (
		flags     cli.RenderFlags
		output    string
		noHeaders bool
		withToken bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show the effective configuration and render parameters",
		Long: `Shows the loaded configuration, the render parameters after template
expansion and any validation problems. The API key is never printed.

With --token an access token is acquired (or reused) and its lifetime and
access parameter names are shown; values stay hidden.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.ValidateOutputFormat(output); err != nil {
				return err
			}
			params, err := cli.ParseParams(flags.Params)
			if err != nil {
				return err
			}

			application, err := newApplication(true)
			if err != nil {
				return err
			}

			opts := app.RenderOptions{Workflow: flags.Workflow, Parameters: params}
			view, err := buildInspectView(application, opts)
			if err != nil {
				return err
			}

			if withToken {
				token, err := application.AccessToken(commandContext(cmd), opts)
				if err != nil {
					return err
				}
				view.Token = newTokenView(token, application.PijazConfig().Client.RefreshFuzz.Std())
			}

			printer := &cli.Printer{Format: cli.OutputFormat(output), NoHeaders: noHeaders, Out: cmd.OutOrStdout()}
			if printer.Format != cli.OutputFormatTable {
				return printer.PrintObject(view)
			}
			printInspectTables(printer, view)
			return nil
		},
	}

	cli.RegisterRenderFlags(cmd, &flags)
	cmd.Flags().StringVarP(&output, "output", "o", string(cli.OutputFormatTable), "Output format: table, json, yaml")
	cmd.Flags().BoolVar(&noHeaders, "no-headers", false, "Omit table headers and section titles")
	cmd.Flags().BoolVar(&withToken, "token", false, "Acquire an access token and show its details")
	return cmd
}

func buildInspectView(application *app.Application, opts app.RenderOptions) (*inspectView, error) {
	cfg := application.PijazConfig()

	apiKey := "(unset)"
	if cfg.Client.APIKey != "" {
		apiKey = pijaz.NewSecret(cfg.Client.APIKey).String()
	}

	view := &inspectView{
		ConfigPath: application.ConfigPath(),
		Valid:      true,
		Client: clientView{
			AppID:        cfg.Client.AppID,
			APIKey:       apiKey,
			APIServer:    cfg.Client.APIServer,
			RenderServer: cfg.Client.RenderServer,
			APIVersion:   cfg.Client.APIVersion,
			RefreshFuzz:  cfg.Client.RefreshFuzz.Std().String(),
			RetryCount:   cfg.Client.RetryCount,
			RetryDelay:   cfg.Client.RetryDelay.Std().String(),
			Timeout:      cfg.Client.Timeout.Std().String(),
		},
		Product: productView{
			Workflow:   cfg.Product.Workflow,
			Parameters: cfg.Product.Parameters,
			Defaults:   cfg.Product.Defaults,
		},
		Renders: cfg.Renders,
	}

	for key, value := range cfg.Product.Parameters {
		if template.IsTemplate(value) {
			view.Product.Templated = append(view.Product.Templated, key)
		}
	}
	sort.Strings(view.Product.Templated)
	view.Product.Variables = template.New().ExtractVariables(cfg.Product.Parameters)

	if verr := application.ValidationError(); verr != nil {
		view.Valid = false
		var errs config.ValidationErrors
		if errors.As(verr, &errs) {
			for _, e := range errs {
				view.Problems = append(view.Problems, e.Error())
			}
		} else {
			view.Problems = []string{verr.Error()}
		}
		return view, nil
	}

	product, err := application.NewProduct(opts)
	if err != nil {
		return nil, err
	}
	view.Product.Workflow = product.WorkflowID()
	view.Product.Parameters = product.RenderParameters()
	view.Product.Defaults = product.ParameterDefaults()
	return view, nil
}

func newTokenView(token *pijaz.AccessToken, fuzz time.Duration) *tokenView {
	return &tokenView{
		Workflow:         token.Workflow,
		IssuedAt:         token.IssuedAt.Format(time.RFC3339),
		ExpiresAt:        token.ExpiresAt(fuzz).Format(time.RFC3339),
		Lifetime:         token.Lifetime.String(),
		AccessParameters: token.AccessParameters.Keys(),
	}
}

func printInspectTables(printer *cli.Printer, view *inspectView) {
	status := "valid"
	if !view.Valid {
		status = "invalid"
	}

	sections := []cli.Section{
		{
			Title: "Configuration",
			Rows: map[string]string{
				"path":   view.ConfigPath,
				"status": status,
			},
		},
		{
			Title: "Client",
			Rows: map[string]string{
				"appId":        view.Client.AppID,
				"apiKey":       view.Client.APIKey,
				"apiServer":    view.Client.APIServer,
				"renderServer": view.Client.RenderServer,
				"apiVersion":   view.Client.APIVersion,
				"refreshFuzz":  view.Client.RefreshFuzz,
				"retryCount":   strconv.Itoa(view.Client.RetryCount),
				"retryDelay":   view.Client.RetryDelay,
				"timeout":      view.Client.Timeout,
			},
		},
		{Title: "Parameters (workflow " + view.Product.Workflow + ")", Rows: view.Product.Parameters},
		{Title: "Defaults", Rows: view.Product.Defaults},
	}

	if view.Token != nil {
		sections = append(sections, cli.Section{
			Title: "Access token",
			Rows: map[string]string{
				"workflow":   view.Token.Workflow,
				"issuedAt":   view.Token.IssuedAt,
				"expiresAt":  view.Token.ExpiresAt,
				"lifetime":   view.Token.Lifetime,
				"parameters": strings.Join(view.Token.AccessParameters, ", "),
			},
		})
	}

	printer.PrintSections(sections)

	if len(view.Renders) > 0 {
		printer.PrintRows([]string{"OUTPUT", "WORKFLOW", "PARAMETERS"}, renderRows(view.Renders))
	}
	for _, problem := range view.Problems {
		fmt.Fprintln(printer.Out, cli.FormatWarning(problem))
	}
}

func renderRows(renders []config.RenderConfig) [][]string {
	rows := make([][]string, 0, len(renders))
	for _, r := range renders {
		keys := make([]string, 0, len(r.Parameters))
		for k, v := range r.Parameters {
			keys = append(keys, k+"="+v)
		}
		sort.Strings(keys)
		workflow := r.Workflow
		if workflow == "" {
			workflow = "(product)"
		}
		rows = append(rows, []string{r.Output, workflow, strings.Join(keys, " ")})
	}
	return rows
}
