package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"sigs.k8s.io/yaml"

	pstrings "github.com/pijaz/pijaz-go/pkg/strings"
)

// OutputFormat represents the supported output formats for CLI commands
type OutputFormat string

const (
	// OutputFormatTable formats output as a rounded table
	OutputFormatTable OutputFormat = "table"
	// OutputFormatJSON formats output as indented JSON
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML formats output as YAML converted from JSON
	OutputFormatYAML OutputFormat = "yaml"
)

// ValidateOutputFormat validates that the given format string is a supported output format.
// Returns nil if valid, or an error with a helpful message listing valid formats.
func ValidateOutputFormat(format string) error {
	switch OutputFormat(format) {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return nil
	default:
		return fmt.Errorf("unsupported output format: %q (valid: table, json, yaml)", format)
	}
}

// Section is a titled set of key/value rows shown as one table.
type Section struct {
	Title string
	Rows  map[string]string
}

// Printer writes command results in the selected format.
type Printer struct {
	Format    OutputFormat
	NoHeaders bool
	Out       io.Writer
}

// PrintObject writes v as JSON or YAML. Table format falls back to YAML.
func (p *Printer) PrintObject(v interface{}) error {
	switch p.Format {
	case OutputFormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode JSON: %w", err)
		}
		_, err = fmt.Fprintln(p.Out, string(data))
		return err
	default:
		// sigs.k8s.io/yaml honours json tags, so both formats show the same keys
		data, err := yaml.Marshal(v)
		if err != nil {
			return fmt.Errorf("failed to encode YAML: %w", err)
		}
		_, err = p.Out.Write(data)
		return err
	}
}

// PrintSections renders each section as a KEY/VALUE table with sorted keys.
func (p *Printer) PrintSections(sections []Section) {
	for i, section := range sections {
		if i > 0 {
			fmt.Fprintln(p.Out)
		}
		if !p.NoHeaders && section.Title != "" {
			fmt.Fprintln(p.Out, text.Bold.Sprint(section.Title))
		}

		if len(section.Rows) == 0 {
			fmt.Fprintln(p.Out, text.FgYellow.Sprint("  (none)"))
			continue
		}

		t := p.newTable()
		if !p.NoHeaders {
			t.AppendHeader(table.Row{
				text.FgHiCyan.Sprint("KEY"),
				text.FgHiCyan.Sprint("VALUE"),
			})
		}

		keys := make([]string, 0, len(section.Rows))
		for k := range section.Rows {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, key := range keys {
			t.AppendRow(table.Row{key, pstrings.Truncate(section.Rows[key], pstrings.DefaultCellMaxLen)})
		}
		t.Render()
	}
}

// PrintRows renders a table with the given headers.
func (p *Printer) PrintRows(headers []string, rows [][]string) {
	t := p.newTable()
	if !p.NoHeaders {
		header := make(table.Row, len(headers))
		for i, h := range headers {
			header[i] = text.FgHiCyan.Sprint(h)
		}
		t.AppendHeader(header)
	}
	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		t.AppendRow(r)
	}
	t.Render()
}

func (p *Printer) newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.Out)
	t.SetStyle(table.StyleRounded)
	return t
}
