package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name   string            `json:"name"`
	Params map[string]string `json:"params,omitempty"`
	Secret string            `json:"-"`
}

func TestValidateOutputFormat(t *testing.T) {
	for _, f := range []string{"table", "json", "yaml"} {
		assert.NoError(t, ValidateOutputFormat(f))
	}
	err := ValidateOutputFormat("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "valid: table, json, yaml")
}

func TestPrinter_PrintObject(t *testing.T) {
	v := sample{Name: "card", Params: map[string]string{"color": "red"}, Secret: "hidden"}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		p := &Printer{Format: OutputFormatJSON, Out: &buf}
		require.NoError(t, p.PrintObject(v))

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "card", decoded["name"])
		assert.NotContains(t, buf.String(), "hidden")
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		p := &Printer{Format: OutputFormatYAML, Out: &buf}
		require.NoError(t, p.PrintObject(v))

		assert.Equal(t, "name: card\nparams:\n  color: red\n", buf.String())
	})
}

func TestPrinter_PrintSections(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Format: OutputFormatTable, Out: &buf}

	p.PrintSections([]Section{
		{Title: "Client", Rows: map[string]string{"appId": "my-app", "apiServer": "http://api.pijaz.com/"}},
		{Title: "Empty"},
	})

	out := buf.String()
	assert.Contains(t, out, "Client")
	assert.Contains(t, out, "my-app")
	assert.Contains(t, out, "(none)")
	assert.Less(t, strings.Index(out, "apiServer"), strings.Index(out, "appId"))
}

func TestPrinter_PrintRows(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Format: OutputFormatTable, NoHeaders: true, Out: &buf}

	p.PrintRows([]string{"OUTPUT", "STATUS"}, [][]string{{"a.png", "saved"}})

	assert.Contains(t, buf.String(), "a.png")
	assert.NotContains(t, buf.String(), "OUTPUT")
}

func TestPrinter_PrintSectionsFlattensLongValues(t *testing.T) {
	var buf bytes.Buffer
	p := &Printer{Format: OutputFormatTable, Out: &buf}

	p.PrintSections([]Section{{Title: "Parameters", Rows: map[string]string{
		"xml": "<doc>\n" + strings.Repeat("x", 200) + "\n</doc>",
	}}})

	assert.Contains(t, buf.String(), "<doc> xxx")
	assert.Contains(t, buf.String(), "...")
	assert.NotContains(t, buf.String(), "</doc>")
}
