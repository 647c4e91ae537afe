package template

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpand(t *testing.T) {
	e := New()
	ctx := NewContext("greeting").With("name", "ada")

	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{"plain value untouched", "hello", "hello"},
		{"context variable", "{{ .workflow }}", "greeting"},
		{"sprig function", "{{ upper .name }}", "ADA"},
		{"pipeline", `{{ .name | title | printf "Dear %s" }}`, "Dear Ada"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.Expand("message", tt.value, ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExpand_Date(t *testing.T) {
	got, err := New().Expand("year", `{{ now | date "2006" }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Now().Format("2006"), got)
}

func TestExpand_Errors(t *testing.T) {
	e := New()

	_, err := e.Expand("message", "{{ .nope }}", NewContext("wf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `failed to expand "message"`)

	_, err = e.Expand("message", "{{ .workflow", NewContext("wf"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid template")
}

func TestExpandParameters(t *testing.T) {
	e := New()
	params := map[string]string{
		"message": "{{ .workflow | upper }}",
		"color":   "red",
	}

	got, err := e.ExpandParameters(params, NewContext("card"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"message": "CARD", "color": "red"}, got)
	assert.Equal(t, "{{ .workflow | upper }}", params["message"])

	_, err = e.ExpandParameters(map[string]string{"bad": "{{ .missing }}"}, NewContext("card"))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "error in parameter 'bad'"))
}

func TestExtractVariables(t *testing.T) {
	e := New()
	params := map[string]string{
		"a": "{{ .workflow }} and {{ upper .name }}",
		"b": `{{ printf "%s.txt" .file }}`,
		"c": "plain .notAVariable",
	}

	assert.Equal(t, []string{"file", "name", "workflow"}, e.ExtractVariables(params))
}

func TestContext(t *testing.T) {
	base := NewContext("wf")
	derived := base.With("size", 12)

	assert.Equal(t, map[string]interface{}{"workflow": "wf"}, base.Values())
	assert.Equal(t, 12, derived.Values()["size"])

	var nilCtx *Context
	assert.Empty(t, nilCtx.Values())
}
