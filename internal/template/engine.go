package template

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Engine expands render parameter values written as Go templates. Values may
// reference context variables ({{ .workflow }}) and any sprig function
// ({{ now | date "2006-01-02" }}, {{ upper .name }}).
type Engine struct {
	funcs template.FuncMap

	// Pattern to match context references like {{ .variableName }}
	variablePattern *regexp.Regexp
}

// New creates a new template engine
func New() *Engine {
	return &Engine{
		funcs:           sprig.TxtFuncMap(),
		variablePattern: regexp.MustCompile(`(?:^|[\s(|{])\.([a-zA-Z_][a-zA-Z0-9_]*)`),
	}
}

// IsTemplate reports whether value contains template actions.
func IsTemplate(value string) bool {
	return strings.Contains(value, "{{")
}

// Expand renders a single value against ctx. Values without template actions
// are returned unchanged. References to missing context keys are errors.
func (e *Engine) Expand(name, value string, ctx *Context) (string, error) {
	if !IsTemplate(value) {
		return value, nil
	}

	tmpl, err := template.New(name).
		Funcs(e.funcs).
		Option("missingkey=error").
		Parse(value)
	if err != nil {
		return "", fmt.Errorf("invalid template for %q: %w", name, err)
	}

	var out strings.Builder
	if err := tmpl.Execute(&out, ctx.Values()); err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", name, err)
	}
	return out.String(), nil
}

// ExpandParameters expands every value of params and returns a new map.
// Errors name the offending parameter.
func (e *Engine) ExpandParameters(params map[string]string, ctx *Context) (map[string]string, error) {
	result := make(map[string]string, len(params))

	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		expanded, err := e.Expand(key, params[key], ctx)
		if err != nil {
			return nil, fmt.Errorf("error in parameter '%s': %w", key, err)
		}
		result[key] = expanded
	}

	return result, nil
}

// ExtractVariables returns the sorted context variable names referenced by the
// templated values of params.
func (e *Engine) ExtractVariables(params map[string]string) []string {
	variables := make(map[string]bool)

	for _, value := range params {
		if !IsTemplate(value) {
			continue
		}
		for _, action := range actionPattern.FindAllString(value, -1) {
			for _, match := range e.variablePattern.FindAllStringSubmatch(action, -1) {
				variables[match[1]] = true
			}
		}
	}

	result := make([]string, 0, len(variables))
	for varName := range variables {
		result = append(result, varName)
	}
	sort.Strings(result)
	return result
}

var actionPattern = regexp.MustCompile(`\{\{.*?\}\}`)
