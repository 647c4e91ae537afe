package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ConfigurationError represents a structured error that occurs during configuration loading
type ConfigurationError struct {
	FilePath    string   `json:"filePath"`    // Full path to the file that caused the error
	FileName    string   `json:"fileName"`    // Base name of the file
	ErrorType   string   `json:"errorType"`   // Type of error (parse, format, io)
	Message     string   `json:"message"`     // Human-readable error message
	Details     string   `json:"details"`     // Additional details about the error
	LineNumber  int      `json:"lineNumber"`  // Line number where error occurred (if available)
	Suggestions []string `json:"suggestions"` // Actionable suggestions to fix the error
}

// Error implements the error interface
func (ce ConfigurationError) Error() string {
	if ce.LineNumber > 0 {
		return fmt.Sprintf("%s:%d: %s", ce.FileName, ce.LineNumber, ce.Message)
	}
	return fmt.Sprintf("%s: %s", ce.FileName, ce.Message)
}

// DetailedError returns a detailed error message with all context
func (ce ConfigurationError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Configuration Error in %s", ce.FileName))
	parts = append(parts, fmt.Sprintf("  File: %s", ce.FilePath))
	parts = append(parts, fmt.Sprintf("  Type: %s", ce.ErrorType))

	if ce.LineNumber > 0 {
		parts = append(parts, fmt.Sprintf("  Line: %d", ce.LineNumber))
	}

	parts = append(parts, fmt.Sprintf("  Error: %s", ce.Message))

	if ce.Details != "" {
		parts = append(parts, fmt.Sprintf("  Details: %s", ce.Details))
	}

	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, suggestion := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", suggestion))
		}
	}

	return strings.Join(parts, "\n")
}

func newParseError(path, format string, err error, line int) ConfigurationError {
	return ConfigurationError{
		FilePath:   path,
		FileName:   filepath.Base(path),
		ErrorType:  "parse",
		Message:    fmt.Sprintf("invalid %s", strings.ToUpper(format)),
		Details:    err.Error(),
		LineNumber: line,
		Suggestions: []string{
			"Check the indentation and quoting around the reported line",
			"Durations are strings such as \"10s\" or \"1m\"",
			"Parameter values must be strings; quote numbers",
		},
	}
}

func newIOError(path string, err error) ConfigurationError {
	return ConfigurationError{
		FilePath:  path,
		FileName:  filepath.Base(path),
		ErrorType: "io",
		Message:   "cannot read configuration",
		Details:   err.Error(),
	}
}
