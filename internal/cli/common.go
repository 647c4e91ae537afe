package cli

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
)

// FormatError formats an error message for CLI output
func FormatError(err error) string {
	return text.FgRed.Sprintf("Error: %s", Describe(err))
}

// FormatSuccess formats a success message for CLI output
func FormatSuccess(msg string) string {
	return fmt.Sprintf("%s %s", text.FgGreen.Sprint("✓"), msg)
}

// FormatWarning formats a warning message for CLI output
func FormatWarning(msg string) string {
	return fmt.Sprintf("%s %s", text.FgYellow.Sprint("⚠"), msg)
}
