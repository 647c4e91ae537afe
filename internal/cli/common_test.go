package cli

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pijaz/pijaz-go/pkg/pijaz"
)

func TestFormatMessages(t *testing.T) {
	assert.Contains(t, FormatSuccess("Saved a.png"), "Saved a.png")
	assert.Contains(t, FormatWarning("declined"), "declined")
	assert.Contains(t, FormatError(errors.New("boom")), "Error: boom")
}

func TestFormatError_ClassifiesTransportFailures(t *testing.T) {
	err := fmt.Errorf("%w for workflow %q: %w", pijaz.ErrRenderUnavailable, "1",
		&pijaz.TransportError{Method: "POST", URL: "https://api.example.com/get-token", Err: errors.New("connection refused")})

	msg := FormatError(err)

	assert.Contains(t, msg, "render unavailable: ")
	assert.Contains(t, msg, "connection refused")
}
