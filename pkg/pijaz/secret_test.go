package pijaz

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecretRedaction(t *testing.T) {
	s := NewSecret("hunter2")

	assert.Equal(t, "hunter2", s.Value())
	assert.False(t, s.IsEmpty())
	assert.Equal(t, "[REDACTED]", s.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", s))
	assert.NotContains(t, fmt.Sprintf("%#v", s), "hunter2")
	assert.NotContains(t, fmt.Sprintf("%+v", DefaultConfig("app", "hunter2")), "hunter2")

	data, err := json.Marshal(struct{ Key Secret }{s})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Key":"[REDACTED]"}`, string(data))

	assert.True(t, Secret{}.IsEmpty())
}
