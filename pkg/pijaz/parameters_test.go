package pijaz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParametersMerge(t *testing.T) {
	base := Parameters{"a": "1", "b": "2"}
	overlay := Parameters{"b": "3", "c": "4"}

	merged := base.Merge(overlay)

	assert.Equal(t, Parameters{"a": "1", "b": "3", "c": "4"}, merged)

	merged["a"] = "changed"
	assert.Equal(t, "1", base["a"])
	assert.Equal(t, Parameters{"b": "3", "c": "4"}, overlay)
}

func TestParametersMergeNil(t *testing.T) {
	var p Parameters
	merged := p.Merge(nil)
	assert.NotNil(t, merged)
	assert.Empty(t, merged)
}

func TestParametersClone(t *testing.T) {
	var nilParams Parameters
	assert.NotNil(t, nilParams.Clone())

	p := Parameters{"a": "1"}
	c := p.Clone()
	c["a"] = "2"
	assert.Equal(t, "1", p["a"])
}

func TestParametersEncode(t *testing.T) {
	p := Parameters{"workflow": "wf1", "message": "a&b c", "color": "#fff"}

	assert.Equal(t, []string{"color", "message", "workflow"}, p.Keys())
	assert.Equal(t, "color=%23fff&message=a%26b+c&workflow=wf1", p.Encode())
}
