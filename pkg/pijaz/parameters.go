package pijaz

import (
	"net/url"
	"sort"
)

// Parameters is a set of string query parameters. Operations that combine
// parameter sets always return a new map and never alias their inputs.
type Parameters map[string]string

// Clone returns a copy of p. A nil receiver yields an empty, non-nil map.
func (p Parameters) Clone() Parameters {
	out := make(Parameters, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Merge returns a new set holding p overlaid with other. Values from other
// win on key collisions.
func (p Parameters) Merge(other Parameters) Parameters {
	out := make(Parameters, len(p)+len(other))
	for k, v := range p {
		out[k] = v
	}
	for k, v := range other {
		out[k] = v
	}
	return out
}

// Keys returns the parameter names in sorted order.
func (p Parameters) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values converts p to url.Values.
func (p Parameters) Values() url.Values {
	values := make(url.Values, len(p))
	for k, v := range p {
		values.Set(k, v)
	}
	return values
}

// Encode returns the percent-encoded query string, sorted by key.
func (p Parameters) Encode() string {
	return p.Values().Encode()
}
