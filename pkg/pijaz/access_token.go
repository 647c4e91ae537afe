package pijaz

import (
	"time"
)

// AccessToken is a set of server-issued query parameters that authorize render
// requests for a limited time. Tokens are replaced, never modified in place.
type AccessToken struct {
	// IssuedAt is when the token was acquired.
	IssuedAt time.Time

	// Lifetime is the validity duration declared by the server.
	Lifetime time.Duration

	// Workflow is the workflow the token was issued for.
	Workflow string

	// XML is the xml parameter sent with get-token, if any.
	XML string

	// AccessParameters are merged verbatim into render requests.
	AccessParameters Parameters
}

// ExpiresAt returns the instant after which the token must be renewed, with
// fuzz shaved off the declared lifetime.
func (t *AccessToken) ExpiresAt(fuzz time.Duration) time.Time {
	return t.IssuedAt.Add(t.Lifetime - fuzz)
}

// ValidAt reports whether the token may still be used at now. The boundary is
// inclusive: a token is valid while now <= IssuedAt + Lifetime - fuzz.
// A nil token is never valid.
func (t *AccessToken) ValidAt(now time.Time, fuzz time.Duration) bool {
	if t == nil {
		return false
	}
	return !now.After(t.ExpiresAt(fuzz))
}

// ValidFor is ValidAt plus a check that the token was issued for workflow.
func (t *AccessToken) ValidFor(workflow string, now time.Time, fuzz time.Duration) bool {
	if t == nil || t.Workflow != workflow {
		return false
	}
	return t.ValidAt(now, fuzz)
}

// IssuedFor reports whether the token was requested for workflow and xml.
func (t *AccessToken) IssuedFor(workflow, xml string) bool {
	return t != nil && t.Workflow == workflow && t.XML == xml
}

// AccessHolder is anything that can carry a cached access token for a
// workflow. Product implements it; the ServerManager depends only on this.
type AccessHolder interface {
	WorkflowID() string
	AccessInfo() *AccessToken
	SetAccessInfo(token *AccessToken)
}
