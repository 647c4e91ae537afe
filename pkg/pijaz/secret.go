package pijaz

// Secret wraps a credential so it is never printed by accident.
//
// String, GoString and the text/JSON marshalers all return "[REDACTED]";
// use Value only when the credential has to go on the wire.
type Secret struct {
	value string
}

// NewSecret wraps value.
func NewSecret(value string) Secret {
	return Secret{value: value}
}

// Value returns the wrapped credential.
func (s Secret) Value() string {
	return s.value
}

// String implements fmt.Stringer.
func (s Secret) String() string {
	return "[REDACTED]"
}

// GoString implements fmt.GoStringer.
func (s Secret) GoString() string {
	return "pijaz.Secret{[REDACTED]}"
}

// IsEmpty reports whether no credential is set.
func (s Secret) IsEmpty() bool {
	return s.value == ""
}

// MarshalText implements encoding.TextMarshaler.
func (s Secret) MarshalText() ([]byte, error) {
	return []byte("[REDACTED]"), nil
}

// MarshalJSON implements json.Marshaler.
func (s Secret) MarshalJSON() ([]byte, error) {
	return []byte(`"[REDACTED]"`), nil
}
