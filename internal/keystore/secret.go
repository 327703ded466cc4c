package keystore

// Secret is the base64-encoded 32-byte Ed25519 seed as stored in a backend.
type Secret string

// String keeps the secret out of logs and error messages.
func (Secret) String() string {
	return "[redacted]"
}

// GoString keeps the secret out of %#v output.
func (Secret) GoString() string {
	return "keystore.Secret([redacted])"
}

// Reveal returns the raw stored value.
func (s Secret) Reveal() string {
	return string(s)
}
