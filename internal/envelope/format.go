package envelope

import (
	"encoding/base64"
	"fmt"
	"strings"

	merrors "github.com/PolarWolf314/mainsail/internal/errors"
)

// Format selects whether the message travels inside the envelope.
type Format string

const (
	// Bundled appends the message after the header in a single file.
	Bundled Format = "bundled"
	// Separate writes the header alone next to the document.
	Separate Format = "separate"
)

const (
	BundleSuffix    = ".edbnl"
	SignatureSuffix = ".edsig"
)

// ParseFormat converts a config value into a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case Bundled:
		return Bundled, nil
	case Separate:
		return Separate, nil
	default:
		return "", fmt.Errorf("unknown signature format %q (expected %q or %q)", s, Bundled, Separate)
	}
}

// Suffix returns the file suffix for artifacts in format f.
func Suffix(f Format) string {
	if f == Separate {
		return SignatureSuffix
	}
	return BundleSuffix
}

// EncodeKey encodes a 32-byte key as 44 URL-safe base64 characters.
func EncodeKey(b []byte) string {
	return base64.URLEncoding.EncodeToString(b)
}

// EncodeSignature encodes a 64-byte signature as 88 URL-safe base64 characters.
func EncodeSignature(b []byte) string {
	return base64.URLEncoding.EncodeToString(b)
}

// DecodeKey decodes a 44-character public or secret key string.
func DecodeKey(s string) ([]byte, error) {
	return decodeFixed(s, PublicKeyLength, 32, "key")
}

// DecodeSignature decodes an 88-character signature string.
func DecodeSignature(s string) ([]byte, error) {
	return decodeFixed(s, SignatureLength, 64, "signature")
}

func decodeFixed(s string, encodedLen, rawLen int, what string) ([]byte, error) {
	if len(s) != encodedLen {
		return nil, fmt.Errorf("%w: %s must be %d characters, got %d", merrors.ErrInvalidEncoding, what, encodedLen, len(s))
	}
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", merrors.ErrInvalidEncoding, what, err)
	}
	if len(b) != rawLen {
		return nil, fmt.Errorf("%w: %s decodes to %d bytes, want %d", merrors.ErrInvalidEncoding, what, len(b), rawLen)
	}
	return b, nil
}
