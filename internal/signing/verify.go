package signing

import (
	"crypto/ed25519"

	"github.com/PolarWolf314/mainsail/internal/envelope"
)

// Verify checks signature over document for publicKey. It returns false for
// a well-formed signature that does not match, and ErrInvalidEncoding when
// either string cannot be decoded.
func Verify(document []byte, signature, publicKey string) (bool, error) {
	pk, err := envelope.DecodeKey(publicKey)
	if err != nil {
		return false, err
	}
	sig, err := envelope.DecodeSignature(signature)
	if err != nil {
		return false, err
	}
	return ed25519.Verify(ed25519.PublicKey(pk), document, sig), nil
}
