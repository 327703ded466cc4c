package signing

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"strings"

	"golang.org/x/crypto/ssh"

	"github.com/PolarWolf314/mainsail/internal/envelope"
	merrors "github.com/PolarWolf314/mainsail/internal/errors"
)

// KeyPair is an Ed25519 signing key and its public half.
type KeyPair struct {
	private ed25519.PrivateKey
}

// GenerateKey creates a key pair from a fresh random seed.
func GenerateKey() (KeyPair, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("failed to generate key: %w", err)
	}
	return KeyPair{private: priv}, nil
}

// KeyFromSecret rebuilds a key pair from its encoded seed, as returned by
// Secret.
func KeyFromSecret(secret string) (KeyPair, error) {
	seed, err := envelope.DecodeKey(strings.TrimSpace(secret))
	if err != nil {
		return KeyPair{}, fmt.Errorf("%w: %v", merrors.ErrInvalidSecretKey, err)
	}
	return KeyPair{private: ed25519.NewKeyFromSeed(seed)}, nil
}

// Secret returns the seed encoded for storage.
func (kp KeyPair) Secret() string {
	return envelope.EncodeKey(kp.private.Seed())
}

// PublicKey returns the 44-character encoded public key.
func (kp KeyPair) PublicKey() string {
	return envelope.EncodeKey(kp.publicKey())
}

func (kp KeyPair) publicKey() ed25519.PublicKey {
	return kp.private.Public().(ed25519.PublicKey)
}

// AuthorizedKey renders the public key as an OpenSSH authorized_keys line.
func (kp KeyPair) AuthorizedKey(comment string) (string, error) {
	pub, err := ssh.NewPublicKey(kp.publicKey())
	if err != nil {
		return "", fmt.Errorf("failed to convert public key: %w", err)
	}
	line := strings.TrimSuffix(string(ssh.MarshalAuthorizedKey(pub)), "\n")
	if comment != "" {
		line += " " + comment
	}
	return line, nil
}
