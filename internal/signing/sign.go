package signing

import (
	"crypto/ed25519"

	"github.com/PolarWolf314/mainsail/internal/envelope"
)

// Envelope is a signature and its signer's public key, optionally bundled
// with the signed message.
type Envelope struct {
	Format    envelope.Format
	Signature string
	PublicKey string
	Header    []byte

	// Message is set only for bundles.
	Message []byte
}

// Bytes returns the artifact as written to disk.
func (e Envelope) Bytes() []byte {
	if e.Format != envelope.Bundled {
		return append([]byte(nil), e.Header...)
	}
	out := make([]byte, 0, len(e.Header)+len(e.Message))
	out = append(out, e.Header...)
	return append(out, e.Message...)
}

// Sign signs document and packs the result in the requested format.
func Sign(kp KeyPair, document []byte, format envelope.Format) (Envelope, error) {
	sig := envelope.EncodeSignature(ed25519.Sign(kp.private, document))
	pk := kp.PublicKey()

	header, err := envelope.EncodeHeader(sig, pk)
	if err != nil {
		return Envelope{}, err
	}

	env := Envelope{
		Format:    format,
		Signature: sig,
		PublicKey: pk,
		Header:    header,
	}
	if format == envelope.Bundled {
		env.Message = document
	}
	return env, nil
}
