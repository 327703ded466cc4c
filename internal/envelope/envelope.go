package envelope

import (
	"fmt"
	"strings"
	"unicode/utf8"

	merrors "github.com/PolarWolf314/mainsail/internal/errors"
)

const (
	// HeaderSize is the serialized size of the signature block.
	HeaderSize = 315

	// lineWidth is the width every banner is centered to.
	lineWidth = 44

	// SignatureLength is the encoded length of a 64-byte signature.
	SignatureLength = 88

	// PublicKeyLength is the encoded length of a 32-byte public key.
	PublicKeyLength = 44
)

// Fixed offsets into the header.
const (
	sigFirstStart  = 45
	sigFirstEnd    = 89
	sigSecondStart = 90
	sigSecondEnd   = 134
	publicKeyStart = 225
	publicKeyEnd   = 269
)

const (
	beginSignature = "BEGIN SIGNATURE"
	endSignature   = "END SIGNATURE"
	beginPublicKey = "BEGIN PUBLIC KEY FOR SIGNER"
	endPublicKey   = "END PUBLIC KEY FOR SIGNER"
)

// Header is the decoded content of a signature block.
type Header struct {
	Signature string
	PublicKey string
}

// EncodeHeader renders the 315-byte signature block for a signature and
// public key.
func EncodeHeader(signature, publicKey string) ([]byte, error) {
	if len(signature) != SignatureLength {
		return nil, fmt.Errorf("%w: signature must be %d characters, got %d", merrors.ErrInvalidEncoding, SignatureLength, len(signature))
	}
	if len(publicKey) != PublicKeyLength {
		return nil, fmt.Errorf("%w: public key must be %d characters, got %d", merrors.ErrInvalidEncoding, PublicKeyLength, len(publicKey))
	}

	var b strings.Builder
	b.Grow(HeaderSize)
	writeLine(&b, center(beginSignature))
	writeLine(&b, signature[:lineWidth])
	writeLine(&b, signature[lineWidth:])
	writeLine(&b, center(endSignature))
	writeLine(&b, center(beginPublicKey))
	writeLine(&b, publicKey)
	writeLine(&b, center(endPublicKey))

	return []byte(b.String()), nil
}

// DecodeHeader reads the signature and public key from the first 315 bytes
// of block. Banner lines are not checked.
func DecodeHeader(block []byte) (Header, error) {
	if len(block) < HeaderSize {
		return Header{}, fmt.Errorf("%w: need %d bytes, got %d", merrors.ErrMalformedEnvelope, HeaderSize, len(block))
	}
	blk := block[:HeaderSize]
	if !utf8.Valid(blk) {
		return Header{}, fmt.Errorf("%w: header is not valid UTF-8", merrors.ErrMalformedEnvelope)
	}

	sig := string(blk[sigFirstStart:sigFirstEnd]) + string(blk[sigSecondStart:sigSecondEnd])
	pk := string(blk[publicKeyStart:publicKeyEnd])
	return Header{Signature: sig, PublicKey: pk}, nil
}

// SplitBundle separates a bundle into its header and the signed message.
func SplitBundle(data []byte) (header, message []byte, err error) {
	if len(data) < HeaderSize {
		return nil, nil, fmt.Errorf("%w: bundle shorter than header", merrors.ErrMalformedEnvelope)
	}
	return data[:HeaderSize], data[HeaderSize:], nil
}

// center pads s with dashes to lineWidth columns. When the padding is odd
// the extra dash goes on the right.
func center(s string) string {
	pad := lineWidth - len(s)
	if pad <= 0 {
		return s
	}
	left := pad / 2
	return strings.Repeat("-", left) + s + strings.Repeat("-", pad-left)
}

func writeLine(b *strings.Builder, s string) {
	b.WriteString(s)
	b.WriteByte('\n')
}
