package signing

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/PolarWolf314/mainsail/internal/envelope"
	merrors "github.com/PolarWolf314/mainsail/internal/errors"
)

// SignedFile is a document together with its signature, either as a
// detached .edsig next to the document or as a single .edbnl bundle.
type SignedFile struct {
	DocumentPath  string
	SignaturePath string
	BundlePath    string

	Signature string
	PublicKey string
	Message   []byte
}

// LoadSignedFile resolves the companion paths of sf and reads the signature,
// public key and message.
//
// With a bundle path, the header and message come from the bundle and the
// document path is the bundle path without its suffix. Otherwise the missing
// one of document and signature path is derived from the other.
//
// Returns ErrInvalidSignedFile for conflicting paths, ErrMissingSignature or
// ErrMissingDocument when a file is absent, and ErrMalformedEnvelope when the
// header cannot be read.
func LoadSignedFile(sf SignedFile) (*SignedFile, error) {
	switch {
	case sf.BundlePath == "" && sf.SignaturePath == "" && sf.DocumentPath == "":
		return nil, fmt.Errorf("%w: no path supplied", merrors.ErrInvalidSignedFile)
	case sf.BundlePath != "" && sf.SignaturePath != "":
		return nil, fmt.Errorf("%w: both a bundle and a signature were supplied", merrors.ErrInvalidSignedFile)
	case sf.BundlePath != "" && sf.DocumentPath != "":
		return nil, fmt.Errorf("%w: both a bundle and a document were supplied", merrors.ErrInvalidSignedFile)
	}

	out := SignedFile{
		DocumentPath:  sf.DocumentPath,
		SignaturePath: sf.SignaturePath,
		BundlePath:    sf.BundlePath,
	}

	if out.BundlePath != "" {
		data, err := readCompanion(out.BundlePath, merrors.ErrMissingSignature)
		if err != nil {
			return nil, err
		}
		header, message, err := envelope.SplitBundle(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", out.BundlePath, err)
		}
		if err := out.setHeader(header); err != nil {
			return nil, fmt.Errorf("%s: %w", out.BundlePath, err)
		}
		out.Message = message
		out.DocumentPath = strings.TrimSuffix(out.BundlePath, envelope.BundleSuffix)
		return &out, nil
	}

	if out.SignaturePath == "" {
		out.SignaturePath = out.DocumentPath + envelope.SignatureSuffix
	}
	if out.DocumentPath == "" {
		out.DocumentPath = strings.TrimSuffix(out.SignaturePath, envelope.SignatureSuffix)
	}

	header, err := readCompanion(out.SignaturePath, merrors.ErrMissingSignature)
	if err != nil {
		return nil, err
	}
	if err := out.setHeader(header); err != nil {
		return nil, fmt.Errorf("%s: %w", out.SignaturePath, err)
	}

	message, err := readCompanion(out.DocumentPath, merrors.ErrMissingDocument)
	if err != nil {
		return nil, err
	}
	out.Message = message

	return &out, nil
}

func (sf *SignedFile) setHeader(block []byte) error {
	h, err := envelope.DecodeHeader(block)
	if err != nil {
		return err
	}
	sf.Signature = h.Signature
	sf.PublicKey = h.PublicKey
	return nil
}

func readCompanion(path string, missing error) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", missing, path)
		}
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// IsBundle reports whether the signature travels inside a bundle.
func (sf *SignedFile) IsBundle() bool {
	return sf.BundlePath != ""
}

// Verify checks the loaded signature against the loaded message.
func (sf *SignedFile) Verify() (bool, error) {
	return Verify(sf.Message, sf.Signature, sf.PublicKey)
}

// FilesAtRest lists the files that exist on disk for this signed document:
// the bundle alone, or the document and its detached signature.
func (sf *SignedFile) FilesAtRest() []string {
	if sf.IsBundle() {
		return []string{sf.BundlePath}
	}
	return []string{sf.DocumentPath, sf.SignaturePath}
}
