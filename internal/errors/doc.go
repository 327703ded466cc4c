// Package errors provides typed error values for Mainsail.
//
// Using sentinel errors allows callers to handle specific error conditions
// programmatically with errors.Is() rather than string matching.
//
// # Error Categories
//
//   - Envelope errors: ErrMalformedEnvelope, ErrInvalidEncoding
//   - Key storage errors: ErrKeyNotFound, ErrKeyAlreadyExists, ErrAccessDenied,
//     ErrLocationUnavailable, ErrMigrationFailed
//   - File errors: ErrMissingSignature, ErrMissingDocument, ErrDestinationExists
//   - Trust errors: ErrConnectivity, ErrRegistryParse
//
// A signature that fails to verify is not an error. Verification returns
// false and the caller quarantines the document.
//
// # Usage
//
// Wrap errors with additional context:
//
//	return fmt.Errorf("reading %s: %w", path, errors.ErrMissingDocument)
//
// Handle errors in the CLI layer:
//
//	kp, err := workflows.LoadKey(ctx, opts)
//	if errors.Is(err, merrors.ErrKeyNotFound) {
//	    // Suggest `mainsail keys generate`
//	}
package errors
