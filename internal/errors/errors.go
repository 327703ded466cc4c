package errors

import "errors"

// Envelope errors indicate a signature block or its encoding cannot be read.
var (
	// ErrMalformedEnvelope indicates the 315-byte header is truncated or not UTF-8.
	ErrMalformedEnvelope = errors.New("malformed signature envelope")

	// ErrInvalidEncoding indicates a signature or public key is not valid base64 of the expected length.
	ErrInvalidEncoding = errors.New("invalid signature or key encoding")
)

// Key storage errors indicate failures reading or writing the secret signing key.
var (
	// ErrKeyNotFound indicates no secret key exists at the configured location.
	ErrKeyNotFound = errors.New("secret key not found")

	// ErrKeyAlreadyExists indicates a secret key already exists at the destination.
	ErrKeyAlreadyExists = errors.New("secret key already exists at this location")

	// ErrAccessDenied indicates the backend refused access (locked keychain, cancelled prompt).
	ErrAccessDenied = errors.New("access to secret key denied")

	// ErrLocationUnavailable indicates the key directory is not mounted or does not exist.
	ErrLocationUnavailable = errors.New("key location unavailable")

	// ErrMigrationFailed indicates the key could not be moved to the configured location.
	ErrMigrationFailed = errors.New("secret key migration failed")

	// ErrInvalidSecretKey indicates the stored secret key is not a valid seed.
	ErrInvalidSecretKey = errors.New("invalid secret key")
)

// File errors indicate issues locating the files that make up a signed document.
var (
	// ErrMissingSignature indicates the detached signature or bundle file does not exist.
	ErrMissingSignature = errors.New("signature file not found")

	// ErrMissingDocument indicates the signed document does not exist.
	ErrMissingDocument = errors.New("document not found")

	// ErrInvalidSignedFile indicates a conflicting set of paths was supplied.
	ErrInvalidSignedFile = errors.New("invalid signed file paths")

	// ErrFileNotFound indicates a specific file could not be located.
	ErrFileNotFound = errors.New("file not found")

	// ErrDestinationExists indicates a relocation target already exists.
	ErrDestinationExists = errors.New("destination file already exists")
)

// Trust errors indicate failures while resolving a signer's profile.
var (
	// ErrConnectivity indicates a registry could not be reached.
	ErrConnectivity = errors.New("registry unreachable")

	// ErrRegistryParse indicates a registry returned a profile that could not be read.
	ErrRegistryParse = errors.New("registry profile could not be parsed")
)

// Configuration errors.
var (
	// ErrInvalidConfig indicates the configuration violates an invariant.
	ErrInvalidConfig = errors.New("configuration is invalid")
)
