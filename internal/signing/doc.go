// Package signing creates and checks Ed25519 signatures over documents.
//
// Sign produces an Envelope in either bundled or separate form. Verify
// checks a signature given its encoded strings. LoadSignedFile reads the
// files that make up a signed document from disk.
//
// A failing signature is reported as false, never as an error. Errors are
// reserved for envelopes or encodings that cannot be read.
package signing
