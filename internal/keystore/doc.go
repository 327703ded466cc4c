// Package keystore keeps the secret signing key in one of three backends
// and moves it when the configured location changes.
//
// # Backends
//
//   - keychain: macOS keychain, or a Secret Service collection on Linux
//   - locker: Windows credential manager
//   - filesystem: a 0600 file named mainsail_signing_key.secret in key_dir
//
// Writes never overwrite an existing key.
//
// # Migration
//
// Store.Reconcile compares the key location in config.toml with the one in
// backup.toml. When the current location is empty and the backup location
// holds a key, the key is copied, the copy is verified, the old copy is
// deleted and backup.toml is brought up to date. At no point are there zero
// live copies. Load and Save reconcile first, so a location change made by
// editing config.toml is picked up on the next use of the key.
//
// Store is the only code that touches a backend.
package keystore
