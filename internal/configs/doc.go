// Package configs manages Mainsail's configuration and folder layout.
//
// Configuration is stored in TOML format in the user's config directory
// (os.UserConfigDir()/mainsail):
//
//   - config.toml: the current configuration
//   - backup.toml: the configuration that was current before the last change
//   - trusted_keys.txt: public keys the user chose to always trust
//   - audit.jsonl: the operation log
//
// # Current and Backup Snapshots
//
// The key store compares the key location in config.toml with the one in
// backup.toml to decide whether the secret key must be migrated. Whenever
// config.toml changes, and after every key save or migration, the backup is
// brought up to date. Snapshots owns both files and is passed explicitly to
// the code that needs it.
//
// A config that fails validation (for example the filesystem strategy with an
// empty key_dir) is removed and replaced by the platform defaults:
//
//   - macOS: keychain "login"
//   - Windows: credential locker
//   - elsewhere: filesystem, in <config dir>/keys
//
// # Folder Layout
//
// The work-queue folders live under ~/Desktop or
// ~/Documents/_digital_signatures:
//
//	to-sign/            documents waiting to be signed
//	to-sign/signed/     signed documents and their artifacts
//	to-check/           documents and artifacts waiting to be verified
//	to-check/quarantine/
//	to-check/verified/
//	to-check/checked/{,sig/,bundle/}
//
// PrepareFolders creates the tree, moving it over from the other root when
// folders_location changes.
package configs
