// Package workflows provides high-level orchestration for Mainsail commands.
//
// Workflows coordinate the configuration, key store, signing, trust and
// audit packages to implement complete user-facing features. They know
// nothing about flags, spinners or prompts; the cmd/ package supplies those
// through callbacks such as DecisionFunc and keystore.RetryPolicy.
//
// # Folder loops
//
// AutoSign and AutoVerify each run one pass over their inbox per call to
// Pass. Run and RunWithWake repeat a pass until the context is cancelled.
// Authenticate runs once over the verified folder and asks a DecisionFunc
// about every signer with an active profile.
//
// Files that belong together (a document and its detached signature, or a
// bundle and its unpacked document) are moved as a group: either every file
// reaches its destination or the ones already moved are put back.
//
// # Key and config workflows
//
//   - GenerateAndSaveKey, LoadKey, DeleteKey: secret key lifecycle
//   - Reconfigure: save a new configuration and move the key to match
//   - EnsureFolders: create or move the folder tree
//   - SignFile, VerifyFile: one-off operations that move nothing
//   - CheckKey, TrustKey: trust list and registry queries
//
// # Error Handling
//
// Workflows return sentinel errors from internal/errors wrapped with %w.
// Per-file problems inside a pass are reported in FileResult rather than
// stopping the pass.
package workflows
