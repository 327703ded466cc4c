// Package utils provides shared utility functions for Mainsail.
//
// # Filesystem Utilities
//
//   - ListFiles: regular files directly inside a directory, sorted
//   - MoveFile: no-clobber move with a copy fallback across devices
//   - FileExists: regular file check
//
// # System Utilities
//
//   - GetUsername, GetHostname
//   - KeyComment: user@host label for exported public keys
//
// # String Utilities
//
//   - FormatPaths: formats file paths for human-readable output
//   - BaseNames: strips directories from a list of paths
//
// # I/O Utilities
//
//   - ReadStdinLine: reads a single piped value from standard input
//
// # Terminal Utilities
//
//   - IsTerminal, IsInteractive: decide whether prompts can be shown
//   - TerminalWidth: width of stdout for table layout
package utils
