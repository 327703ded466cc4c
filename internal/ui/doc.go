// Package ui provides semantic text formatting for CLI output.
//
// Formatters render content by type (paths, keys, commands, outcomes) and
// fall back to text decorations when NO_COLOR is set or the terminal has no
// color support.
//
//	ui.Code.Sprint("mainsail auto-verify")  // Commands
//	ui.Path.Sprint("to-check/quarantine")   // File paths
//	ui.Key.Sprint(publicKey)                // Encoded public keys
//	ui.Highlight.Sprint("login")            // User values
//	ui.Outcome("quarantined")               // Per-file result with symbol
//
// Without color:
//   - Code: `backticks`
//   - Highlight: 'single quotes'
//   - Key: <angle brackets>
//   - Muted: (parentheses)
//   - Others: no decoration
package ui
