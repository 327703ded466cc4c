// Package logger provides leveled logging for Mainsail commands and workflows.
//
// Output is prefixed and colored with fatih/color.
//
// # Verbosity Levels
//
//   - --verbose: Shows info and warning messages
//   - --debug: Shows all messages including debug details and errors
//
// Without flags, only WarnfAlways, WarnfUser and Fatalf produce output.
//
// # Log Methods
//
//	Logger.Infof()          // Shown with --verbose or --debug
//	Logger.Debugf()         // Shown only with --debug
//	Logger.Warnf()          // Shown with --verbose or --debug
//	Logger.WarnfAlways()    // Always shown (critical warnings)
//	Logger.WarnfUser()      // User-facing warnings
//	Logger.Errorf()         // Shown with --debug
//	Logger.ErrorfAndReturn() // Errorf, then returns the formatted error
//	Logger.Fatalf()         // Always shown, then exits
//
// The zero Logger writes to os.Stdout and os.Stderr. Tests set Out and Err
// to capture output.
package logger
