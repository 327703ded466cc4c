// Package audit records an operation trail for Mainsail.
//
// Every signature created, every verification outcome, every trust decision
// and every key migration is appended to a JSON Lines file:
//
//	<config dir>/mainsail/audit.jsonl
//
// Each entry contains:
//   - Timestamp (RFC3339 with microseconds, UTC)
//   - Operation name
//   - A run ID shared by all entries written during one command
//   - Operation-specific details (files, public key, outcome, verdict)
//
// # Usage
//
//	log := audit.New(settings.AuditLogPath())
//	log.Record(audit.Entry{Operation: audit.OpSign, Files: []string{doc}})
//
// # Failure Handling
//
// Audit logging is best-effort. If logging fails (permissions, disk full,
// etc.), the operation continues without error.
//
// # Reading Logs
//
// Use ReadEntries() to parse the audit log for display or analysis.
// Malformed entries are silently skipped to handle partial writes.
package audit
