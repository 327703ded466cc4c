package audit

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Operation names recorded in the log.
const (
	OpGenerate = "generate"
	OpSign     = "sign"
	OpVerify   = "verify"
	OpTrust    = "trust"
	OpMigrate  = "migrate"
	OpDelete   = "delete"
	OpConfig   = "config"
)

// Entry represents a single audit log entry.
type Entry struct {
	Timestamp string `json:"ts"`     // RFC3339 with microseconds.
	Operation string `json:"op"`     // Operation name.
	RunID     string `json:"run_id"` // Shared by every entry of one command run.

	// Optional fields depending on operation.
	Files     []string `json:"files,omitempty"`      // For sign/verify/trust.
	PublicKey string   `json:"public_key,omitempty"` // Signer or own key.
	Outcome   string   `json:"outcome,omitempty"`    // signed, verified, quarantined, checked...
	Verdict   string   `json:"verdict,omitempty"`    // For trust.
	From      string   `json:"from,omitempty"`       // For migrate.
	To        string   `json:"to,omitempty"`         // For migrate.
	Error     string   `json:"error,omitempty"`
}

// Log appends entries to a JSON Lines file. A nil *Log records nothing.
type Log struct {
	Path  string
	RunID string

	mu sync.Mutex
}

// New returns a Log writing to path with a fresh run ID.
func New(path string) *Log {
	return &Log{Path: path, RunID: uuid.New().String()}
}

// Record appends an entry to the audit log.
// If logging fails, it is silently dropped.
// Operations should not fail just because audit logging failed.
func (l *Log) Record(entry Entry) {
	if l == nil || l.Path == "" {
		return
	}

	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000000Z")
	}
	if entry.RunID == "" {
		entry.RunID = l.RunID
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(l.Path), 0700); err != nil {
		return
	}
	f, err := os.OpenFile(l.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return
	}
	defer f.Close()

	_, _ = f.Write(append(data, '\n'))
}

// ReadEntries reads all entries from the audit log.
// Returns an empty slice if the log doesn't exist.
func ReadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return ParseEntries(data)
}

// ParseEntries parses JSON Lines data into audit entries.
// Malformed lines are silently skipped.
func ParseEntries(data []byte) ([]Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var entries []Entry
	start := 0

	for i := 0; i <= len(data); i++ {
		if i == len(data) || data[i] == '\n' {
			line := data[start:i]
			start = i + 1

			if len(line) == 0 {
				continue
			}

			var entry Entry
			if err := json.Unmarshal(line, &entry); err != nil {
				continue
			}
			entries = append(entries, entry)
		}
	}

	return entries, nil
}
