package workflows

// Per-file outcomes reported by the folder workflows.
const (
	OutcomeSigned      = "signed"
	OutcomeVerified    = "verified"
	OutcomeQuarantined = "quarantined"
	OutcomeSkipped     = "skipped"
	OutcomeFailed      = "failed"
	OutcomeChecked     = "checked"
	OutcomeDistrusted  = "distrusted"
	OutcomeDeferred    = "deferred"
)

// FileResult describes what happened to one file during a pass.
type FileResult struct {
	// Name is the base name of the file that was picked up.
	Name string

	// Outcome is one of the Outcome constants.
	Outcome string

	// Files lists where the files ended up (or were left).
	Files []string

	// PublicKey is the signer's key when known.
	PublicKey string

	// Reason explains skips, failures and trust verdicts.
	Reason string

	Err error
}

// PassResult collects the results of one pass over a folder.
type PassResult struct {
	Files []FileResult

	// NeedsRestart is set when files were put on the skip list because a
	// companion was missing. A fresh loop will look at them again.
	NeedsRestart bool
}

// Count returns how many files ended with outcome.
func (r *PassResult) Count(outcome string) int {
	n := 0
	for _, f := range r.Files {
		if f.Outcome == outcome {
			n++
		}
	}
	return n
}
