package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/mainsail/internal/audit"
	"github.com/PolarWolf314/mainsail/internal/configs"
)

// ReconfigureOptions configures the Reconfigure workflow.
type ReconfigureOptions struct {
	Keys *Keys

	// HomeDir anchors the folder tree. Empty skips folder preparation.
	HomeDir string

	// Update edits a copy of the current configuration.
	Update func(cfg *configs.Config) error
}

// ReconfigureResult contains the outcome of a configuration change.
type ReconfigureResult struct {
	Previous configs.Config
	Current  configs.Config

	// Migrated is true when the secret key moved to the new location.
	Migrated bool

	Folders *configs.FolderChanges
}

// Reconfigure applies opts.Update to the current configuration. The old
// configuration becomes the backup, the new one is saved, the folder tree is
// moved when its location changed, and the key is moved to its new location.
//
// Returns ErrInvalidConfig if the updated configuration is invalid; nothing
// is written in that case. A failed key move is returned as
// ErrMigrationFailed after the new configuration has been saved; the key
// stays at its old location and the move is retried on the next key access.
func Reconfigure(ctx context.Context, opts ReconfigureOptions) (*ReconfigureResult, error) {
	snaps := opts.Keys.Snapshots

	prev, err := snaps.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	next := prev
	if opts.Update != nil {
		if err := opts.Update(&next); err != nil {
			return nil, err
		}
	}
	if err := next.Validate(); err != nil {
		return nil, err
	}

	if err := snaps.SaveBackup(prev); err != nil {
		return nil, err
	}
	if err := snaps.SaveCurrent(next); err != nil {
		return nil, err
	}

	result := &ReconfigureResult{Previous: prev, Current: next}
	opts.Keys.Audit.Record(audit.Entry{
		Operation: audit.OpConfig,
		From:      prev.KeyLocation().Describe(),
		To:        next.KeyLocation().Describe(),
		Outcome:   "saved",
	})

	if opts.HomeDir != "" {
		changes, err := configs.PrepareFolders(opts.HomeDir, next.FoldersLocation)
		if err != nil {
			return result, err
		}
		result.Folders = changes
	}

	migrated, err := opts.Keys.Store.Reconcile(ctx, next.KeyLocation(), prev.KeyLocation())
	result.Migrated = migrated
	if err != nil {
		return result, err
	}
	return result, nil
}

// EnsureFolders creates the folder tree at loc, moving it from the other
// location if it exists there.
func EnsureFolders(ctx context.Context, homeDir string, loc configs.FoldersLocation) (*configs.FolderChanges, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return configs.PrepareFolders(homeDir, loc)
}
