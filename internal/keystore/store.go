package keystore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/PolarWolf314/mainsail/internal/configs"
	merrors "github.com/PolarWolf314/mainsail/internal/errors"
	logger "github.com/PolarWolf314/mainsail/internal/logging"
)

const defaultMaxAttempts = 3

// SnapshotWriter persists backup := current once the key is settled at the
// given location. configs.Snapshots satisfies it.
type SnapshotWriter interface {
	SyncBackup(settled configs.KeyLocation) error
}

// RetryPolicy decides whether to look again for a key directory that does
// not exist, typically after asking the user to mount a drive.
type RetryPolicy struct {
	MaxAttempts int

	// ShouldRetry is called after each failed attempt. A nil func never
	// retries.
	ShouldRetry func(ctx context.Context, loc configs.KeyLocation, attempt int) bool
}

func (p RetryPolicy) maxAttempts() int {
	if p.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return p.MaxAttempts
}

// Store is the single entry point to every key backend.
type Store struct {
	Snapshots   SnapshotWriter
	Retry       RetryPolicy
	OpenKeyring KeyringOpener
	Logger      logger.Logger

	// DefaultKeyDir is created on first use instead of being waited for.
	// Any other key_dir is user configured and may be removable media.
	DefaultKeyDir string

	// OnMigrate is called after a key has been moved and verified.
	OnMigrate func(from, to configs.KeyLocation)

	mu sync.Mutex
}

// NewStore returns a Store that opens the platform credential stores.
func NewStore(snapshots SnapshotWriter) *Store {
	return &Store{
		Snapshots:   snapshots,
		OpenKeyring: OpenSystemKeyring,
	}
}

// Probe reports whether a key exists at loc.
func (s *Store) Probe(ctx context.Context, loc configs.KeyLocation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.probe(ctx, loc)
}

// Read returns the key at loc without reconciling.
func (s *Store) Read(ctx context.Context, loc configs.KeyLocation) (Secret, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(ctx, loc)
}

// Write stores secret at loc. Returns ErrKeyAlreadyExists if a key is
// already there.
func (s *Store) Write(ctx context.Context, loc configs.KeyLocation, secret Secret) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(ctx, loc, secret)
}

// Delete removes the key at loc. Failures are logged, not returned.
func (s *Store) Delete(ctx context.Context, loc configs.KeyLocation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delete(ctx, loc)
}

// Remove deletes the key at loc and reports failures. Returns ErrKeyNotFound
// if there is nothing to remove.
func (s *Store) Remove(ctx context.Context, loc configs.KeyLocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, err := s.backend(ctx, loc)
	if err != nil {
		return err
	}
	exists, err := b.Probe(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w in %s", merrors.ErrKeyNotFound, loc.Describe())
	}
	return b.Delete(ctx)
}

// Reconcile moves the key from the backup location to the current one when
// the current location is empty. It reports whether a migration happened.
// Returns ErrMigrationFailed if the key could not be copied; the old copy is
// left untouched in that case.
func (s *Store) Reconcile(ctx context.Context, current, backup configs.KeyLocation) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconcile(ctx, current, backup)
}

// Load reconciles, then reads the key at the current location.
func (s *Store) Load(ctx context.Context, current, backup configs.KeyLocation) (Secret, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.reconcile(ctx, current, backup); err != nil {
		return "", err
	}
	return s.read(ctx, current)
}

// Save reconciles, then writes secret at the current location and records
// the current config as the backup. Returns ErrKeyAlreadyExists if a key is
// already present.
func (s *Store) Save(ctx context.Context, current, backup configs.KeyLocation, secret Secret) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.reconcile(ctx, current, backup); err != nil {
		return err
	}
	if err := s.write(ctx, current, secret); err != nil {
		return err
	}
	s.syncBackup(current)
	return nil
}

func (s *Store) reconcile(ctx context.Context, current, backup configs.KeyLocation) (bool, error) {
	if current.Same(backup) {
		return false, nil
	}

	present, err := s.probe(ctx, current)
	if err != nil {
		return false, err
	}
	if present {
		return false, nil
	}

	old, err := s.probe(ctx, backup)
	if err != nil {
		return false, fmt.Errorf("%w: cannot inspect old location %s: %w", merrors.ErrMigrationFailed, backup.Describe(), err)
	}
	if !old {
		return false, nil
	}

	s.Logger.Infof("Moving secret key from %s to %s", backup.Describe(), current.Describe())

	secret, err := s.read(ctx, backup)
	if err != nil {
		return false, fmt.Errorf("%w: %w", merrors.ErrMigrationFailed, err)
	}
	if err := s.write(ctx, current, secret); err != nil {
		return false, fmt.Errorf("%w: %w", merrors.ErrMigrationFailed, err)
	}

	copied, err := s.probe(ctx, current)
	if err != nil || !copied {
		return false, fmt.Errorf("%w: key not found at %s after copy", merrors.ErrMigrationFailed, current.Describe())
	}

	s.delete(ctx, backup)
	s.syncBackup(current)

	if s.OnMigrate != nil {
		s.OnMigrate(backup, current)
	}
	return true, nil
}

func (s *Store) syncBackup(settled configs.KeyLocation) {
	if s.Snapshots == nil {
		return
	}
	if err := s.Snapshots.SyncBackup(settled); err != nil {
		s.Logger.WarnfAlways("Failed to update backup config: %v", err)
	}
}

func (s *Store) probe(ctx context.Context, loc configs.KeyLocation) (bool, error) {
	b, err := s.backend(ctx, loc)
	if err != nil {
		return false, err
	}
	return b.Probe(ctx)
}

func (s *Store) read(ctx context.Context, loc configs.KeyLocation) (Secret, error) {
	b, err := s.backend(ctx, loc)
	if err != nil {
		return "", err
	}
	return b.Read(ctx)
}

func (s *Store) write(ctx context.Context, loc configs.KeyLocation, secret Secret) error {
	b, err := s.backend(ctx, loc)
	if err != nil {
		return err
	}
	return b.Write(ctx, secret)
}

func (s *Store) delete(ctx context.Context, loc configs.KeyLocation) {
	b, err := s.backend(ctx, loc)
	if err != nil {
		s.Logger.WarnfAlways("Could not delete old key at %s: %v", loc.Describe(), err)
		return
	}
	if err := b.Delete(ctx); err != nil {
		s.Logger.WarnfAlways("Could not delete old key at %s: %v", loc.Describe(), err)
	}
}

func (s *Store) backend(ctx context.Context, loc configs.KeyLocation) (Backend, error) {
	switch loc.Strategy {
	case configs.StrategyFilesystem:
		if err := s.waitForDir(ctx, loc); err != nil {
			return nil, err
		}
		return &fileBackend{dir: loc.KeyDir}, nil

	case configs.StrategyKeychain, configs.StrategyLocker:
		open := s.OpenKeyring
		if open == nil {
			open = OpenSystemKeyring
		}
		ring, err := open(loc)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", merrors.ErrLocationUnavailable, loc.Describe(), err)
		}
		account := KeychainAccount
		if loc.Strategy == configs.StrategyLocker {
			account = LockerAccount
		}
		return &keyringBackend{ring: ring, account: account, label: loc.Describe()}, nil

	default:
		return nil, fmt.Errorf("%w: unknown key management strategy %q", merrors.ErrInvalidConfig, loc.Strategy)
	}
}

// waitForDir checks that key_dir exists, asking the retry policy before
// giving up.
func (s *Store) waitForDir(ctx context.Context, loc configs.KeyLocation) error {
	if loc.KeyDir == "" {
		return fmt.Errorf("%w: key_dir is empty", merrors.ErrInvalidConfig)
	}
	if s.DefaultKeyDir != "" && filepath.Clean(loc.KeyDir) == filepath.Clean(s.DefaultKeyDir) {
		if err := os.MkdirAll(loc.KeyDir, 0700); err != nil {
			return fmt.Errorf("%w: %s: %v", merrors.ErrLocationUnavailable, loc.KeyDir, err)
		}
		return nil
	}
	for attempt := 1; ; attempt++ {
		info, err := os.Stat(loc.KeyDir)
		if err == nil && info.IsDir() {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err == nil {
			err = errors.New("not a directory")
		}
		s.Logger.Debugf("Key directory %s unavailable (attempt %d): %v", loc.KeyDir, attempt, err)

		if attempt >= s.Retry.maxAttempts() || s.Retry.ShouldRetry == nil || !s.Retry.ShouldRetry(ctx, loc, attempt) {
			return fmt.Errorf("%w: %s", merrors.ErrLocationUnavailable, loc.KeyDir)
		}
	}
}
