package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	logger "github.com/PolarWolf314/mainsail/internal/logging"
)

const configHeader = `# Mainsail configuration
#
# folders_location         default 'Desktop'; else 'Documents'
# signature_format         default 'bundled'; else 'separate'
# key_management_strategy  'keychain' (macOS), 'locker' (Windows) or 'filesystem'
# keychain_name            default 'login' on macOS
# key_dir                  directory holding the key file when using 'filesystem'

`

// Snapshots owns the current configuration and the backup copy of the
// previous one.
type Snapshots struct {
	Path       string
	BackupPath string
	Defaults   Config
	Logger     logger.Logger
}

// Load reads config.toml. A missing file yields the defaults. A file that
// fails validation is removed and the defaults are returned.
func (s *Snapshots) Load() (Config, error) {
	return s.load(s.Path)
}

// LoadBackup reads backup.toml with the same rules as Load.
func (s *Snapshots) LoadBackup() (Config, error) {
	return s.load(s.BackupPath)
}

func (s *Snapshots) SaveCurrent(cfg Config) error {
	return s.save(s.Path, cfg)
}

func (s *Snapshots) SaveBackup(cfg Config) error {
	return s.save(s.BackupPath, cfg)
}

// SyncBackup overwrites backup.toml with the current configuration, its key
// fields replaced by settled, the location the key actually lives at.
func (s *Snapshots) SyncBackup(settled KeyLocation) error {
	cfg, err := s.Load()
	if err != nil {
		return err
	}
	return s.SaveBackup(cfg.WithKeyLocation(settled))
}

func (s *Snapshots) load(path string) (Config, error) {
	cfg := s.Defaults

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return s.Defaults, nil
	}

	if _, err := LoadTOML(path, &cfg); err != nil {
		s.Logger.WarnfAlways("Could not parse %s, using defaults: %v", path, err)
		return s.Defaults, nil
	}

	if err := cfg.Validate(); err != nil {
		s.Logger.WarnfUser("%v. Using the default configuration; the invalid file %s has been removed.", err, path)
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return s.Defaults, fmt.Errorf("failed to remove invalid config %s: %w", path, rmErr)
		}
		return s.Defaults, nil
	}

	return cfg, nil
}

func (s *Snapshots) save(path string, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := saveTOMLWithHeader(path, configHeader, cfg); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}

