package configs

import (
	"log"
	"os"
	"path/filepath"
)

const appName = "mainsail"

// Settings holds the paths Mainsail reads and writes outside the folder tree.
type Settings struct {
	HomeDir   string
	ConfigDir string
}

// UserMainsailSettings is resolved once at startup from the user's home and
// config directories.
var UserMainsailSettings *Settings

func init() {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Fatalf("error getting home directory: %s", err)
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		log.Fatalf("error getting config directory: %s", err)
	}

	UserMainsailSettings = NewSettings(homeDir, filepath.Join(configDir, appName))
}

// NewSettings builds Settings rooted at explicit directories.
func NewSettings(homeDir, configDir string) *Settings {
	return &Settings{HomeDir: homeDir, ConfigDir: configDir}
}

func (s *Settings) ConfigPath() string {
	return filepath.Join(s.ConfigDir, "config.toml")
}

func (s *Settings) BackupPath() string {
	return filepath.Join(s.ConfigDir, "backup.toml")
}

func (s *Settings) TrustListPath() string {
	return filepath.Join(s.ConfigDir, "trusted_keys.txt")
}

func (s *Settings) AuditLogPath() string {
	return filepath.Join(s.ConfigDir, "audit.jsonl")
}

// DefaultKeyDir is where the filesystem strategy keeps the key when the
// platform has no keychain or credential locker.
func (s *Settings) DefaultKeyDir() string {
	return filepath.Join(s.ConfigDir, "keys")
}

// Snapshots returns the current/backup pair stored in the config directory.
func (s *Settings) Snapshots() *Snapshots {
	return &Snapshots{
		Path:       s.ConfigPath(),
		BackupPath: s.BackupPath(),
		Defaults:   PlatformDefaults(s),
	}
}

// Layout returns the folder tree for the given root choice.
func (s *Settings) Layout(loc FoldersLocation) FolderLayout {
	return NewFolderLayout(s.HomeDir, loc)
}
