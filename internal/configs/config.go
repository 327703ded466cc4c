package configs

import (
	"fmt"
	"runtime"

	merrors "github.com/PolarWolf314/mainsail/internal/errors"
)

// Strategy names the backend that holds the secret signing key.
type Strategy string

const (
	StrategyKeychain   Strategy = "keychain"
	StrategyLocker     Strategy = "locker"
	StrategyFilesystem Strategy = "filesystem"
)

// FoldersLocation selects the root of the folder tree.
type FoldersLocation string

const (
	FoldersDesktop   FoldersLocation = "Desktop"
	FoldersDocuments FoldersLocation = "Documents"
)

const (
	FormatBundled  = "bundled"
	FormatSeparate = "separate"
)

// Config mirrors config.toml and backup.toml.
type Config struct {
	FoldersLocation FoldersLocation `toml:"folders_location"`
	SignatureFormat string          `toml:"signature_format"`
	Strategy        Strategy        `toml:"key_management_strategy"`
	KeychainName    string          `toml:"keychain_name"`
	KeyDir          string          `toml:"key_dir"`
}

// KeyLocation identifies where a secret key lives.
type KeyLocation struct {
	Strategy     Strategy
	KeychainName string
	KeyDir       string
}

// KeyLocation extracts the key location from c.
func (c Config) KeyLocation() KeyLocation {
	return KeyLocation{
		Strategy:     c.Strategy,
		KeychainName: c.KeychainName,
		KeyDir:       c.KeyDir,
	}
}

// WithKeyLocation returns a copy of c pointing at loc.
func (c Config) WithKeyLocation(loc KeyLocation) Config {
	c.Strategy = loc.Strategy
	c.KeychainName = loc.KeychainName
	c.KeyDir = loc.KeyDir
	return c
}

// Validate checks field values and the filesystem/key_dir invariant.
func (c Config) Validate() error {
	switch c.FoldersLocation {
	case FoldersDesktop, FoldersDocuments:
	default:
		return fmt.Errorf("%w: folders_location must be %q or %q, got %q", merrors.ErrInvalidConfig, FoldersDesktop, FoldersDocuments, c.FoldersLocation)
	}

	switch c.SignatureFormat {
	case FormatBundled, FormatSeparate:
	default:
		return fmt.Errorf("%w: signature_format must be %q or %q, got %q", merrors.ErrInvalidConfig, FormatBundled, FormatSeparate, c.SignatureFormat)
	}

	switch c.Strategy {
	case StrategyKeychain, StrategyLocker:
	case StrategyFilesystem:
		if c.KeyDir == "" {
			return fmt.Errorf("%w: key_management_strategy is filesystem but key_dir is empty", merrors.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown key_management_strategy %q", merrors.ErrInvalidConfig, c.Strategy)
	}

	return nil
}

// Same reports whether two locations address the same key. Fields that do
// not apply to the strategy are ignored.
func (l KeyLocation) Same(other KeyLocation) bool {
	if l.Strategy != other.Strategy {
		return false
	}
	switch l.Strategy {
	case StrategyKeychain:
		return l.KeychainName == other.KeychainName
	case StrategyFilesystem:
		return l.KeyDir == other.KeyDir
	default:
		return true
	}
}

// Describe renders the location for user-facing messages.
func (l KeyLocation) Describe() string {
	switch l.Strategy {
	case StrategyKeychain:
		return fmt.Sprintf("keychain %q", l.KeychainName)
	case StrategyLocker:
		return "credential locker"
	case StrategyFilesystem:
		return fmt.Sprintf("directory %s", l.KeyDir)
	default:
		return string(l.Strategy)
	}
}

// PlatformDefaults returns the configuration used when config.toml is
// missing or invalid.
func PlatformDefaults(s *Settings) Config {
	return defaultsFor(runtime.GOOS, s)
}

func defaultsFor(goos string, s *Settings) Config {
	cfg := Config{
		FoldersLocation: FoldersDesktop,
		SignatureFormat: FormatBundled,
	}
	switch goos {
	case "darwin":
		cfg.Strategy = StrategyKeychain
		cfg.KeychainName = "login"
	case "windows":
		cfg.Strategy = StrategyLocker
	default:
		cfg.Strategy = StrategyFilesystem
		cfg.KeyDir = s.DefaultKeyDir()
	}
	return cfg
}
