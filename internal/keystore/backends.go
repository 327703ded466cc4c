package keystore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/99designs/keyring"

	"github.com/PolarWolf314/mainsail/internal/configs"
	merrors "github.com/PolarWolf314/mainsail/internal/errors"
)

// Identifiers used inside the OS credential stores.
const (
	KeychainService = "mainsail_signing_service"
	KeychainAccount = "mainsail_secret_key"
	LockerService   = "mainsail_secret_key"
	LockerAccount   = "ed25519_secret"

	// KeyFileName is the file the filesystem strategy writes in key_dir.
	KeyFileName = "mainsail_signing_key.secret"
)

// Backend stores at most one secret at a single location.
type Backend interface {
	Probe(ctx context.Context) (bool, error)
	Read(ctx context.Context) (Secret, error)
	Write(ctx context.Context, secret Secret) error
	Delete(ctx context.Context) error
}

// KeyringOpener opens the OS credential store for a keychain or locker
// location.
type KeyringOpener func(loc configs.KeyLocation) (keyring.Keyring, error)

// OpenSystemKeyring opens the platform credential store for loc.
func OpenSystemKeyring(loc configs.KeyLocation) (keyring.Keyring, error) {
	var cfg keyring.Config
	switch loc.Strategy {
	case configs.StrategyKeychain:
		cfg = keyring.Config{
			ServiceName:              KeychainService,
			KeychainName:             loc.KeychainName,
			KeychainTrustApplication: true,
			LibSecretCollectionName:  loc.KeychainName,
			AllowedBackends:          keychainBackends(runtime.GOOS),
		}
	case configs.StrategyLocker:
		cfg = keyring.Config{
			ServiceName:     LockerService,
			AllowedBackends: []keyring.BackendType{keyring.WinCredBackend},
		}
	default:
		return nil, fmt.Errorf("strategy %q has no credential store", loc.Strategy)
	}
	return keyring.Open(cfg)
}

func keychainBackends(goos string) []keyring.BackendType {
	if goos == "darwin" {
		return []keyring.BackendType{keyring.KeychainBackend}
	}
	return []keyring.BackendType{keyring.SecretServiceBackend}
}

// keyringBackend stores the secret as a single item of an OS credential store.
type keyringBackend struct {
	ring    keyring.Keyring
	account string
	label   string
}

func (b *keyringBackend) Probe(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, err := b.ring.Get(b.account)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, keyring.ErrKeyNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %s: %v", merrors.ErrAccessDenied, b.label, err)
	}
}

func (b *keyringBackend) Read(ctx context.Context) (Secret, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	item, err := b.ring.Get(b.account)
	switch {
	case err == nil:
		return Secret(strings.TrimSpace(string(item.Data))), nil
	case errors.Is(err, keyring.ErrKeyNotFound):
		return "", fmt.Errorf("%w in %s", merrors.ErrKeyNotFound, b.label)
	default:
		return "", fmt.Errorf("%w: %s: %v", merrors.ErrAccessDenied, b.label, err)
	}
}

func (b *keyringBackend) Write(ctx context.Context, secret Secret) error {
	exists, err := b.Probe(ctx)
	if err != nil {
		return err
	}
	if exists {
		return fmt.Errorf("%w: %s", merrors.ErrKeyAlreadyExists, b.label)
	}
	err = b.ring.Set(keyring.Item{
		Key:         b.account,
		Data:        []byte(secret.Reveal()),
		Label:       "Mainsail signing key",
		Description: "Ed25519 secret key",
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %v", merrors.ErrAccessDenied, b.label, err)
	}
	return nil
}

func (b *keyringBackend) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.ring.Remove(b.account); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return fmt.Errorf("failed to remove key from %s: %w", b.label, err)
	}
	return nil
}

// fileBackend stores the secret in a single file in a directory that must
// already exist, such as a removable drive.
type fileBackend struct {
	dir string
}

func (b *fileBackend) path() string {
	return filepath.Join(b.dir, KeyFileName)
}

func (b *fileBackend) Probe(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(b.path())
	switch {
	case err == nil:
		return info.Mode().IsRegular(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case errors.Is(err, fs.ErrPermission):
		return false, fmt.Errorf("%w: %s", merrors.ErrAccessDenied, b.path())
	default:
		return false, fmt.Errorf("failed to inspect %s: %w", b.path(), err)
	}
}

func (b *fileBackend) Read(ctx context.Context) (Secret, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(b.path())
	switch {
	case err == nil:
		return Secret(strings.TrimSpace(string(data))), nil
	case errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("%w in %s", merrors.ErrKeyNotFound, b.dir)
	case errors.Is(err, fs.ErrPermission):
		return "", fmt.Errorf("%w: %s", merrors.ErrAccessDenied, b.path())
	default:
		return "", fmt.Errorf("failed to read %s: %w", b.path(), err)
	}
}

func (b *fileBackend) Write(ctx context.Context, secret Secret) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f, err := os.OpenFile(b.path(), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("%w: %s", merrors.ErrKeyAlreadyExists, b.path())
		}
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %s", merrors.ErrAccessDenied, b.path())
		}
		return fmt.Errorf("failed to create %s: %w", b.path(), err)
	}

	if _, err := f.WriteString(secret.Reveal()); err != nil {
		f.Close()
		os.Remove(b.path())
		return fmt.Errorf("failed to write %s: %w", b.path(), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(b.path())
		return fmt.Errorf("failed to write %s: %w", b.path(), err)
	}
	return nil
}

func (b *fileBackend) Delete(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Remove(b.path()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", b.path(), err)
	}
	return nil
}
