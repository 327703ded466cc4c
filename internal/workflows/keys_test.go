package workflows

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PolarWolf314/mainsail/internal/audit"
	"github.com/PolarWolf314/mainsail/internal/configs"
	"github.com/PolarWolf314/mainsail/internal/envelope"
	merrors "github.com/PolarWolf314/mainsail/internal/errors"
	"github.com/PolarWolf314/mainsail/internal/keystore"
	logger "github.com/PolarWolf314/mainsail/internal/logging"
	"github.com/PolarWolf314/mainsail/internal/metrics"
	"github.com/PolarWolf314/mainsail/internal/signing"
)

func newKeys(t *testing.T) (*Keys, string) {
	t.Helper()
	configDir := t.TempDir()
	keyDir := filepath.Join(configDir, "keys")

	snaps := &configs.Snapshots{
		Path:       filepath.Join(configDir, "config.toml"),
		BackupPath: filepath.Join(configDir, "backup.toml"),
		Defaults: configs.Config{
			FoldersLocation: configs.FoldersDesktop,
			SignatureFormat: configs.FormatBundled,
			Strategy:        configs.StrategyFilesystem,
			KeyDir:          keyDir,
		},
	}
	a := audit.New(filepath.Join(configDir, "audit.jsonl"))
	return NewKeys(snaps, keystore.RetryPolicy{}, logger.Logger{}, metrics.New(), a), configDir
}

func TestGenerateLoadDeleteKey(t *testing.T) {
	ctx := context.Background()
	k, configDir := newKeys(t)

	_, err := os.Stat(filepath.Join(configDir, "keys"))
	require.True(t, os.IsNotExist(err), "fresh install has no key dir")

	gen, err := GenerateAndSaveKey(ctx, k)
	require.NoError(t, err)
	assert.Len(t, gen.PublicKey, envelope.PublicKeyLength)
	assert.Contains(t, gen.Location, filepath.Join(configDir, "keys"))

	kp, err := LoadKey(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, gen.PublicKey, kp.PublicKey())

	_, err = GenerateAndSaveKey(ctx, k)
	require.ErrorIs(t, err, merrors.ErrKeyAlreadyExists)

	loaded, err := LoadKey(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, gen.PublicKey, loaded.PublicKey(), "existing key must not be replaced")

	where, err := DeleteKey(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, gen.Location, where)

	_, err = LoadKey(ctx, k)
	require.ErrorIs(t, err, merrors.ErrKeyNotFound)

	_, err = DeleteKey(ctx, k)
	require.ErrorIs(t, err, merrors.ErrKeyNotFound)

	entries, err := audit.ReadEntries(filepath.Join(configDir, "audit.jsonl"))
	require.NoError(t, err)
	var ops []string
	for _, e := range entries {
		ops = append(ops, e.Operation)
	}
	assert.Equal(t, []string{audit.OpGenerate, audit.OpGenerate, audit.OpDelete}, ops)
}

func TestReconfigureMovesKey(t *testing.T) {
	ctx := context.Background()
	k, configDir := newKeys(t)

	gen, err := GenerateAndSaveKey(ctx, k)
	require.NoError(t, err)

	newDir := filepath.Join(configDir, "usb")
	require.NoError(t, os.MkdirAll(newDir, 0700))

	res, err := Reconfigure(ctx, ReconfigureOptions{
		Keys: k,
		Update: func(cfg *configs.Config) error {
			cfg.KeyDir = newDir
			cfg.SignatureFormat = configs.FormatSeparate
			return nil
		},
	})
	require.NoError(t, err)
	assert.True(t, res.Migrated)
	assert.Equal(t, newDir, res.Current.KeyDir)
	assert.NotEqual(t, newDir, res.Previous.KeyDir)

	assert.FileExists(t, filepath.Join(newDir, keystore.KeyFileName))
	assert.NoFileExists(t, filepath.Join(res.Previous.KeyDir, keystore.KeyFileName))

	backup, err := k.Snapshots.LoadBackup()
	require.NoError(t, err)
	assert.Equal(t, newDir, backup.KeyDir)

	kp, err := LoadKey(ctx, k)
	require.NoError(t, err)
	assert.Equal(t, gen.PublicKey, kp.PublicKey())
}

func TestReconfigureRejectsInvalid(t *testing.T) {
	k, _ := newKeys(t)

	_, err := Reconfigure(context.Background(), ReconfigureOptions{
		Keys: k,
		Update: func(cfg *configs.Config) error {
			cfg.KeyDir = ""
			return nil
		},
	})
	require.ErrorIs(t, err, merrors.ErrInvalidConfig)
	_, statErr := os.Stat(k.Snapshots.Path)
	assert.True(t, os.IsNotExist(statErr))
}

func TestSignAndVerifyFile(t *testing.T) {
	ctx := context.Background()
	kp, err := signing.GenerateKey()
	require.NoError(t, err)

	doc := filepath.Join(t.TempDir(), "memo.txt")
	write(t, doc, "memo")

	res, err := SignFile(ctx, SignFileOptions{Path: doc, Format: envelope.Separate, Key: kp})
	require.NoError(t, err)
	assert.Equal(t, doc+".edsig", res.ArtifactPath)

	_, err = SignFile(ctx, SignFileOptions{Path: doc, Format: envelope.Separate, Key: kp})
	require.ErrorIs(t, err, merrors.ErrDestinationExists)

	resolver := &fakeResolver{verdict: trustedVerdict}
	v, err := VerifyFile(ctx, VerifyFileOptions{Path: res.ArtifactPath, Resolver: resolver})
	require.NoError(t, err)
	assert.True(t, v.Valid)
	require.NotNil(t, v.Verdict)
	assert.True(t, v.Verdict.Trusted)
	assert.Equal(t, []string{kp.PublicKey()}, resolver.calls)

	write(t, doc, "memo!")
	v, err = VerifyFile(ctx, VerifyFileOptions{Path: doc, Resolver: resolver})
	require.NoError(t, err)
	assert.False(t, v.Valid)
	assert.Nil(t, v.Verdict)
}
