package workflows

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/mainsail/internal/audit"
	"github.com/PolarWolf314/mainsail/internal/configs"
	"github.com/PolarWolf314/mainsail/internal/keystore"
	logger "github.com/PolarWolf314/mainsail/internal/logging"
	"github.com/PolarWolf314/mainsail/internal/metrics"
	"github.com/PolarWolf314/mainsail/internal/signing"
)

// Keys bundles the configuration snapshots and key store used by every
// workflow that touches the secret key.
type Keys struct {
	Snapshots *configs.Snapshots
	Store     *keystore.Store
	Audit     *audit.Log
}

// NewKeys wires a key store to the snapshots so that migrations update the
// backup config and are counted and audited. The default filesystem key_dir
// is created on demand.
func NewKeys(snaps *configs.Snapshots, retry keystore.RetryPolicy, log logger.Logger, m *metrics.Metrics, a *audit.Log) *Keys {
	store := keystore.NewStore(snaps)
	store.Retry = retry
	store.Logger = log
	if snaps.Defaults.Strategy == configs.StrategyFilesystem {
		store.DefaultKeyDir = snaps.Defaults.KeyDir
	}
	store.OnMigrate = func(from, to configs.KeyLocation) {
		m.KeyMigrated()
		a.Record(audit.Entry{
			Operation: audit.OpMigrate,
			From:      from.Describe(),
			To:        to.Describe(),
			Outcome:   "moved",
		})
	}
	return &Keys{Snapshots: snaps, Store: store, Audit: a}
}

// locations returns the current and backup key locations.
func (k *Keys) locations() (current, backup configs.KeyLocation, err error) {
	cur, err := k.Snapshots.Load()
	if err != nil {
		return current, backup, fmt.Errorf("loading config: %w", err)
	}
	bak, err := k.Snapshots.LoadBackup()
	if err != nil {
		return current, backup, fmt.Errorf("loading backup config: %w", err)
	}
	return cur.KeyLocation(), bak.KeyLocation(), nil
}

// GenerateKeyResult describes a freshly stored key.
type GenerateKeyResult struct {
	PublicKey string
	Location  string
}

// GenerateAndSaveKey creates a new keypair and stores its secret at the
// configured location. Returns ErrKeyAlreadyExists if a key is already
// stored there; the existing key is never replaced.
func GenerateAndSaveKey(ctx context.Context, k *Keys) (*GenerateKeyResult, error) {
	current, backup, err := k.locations()
	if err != nil {
		return nil, err
	}

	kp, err := signing.GenerateKey()
	if err != nil {
		return nil, err
	}

	if err := k.Store.Save(ctx, current, backup, keystore.Secret(kp.Secret())); err != nil {
		k.Audit.Record(audit.Entry{Operation: audit.OpGenerate, To: current.Describe(), Outcome: OutcomeFailed, Error: err.Error()})
		return nil, err
	}

	k.Audit.Record(audit.Entry{
		Operation: audit.OpGenerate,
		PublicKey: kp.PublicKey(),
		To:        current.Describe(),
		Outcome:   "created",
	})
	return &GenerateKeyResult{PublicKey: kp.PublicKey(), Location: current.Describe()}, nil
}

// LoadKey returns the stored keypair, moving it to the configured location
// first if the configuration changed since it was saved.
func LoadKey(ctx context.Context, k *Keys) (signing.KeyPair, error) {
	current, backup, err := k.locations()
	if err != nil {
		return signing.KeyPair{}, err
	}
	secret, err := k.Store.Load(ctx, current, backup)
	if err != nil {
		return signing.KeyPair{}, err
	}
	return signing.KeyFromSecret(secret.Reveal())
}

// DeleteKey removes the key at the configured location and returns a
// description of where it was. Returns ErrKeyNotFound if there is none.
func DeleteKey(ctx context.Context, k *Keys) (string, error) {
	current, _, err := k.locations()
	if err != nil {
		return "", err
	}
	if err := k.Store.Remove(ctx, current); err != nil {
		return "", err
	}
	k.Audit.Record(audit.Entry{Operation: audit.OpDelete, From: current.Describe(), Outcome: "deleted"})
	return current.Describe(), nil
}
