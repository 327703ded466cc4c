package cmd

import (
	"context"
	"fmt"

	"github.com/PolarWolf314/mainsail/internal/audit"
	"github.com/PolarWolf314/mainsail/internal/configs"
	"github.com/PolarWolf314/mainsail/internal/envelope"
	"github.com/PolarWolf314/mainsail/internal/metrics"
	"github.com/PolarWolf314/mainsail/internal/trust"
	"github.com/PolarWolf314/mainsail/internal/workflows"
)

// env is everything a command needs from the user's configuration.
type env struct {
	settings *configs.Settings
	snaps    *configs.Snapshots
	cfg      configs.Config
	audit    *audit.Log
	metrics  *metrics.Metrics
	keys     *workflows.Keys
}

func loadEnv() (*env, error) {
	settings := configs.UserMainsailSettings
	snaps := settings.Snapshots()
	snaps.Logger = Logger

	cfg, err := snaps.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	Logger.Debugf("Loaded config from %s: %+v", snaps.Path, cfg)

	m := metrics.New()
	a := audit.New(settings.AuditLogPath())
	keys := workflows.NewKeys(snaps, remountPolicy(), Logger, m, a)
	keys.Store.DefaultKeyDir = settings.DefaultKeyDir()
	return &env{
		settings: settings,
		snaps:    snaps,
		cfg:      cfg,
		audit:    a,
		metrics:  m,
		keys:     keys,
	}, nil
}

func (e *env) layout() configs.FolderLayout {
	return e.settings.Layout(e.cfg.FoldersLocation)
}

func (e *env) format() (envelope.Format, error) {
	return envelope.ParseFormat(e.cfg.SignatureFormat)
}

func (e *env) trustList() *trust.TrustList {
	return trust.NewTrustList(e.settings.TrustListPath())
}

func (e *env) resolver() (*trust.Resolver, error) {
	regs, err := parseRegistries(registries)
	if err != nil {
		return nil, err
	}
	return trust.NewResolver(trust.ResolverOptions{
		Registries: regs,
		Logger:     Logger,
		Metrics:    e.metrics,
	}), nil
}

// ensureFolders creates the folder tree if needed and reports what changed.
func (e *env) ensureFolders(ctx context.Context) error {
	changes, err := workflows.EnsureFolders(ctx, e.settings.HomeDir, e.cfg.FoldersLocation)
	if err != nil {
		return err
	}
	reportFolderChanges(changes)
	return nil
}
