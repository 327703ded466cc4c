package cmd

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/PolarWolf314/mainsail/internal/configs"
)

// testEnv points the global settings at temporary home and config
// directories and stores a filesystem key configuration there.
type testEnv struct {
	home      string
	configDir string
	settings  *configs.Settings
}

func setupTestEnvironment(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv("NO_COLOR", "1")

	home := t.TempDir()
	configDir := filepath.Join(t.TempDir(), "mainsail")
	settings := configs.NewSettings(home, configDir)

	original := configs.UserMainsailSettings
	configs.UserMainsailSettings = settings
	t.Cleanup(func() {
		configs.UserMainsailSettings = original
		ResetGlobalState()
	})

	keyDir := settings.DefaultKeyDir()
	cfg := configs.Config{
		FoldersLocation: configs.FoldersDesktop,
		SignatureFormat: configs.FormatBundled,
		Strategy:        configs.StrategyFilesystem,
		KeyDir:          keyDir,
	}
	if err := settings.Snapshots().SaveCurrent(cfg); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	return &testEnv{home: home, configDir: configDir, settings: settings}
}

// run executes the root command with args and returns everything it wrote.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	ResetGlobalState()

	var out bytes.Buffer
	RootCmd.SetOut(&out)
	RootCmd.SetErr(&out)
	RootCmd.SetArgs(args)
	defer func() {
		RootCmd.SetOut(nil)
		RootCmd.SetErr(nil)
		RootCmd.SetArgs(nil)
	}()

	err := RootCmd.Execute()
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("mainsail %v failed: %v\nOutput: %s", args, err, out)
	}
	return out
}
