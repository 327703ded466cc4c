package cmd

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/mainsail/internal/configs"
	merrors "github.com/PolarWolf314/mainsail/internal/errors"
	"github.com/PolarWolf314/mainsail/internal/ui"
	"github.com/PolarWolf314/mainsail/internal/workflows"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change the Mainsail configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "Config file: "+ui.Path.Sprint(e.snaps.Path))
		fmt.Fprintln(out)
		for _, kv := range configValues(e.cfg) {
			fmt.Fprintf(out, "  %-24s %s\n", kv[0], valueOrMuted(kv[1]))
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Folders:     "+ui.Path.Sprint(e.layout().Root))
		fmt.Fprintln(out, "Secret key:  "+ui.Highlight.Sprint(e.cfg.KeyLocation().Describe()))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Change one configuration value",
	Long: `Changes one configuration value. The previous configuration is kept as
the backup, and the signing key and folders are moved to match.

Keys: ` + strings.Join(settableKeys(), ", "),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		key, value := args[0], args[1]
		setter, ok := setters[key]
		if !ok {
			return fmt.Errorf("unknown key %q, expected one of: %s", key, strings.Join(settableKeys(), ", "))
		}

		spinner, cleanup := startSpinner(cmd, "Saving configuration...")
		defer cleanup()

		res, err := workflows.Reconfigure(cmd.Context(), workflows.ReconfigureOptions{
			Keys:    e.keys,
			HomeDir: e.settings.HomeDir,
			Update: func(cfg *configs.Config) error {
				setter(cfg, value)
				return nil
			},
		})
		switch {
		case err == nil:
		case res == nil:
			spinner.FinalMSG = ui.Error.Sprint("✗") + " " + err.Error()
			return nil
		case errorsIsMigration(err):
			spinner.FinalMSG = ui.Success.Sprint("✓") + " Configuration saved\n" + keyErrorMessage(err)
			return nil
		default:
			return Logger.ErrorfAndReturn("configuration saved but follow-up failed: %v", err)
		}

		reportFolderChanges(res.Folders)
		msg := ui.Success.Sprint("✓") + " " + ui.Highlight.Sprint(key) + " set to " + ui.Highlight.Sprint(value)
		if res.Migrated {
			msg += "\n" + ui.Info.Sprint("→") + " Signing key moved from " + res.Previous.KeyLocation().Describe() +
				" to " + res.Current.KeyLocation().Describe()
		}
		spinner.FinalMSG = msg
		return nil
	},
}

var setters = map[string]func(cfg *configs.Config, value string){
	"folders_location": func(cfg *configs.Config, v string) {
		cfg.FoldersLocation = configs.FoldersLocation(v)
	},
	"signature_format": func(cfg *configs.Config, v string) {
		cfg.SignatureFormat = strings.ToLower(v)
	},
	"key_management_strategy": func(cfg *configs.Config, v string) {
		cfg.Strategy = configs.Strategy(strings.ToLower(v))
	},
	"keychain_name": func(cfg *configs.Config, v string) {
		cfg.KeychainName = v
	},
	"key_dir": func(cfg *configs.Config, v string) {
		cfg.KeyDir = v
	},
}

func settableKeys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func configValues(cfg configs.Config) [][2]string {
	return [][2]string{
		{"folders_location", string(cfg.FoldersLocation)},
		{"signature_format", cfg.SignatureFormat},
		{"key_management_strategy", string(cfg.Strategy)},
		{"keychain_name", cfg.KeychainName},
		{"key_dir", cfg.KeyDir},
	}
}

func valueOrMuted(v string) string {
	if v == "" {
		return ui.Muted.Sprint("unset")
	}
	return v
}

func errorsIsMigration(err error) bool {
	return errors.Is(err, merrors.ErrMigrationFailed) || errors.Is(err, merrors.ErrLocationUnavailable)
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
