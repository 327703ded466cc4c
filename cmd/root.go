package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	logger "github.com/PolarWolf314/mainsail/internal/logging"
	"github.com/PolarWolf314/mainsail/internal/trust"
	"github.com/PolarWolf314/mainsail/internal/ui"
)

var (
	verbose    bool
	debug      bool
	registries []string
	Logger     logger.Logger

	RootCmd = &cobra.Command{
		Use:   "mainsail",
		Short: "Mainsail - sign documents and check who signed them.",
		Long: `Mainsail signs documents with an Ed25519 key kept in your keychain,
credential locker or a key file, and verifies documents signed by others.

Signed documents carry a 315-byte header with the signature and the signer's
public key, either bundled with the document (.edbnl) or as a detached
signature (.edsig). Signers are looked up in three public key registries
before you decide whether to trust them.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			Logger = logger.Logger{
				Verbose: verbose,
				Debug:   debug,
				Out:     cmd.OutOrStdout(),
				Err:     cmd.ErrOrStderr(),
			}
			Logger.Debugf("Running %s with verbose=%t, debug=%t", cmd.CommandPath(), verbose, debug)
		},
		Run: func(cmd *cobra.Command, args []string) {
			printBanner(cmd.OutOrStdout())
			fmt.Fprintln(cmd.OutOrStdout(), "Run "+ui.Code.Sprint("mainsail --help")+" to see available commands.")
		},
	}
)

func init() {
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	RootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug output")
	RootCmd.PersistentFlags().StringSliceVar(&registries, "registry", nil, "use NAME=URL instead of the default key registries (repeatable)")

	RootCmd.AddCommand(keysCmd)
	RootCmd.AddCommand(signCmd)
	RootCmd.AddCommand(verifyCmd)
	RootCmd.AddCommand(autoSignCmd)
	RootCmd.AddCommand(autoVerifyCmd)
	RootCmd.AddCommand(authenticateCmd)
	RootCmd.AddCommand(trustCmd)
	RootCmd.AddCommand(configCmd)
	RootCmd.AddCommand(foldersCmd)
}

// parseRegistries turns NAME=URL flags into registries. No flags means the
// defaults.
func parseRegistries(flags []string) ([]trust.Registry, error) {
	var out []trust.Registry
	for _, f := range flags {
		name, url, ok := strings.Cut(f, "=")
		if !ok || name == "" || url == "" {
			return nil, fmt.Errorf("invalid --registry %q, expected NAME=URL", f)
		}
		if !strings.HasSuffix(url, "/") {
			url += "/"
		}
		out = append(out, trust.Registry{Name: name, BaseURL: url})
	}
	return out, nil
}

// ResetGlobalState resets flag variables between tests.
func ResetGlobalState() {
	verbose = false
	debug = false
	registries = nil
	resetKeysState()
	resetAutoState()
	resetSignState()
}
