package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/mainsail/internal/trust"
	"github.com/PolarWolf314/mainsail/internal/ui"
	"github.com/PolarWolf314/mainsail/internal/utils"
	"github.com/PolarWolf314/mainsail/internal/workflows"
)

var trustCmd = &cobra.Command{
	Use:   "trust",
	Short: "Manage the list of signers you always trust",
}

var trustAddCmd = &cobra.Command{
	Use:   "add [PUBLIC_KEY]",
	Short: "Add a public key to the trusted sender list",
	Long:  `Adds PUBLIC_KEY to the trusted sender list. Without an argument the key is read from stdin.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}

		key, err := keyArg(args)
		if err != nil {
			return err
		}
		if err := workflows.TrustKey(key, e.trustList(), e.audit); err != nil {
			return Logger.ErrorfAndReturn("failed to add key: %v", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success.Sprint("✓")+" "+ui.Key.Sprint(key)+" added to the trusted sender list")
		return nil
	},
}

var trustListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the trusted public keys",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		keys, err := e.trustList().Keys()
		if err != nil {
			return Logger.ErrorfAndReturn("failed to read trust list: %v", err)
		}
		if len(keys) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Sprint("no trusted keys"))
			return nil
		}
		for _, k := range keys {
			fmt.Fprintln(cmd.OutOrStdout(), k)
		}
		return nil
	},
}

var trustCheckCmd = &cobra.Command{
	Use:   "check [PUBLIC_KEY]",
	Short: "Look a public key up in the trust list and the key registries",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		key, err := keyArg(args)
		if err != nil {
			return err
		}
		r, err := e.resolver()
		if err != nil {
			return err
		}

		spinner, cleanup := startSpinner(cmd, "Looking up "+key+"...")
		defer cleanup()

		res, err := workflows.CheckKey(cmd.Context(), key, e.trustList(), r)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to check key: %v", err)
		}

		listed := "no"
		if res.Listed {
			listed = "yes"
		}
		spinner.FinalMSG = "On trusted sender list: " + listed + "\n" + describeVerdict(res.Verdict)
		return nil
	},
}

func init() {
	trustCmd.AddCommand(trustAddCmd)
	trustCmd.AddCommand(trustListCmd)
	trustCmd.AddCommand(trustCheckCmd)
}

// keyArg returns the public key from args or, failing that, from stdin.
func keyArg(args []string) (string, error) {
	if len(args) == 1 {
		return strings.TrimSpace(args[0]), nil
	}
	return utils.ReadStdinLine()
}

func describeVerdict(v trust.Verdict) string {
	if !v.Trusted {
		return ui.Error.Sprint("✗") + " Not trusted: " + v.Reason
	}
	msg := ui.Success.Sprint("✓") + " Active profile"
	if v.Profile != nil {
		msg += " in " + ui.Highlight.Sprint(v.Profile.Registry) + "\n" + v.Profile.Summary()
	}
	return msg
}
