package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	merrors "github.com/PolarWolf314/mainsail/internal/errors"
	"github.com/PolarWolf314/mainsail/internal/ui"
	"github.com/PolarWolf314/mainsail/internal/utils"
	"github.com/PolarWolf314/mainsail/internal/workflows"
)

var (
	exportSSH     bool
	sshComment    string
	deleteConfirm bool
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Create, show, export and delete your signing key",
}

var keysGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a signing key and store it at the configured location",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		spinner, cleanup := startSpinner(cmd, "Generating signing key...")
		defer cleanup()

		res, err := workflows.GenerateAndSaveKey(cmd.Context(), e.keys)
		if errors.Is(err, merrors.ErrKeyAlreadyExists) {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " A signing key already exists at " + ui.Highlight.Sprint(e.cfg.KeyLocation().Describe()) + "\n" +
				ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("mainsail keys delete") + " first if you really want a new key"
			return nil
		}
		if err != nil {
			spinner.FinalMSG = keyErrorMessage(err)
			return nil
		}

		spinner.FinalMSG = ui.Success.Sprint("✓") + " Signing key stored in " + ui.Highlight.Sprint(res.Location) + "\n" +
			"Your public key: " + ui.Key.Sprint(res.PublicKey)
		return nil
	},
}

var keysShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show your public key and where the secret key is stored",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		kp, err := workflows.LoadKey(cmd.Context(), e.keys)
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), keyErrorMessage(err))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Public key: "+ui.Key.Sprint(kp.PublicKey()))
		fmt.Fprintln(cmd.OutOrStdout(), "Stored in:  "+ui.Highlight.Sprint(e.cfg.KeyLocation().Describe()))
		return nil
	},
}

var keysExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Print your public key for sharing",
	Long: `Prints your public key on stdout, ready to paste into a registry profile.

With --ssh the key is printed as an OpenSSH authorized_keys line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		kp, err := workflows.LoadKey(cmd.Context(), e.keys)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to load signing key: %v", err)
		}

		if !exportSSH {
			fmt.Fprintln(cmd.OutOrStdout(), kp.PublicKey())
			return nil
		}

		comment := sshComment
		if comment == "" {
			comment = utils.KeyComment()
		}
		line, err := kp.AuthorizedKey(comment)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to encode public key: %v", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
		return nil
	},
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Delete your secret key",
	Long: `Deletes the secret key from the configured location.

Documents you signed stay valid, but you can no longer sign with this key.
Pass --yes to skip the confirmation prompt.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		where := e.cfg.KeyLocation().Describe()
		if !deleteConfirm && !confirm(fmt.Sprintf("Delete the signing key in %s", where)) {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Warning.Sprint("→")+" Nothing deleted. Pass "+ui.Flag.Sprint("--yes")+" to delete without a prompt.")
			return nil
		}

		where, err = workflows.DeleteKey(cmd.Context(), e.keys)
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), keyErrorMessage(err))
			return nil
		}
		fmt.Fprintln(cmd.OutOrStdout(), ui.Success.Sprint("✓")+" Signing key deleted from "+ui.Highlight.Sprint(where))
		return nil
	},
}

func init() {
	keysExportCmd.Flags().BoolVar(&exportSSH, "ssh", false, "print an OpenSSH authorized_keys line")
	keysExportCmd.Flags().StringVar(&sshComment, "comment", "", "comment for --ssh (default user@host)")
	keysDeleteCmd.Flags().BoolVarP(&deleteConfirm, "yes", "y", false, "do not ask for confirmation")

	keysCmd.AddCommand(keysGenerateCmd)
	keysCmd.AddCommand(keysShowCmd)
	keysCmd.AddCommand(keysExportCmd)
	keysCmd.AddCommand(keysDeleteCmd)
}

func resetKeysState() {
	exportSSH = false
	sshComment = ""
	deleteConfirm = false
}
