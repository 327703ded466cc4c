package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/mainsail/internal/envelope"
	merrors "github.com/PolarWolf314/mainsail/internal/errors"
	"github.com/PolarWolf314/mainsail/internal/ui"
	"github.com/PolarWolf314/mainsail/internal/workflows"
)

var signFormat string

var signCmd = &cobra.Command{
	Use:   "sign FILE",
	Short: "Sign one file, writing the bundle or signature next to it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}

		format, err := e.format()
		if signFormat != "" {
			format, err = envelope.ParseFormat(signFormat)
		}
		if err != nil {
			return err
		}

		kp, err := workflows.LoadKey(cmd.Context(), e.keys)
		if err != nil {
			fmt.Fprintln(cmd.OutOrStdout(), keyErrorMessage(err))
			return nil
		}

		res, err := workflows.SignFile(cmd.Context(), workflows.SignFileOptions{
			Path:   args[0],
			Format: format,
			Key:    kp,
			Audit:  e.audit,
		})
		if errors.Is(err, merrors.ErrDestinationExists) {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Error.Sprint("✗")+" "+ui.Path.Sprint(args[0]+envelope.Suffix(format))+" already exists")
			return nil
		}
		if err != nil {
			return Logger.ErrorfAndReturn("failed to sign %s: %v", args[0], err)
		}

		fmt.Fprintln(cmd.OutOrStdout(), ui.Outcome(workflows.OutcomeSigned)+" "+ui.Path.Sprint(res.ArtifactPath))
		return nil
	},
}

func init() {
	signCmd.Flags().StringVarP(&signFormat, "format", "f", "", "bundled or separate (default from config)")
}

func resetSignState() {
	signFormat = ""
	checkSigner = false
}
