package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	merrors "github.com/PolarWolf314/mainsail/internal/errors"
	"github.com/PolarWolf314/mainsail/internal/ui"
	"github.com/PolarWolf314/mainsail/internal/workflows"
)

var checkSigner bool

var verifyCmd = &cobra.Command{
	Use:   "verify FILE",
	Short: "Verify a document, detached signature or bundle",
	Long: `Checks the signature of FILE. FILE may be the document, its .edsig
signature or an .edbnl bundle; the companion file is found by name.

With --check-signer the signer's public key is also looked up in the key
registries. Nothing is moved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}

		opts := workflows.VerifyFileOptions{Path: args[0], Audit: e.audit}
		if checkSigner {
			r, err := e.resolver()
			if err != nil {
				return err
			}
			opts.Resolver = r
		}

		spinner, cleanup := startSpinner(cmd, "Verifying "+args[0]+"...")
		defer cleanup()

		res, err := workflows.VerifyFile(cmd.Context(), opts)
		switch {
		case errors.Is(err, merrors.ErrMissingSignature):
			spinner.FinalMSG = ui.Error.Sprint("✗") + " No signature found for " + ui.Path.Sprint(args[0])
			return nil
		case errors.Is(err, merrors.ErrMissingDocument):
			spinner.FinalMSG = ui.Error.Sprint("✗") + " The signed document for " + ui.Path.Sprint(args[0]) + " is missing"
			return nil
		case errors.Is(err, merrors.ErrMalformedEnvelope), errors.Is(err, merrors.ErrInvalidEncoding):
			spinner.FinalMSG = ui.Error.Sprint("✗") + " " + ui.Path.Sprint(args[0]) + " does not contain a readable signature"
			return nil
		case err != nil:
			return Logger.ErrorfAndReturn("failed to verify %s: %v", args[0], err)
		}

		if !res.Valid {
			spinner.FinalMSG = ui.Error.Sprint("✗") + " The signature and file are not consistent. You should not trust the document."
			return nil
		}

		msg := ui.Success.Sprint("✓") + " Signature is valid\n" +
			"Signed by: " + ui.Key.Sprint(res.SignedFile.PublicKey)
		if res.Verdict != nil {
			msg += "\n" + describeVerdict(*res.Verdict)
		}
		spinner.FinalMSG = msg
		return nil
	},
}

func init() {
	verifyCmd.Flags().BoolVar(&checkSigner, "check-signer", false, "look the signer up in the key registries")
}
