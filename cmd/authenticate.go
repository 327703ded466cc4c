package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/PolarWolf314/mainsail/internal/ui"
	"github.com/PolarWolf314/mainsail/internal/utils"
	"github.com/PolarWolf314/mainsail/internal/workflows"
)

var authenticateCmd = &cobra.Command{
	Use:   "authenticate",
	Short: "Decide whether to trust the signers of verified documents",
	Long: `Looks at every signature and bundle in the verified folder.

Signers on your trusted sender list are accepted straight away. Other
signers are looked up in the key registries; if a signer has an active
profile you are shown it and asked whether to trust them. Accepted documents
move to the checked folder and rejected ones to quarantine. Documents whose
signer could not be looked up stay where they are.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		if err := e.ensureFolders(cmd.Context()); err != nil {
			return Logger.ErrorfAndReturn("failed to prepare folders: %v", err)
		}
		r, err := e.resolver()
		if err != nil {
			return err
		}

		res, err := workflows.Authenticate(cmd.Context(), workflows.AuthenticateOptions{
			Layout:    e.layout(),
			Resolver:  r,
			TrustList: e.trustList(),
			Decide:    promptDecision,
			Logger:    Logger,
			Metrics:   e.metrics,
			Audit:     e.audit,
		})
		if res != nil {
			printPass(cmd, res)
		}
		if errors.Is(err, errNoTerminal) {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Warning.Sprint("→")+" Some signers need a decision. Run "+ui.Code.Sprint("mainsail authenticate")+" in a terminal.")
			return nil
		}
		if err != nil {
			return Logger.ErrorfAndReturn("authenticate stopped: %v", err)
		}
		if len(res.Files) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), ui.Muted.Sprint("nothing to authenticate"))
		}
		if n := res.Count(workflows.OutcomeDeferred); n > 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %d document(s) left in place; the key registries could not be reached.\n", ui.Warning.Sprint("→"), n)
		}
		return nil
	},
}

var errNoTerminal = errors.New("no terminal to ask for a decision")

func promptDecision(ctx context.Context, c workflows.Candidate) (workflows.Decision, error) {
	if !utils.IsInteractive() {
		return workflows.Distrust, errNoTerminal
	}

	fmt.Println()
	fmt.Println("Document: " + ui.Path.Sprint(c.DocumentName))
	fmt.Println("Signer:   " + ui.ShortKey(c.PublicKey))
	if c.Verdict.Profile != nil {
		fmt.Println(c.Verdict.Profile.Summary())
	}

	labels := make([]string, len(c.Options))
	for i, o := range c.Options {
		labels[i] = o.String()
	}
	sel := promptui.Select{Label: "Trust this signer?", Items: labels}
	i, _, err := sel.Run()
	if err != nil {
		return workflows.Distrust, err
	}
	return c.Options[i], nil
}
