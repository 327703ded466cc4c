package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/common-nighthawk/go-figure"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/PolarWolf314/mainsail/internal/configs"
	merrors "github.com/PolarWolf314/mainsail/internal/errors"
	"github.com/PolarWolf314/mainsail/internal/keystore"
	"github.com/PolarWolf314/mainsail/internal/ui"
	"github.com/PolarWolf314/mainsail/internal/utils"
)

// startSpinner shows a spinner on stderr while a command runs, unless the
// output is not a terminal or verbose/debug logging is on.
// Returns the spinner and a function that should be deferred to clean up.
//
// spinner.FinalMSG values do not need trailing newlines; cleanup prints the
// final message to the command's stdout with ui.EnsureNewline.
func startSpinner(cmd *cobra.Command, message string) (*spinner.Spinner, func()) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
	s.Suffix = " " + message
	if err := s.Color("cyan"); err != nil {
		Logger.Warnf("Failed to set spinner color: %v", err)
	}

	animate := !verbose && !debug && utils.IsInteractive()
	if animate {
		s.Start()
	} else {
		Logger.Infof("%s", message)
	}

	cleanup := func() {
		finalMsg := ""
		if s.FinalMSG != "" {
			finalMsg = ui.EnsureNewline(s.FinalMSG)
			s.FinalMSG = ""
		}
		if animate {
			s.Stop()
		}
		if finalMsg != "" {
			fmt.Fprint(cmd.OutOrStdout(), finalMsg)
		}
	}
	return s, cleanup
}

const bannerWidth = 50

func printBanner(w io.Writer) {
	if utils.TerminalWidth(bannerWidth) < bannerWidth {
		fmt.Fprintln(w, ui.Info.Sprint("Mainsail"))
		return
	}
	fig := figure.NewFigure("Mainsail", "standard", true)
	fmt.Fprintln(w, ui.Info.Sprint(fig.String()))
}

// remountPolicy asks whether to try again when the key directory is missing,
// typically because a removable drive is not mounted.
func remountPolicy() keystore.RetryPolicy {
	return keystore.RetryPolicy{
		MaxAttempts: 5,
		ShouldRetry: func(ctx context.Context, loc configs.KeyLocation, attempt int) bool {
			if !utils.IsInteractive() {
				return false
			}
			prompt := promptui.Prompt{
				Label:     fmt.Sprintf("Key directory %s is not available. Mount it and try again", loc.KeyDir),
				IsConfirm: true,
			}
			_, err := prompt.Run()
			return err == nil
		},
	}
}

// confirm asks a yes/no question. Non-interactive sessions answer no.
func confirm(label string) bool {
	if !utils.IsInteractive() {
		return false
	}
	_, err := (&promptui.Prompt{Label: label, IsConfirm: true}).Run()
	return err == nil
}

func reportFolderChanges(changes *configs.FolderChanges) {
	if changes == nil || !changes.Changed() {
		return
	}
	for _, d := range changes.Moved {
		Logger.WarnfUser("Moved %s", d)
	}
	for _, d := range changes.Created {
		Logger.Infof("Created %s", d)
	}
	if changes.Linked != "" {
		Logger.Infof("Linked %s", changes.Linked)
	}
}

// keyErrorMessage turns key store errors into a short user-facing line.
func keyErrorMessage(err error) string {
	switch {
	case errors.Is(err, merrors.ErrKeyNotFound):
		return ui.Error.Sprint("✗") + " No signing key found\n" +
			ui.Info.Sprint("→") + " Run " + ui.Code.Sprint("mainsail keys generate") + " to create one"
	case errors.Is(err, merrors.ErrAccessDenied):
		return ui.Error.Sprint("✗") + " Access to the signing key was denied. Unlock your keychain and try again."
	case errors.Is(err, merrors.ErrLocationUnavailable):
		return ui.Error.Sprint("✗") + " The key location is not available. Is the drive mounted?\n" +
			ui.Error.Sprint("Error: ") + err.Error()
	case errors.Is(err, merrors.ErrMigrationFailed):
		return ui.Error.Sprint("✗") + " The signing key could not be moved to its new location. It is still at the old one.\n" +
			ui.Error.Sprint("Error: ") + err.Error()
	default:
		return ui.Error.Sprint("✗") + " " + err.Error()
	}
}
