package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/PolarWolf314/mainsail/internal/ui"
	"github.com/PolarWolf314/mainsail/internal/workflows"
)

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "Manage the signing and checking folders",
}

var foldersInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the folder tree at the configured location",
	Long: `Creates to-sign, to-sign/signed, to-check and its quarantine, verified and
checked folders under the configured location. If the tree exists at the
other location it is moved.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		changes, err := workflows.EnsureFolders(cmd.Context(), e.settings.HomeDir, e.cfg.FoldersLocation)
		if err != nil {
			return Logger.ErrorfAndReturn("failed to prepare folders: %v", err)
		}

		out := cmd.OutOrStdout()
		if !changes.Changed() {
			fmt.Fprintln(out, ui.Success.Sprint("✓")+" Folders already in place at "+ui.Path.Sprint(e.layout().Root))
			return nil
		}
		for _, d := range changes.Moved {
			fmt.Fprintln(out, ui.Info.Sprint("→")+" Moved "+ui.Path.Sprint(d))
		}
		for _, d := range changes.Created {
			fmt.Fprintln(out, ui.Success.Sprint("✓")+" Created "+ui.Path.Sprint(d))
		}
		if changes.Linked != "" {
			fmt.Fprintln(out, ui.Success.Sprint("✓")+" Linked "+ui.Path.Sprint(changes.Linked))
		}
		return nil
	},
}

func init() {
	foldersCmd.AddCommand(foldersInitCmd)
}
