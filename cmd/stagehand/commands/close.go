package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var closeCmd = &cobra.Command{
	Use:   "close <workspace>",
	Short: "Close what a previous launch opened",
	Long: `Close the windows and applications a previous launch of this workspace
produced. Anything that already disappeared on its own counts as closed;
windows that existed before the launch are never touched.`,
	Example: `  # Close everything the last launch of "morning" opened
  stagehand close morning`,
	Args: cobra.ExactArgs(1),
	RunE: runClose,
}

func init() {
	rootCmd.AddCommand(closeCmd)
}

func runClose(cmd *cobra.Command, args []string) error {
	name := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	artifacts, err := a.store.Artifacts(name)
	if err != nil {
		return err
	}
	if len(artifacts) == 0 {
		fmt.Printf("Nothing tracked for workspace %q\n", name)
		return nil
	}

	a.orchestrator.Close(cmd.Context(), artifacts)
	if err := a.store.ClearArtifacts(name); err != nil {
		return fmt.Errorf("failed to clear tracked state: %w", err)
	}

	fmt.Printf("Closed workspace %q (%d tracked artifacts)\n", name, len(artifacts))
	return nil
}
