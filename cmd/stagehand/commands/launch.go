package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stagehand-dev/stagehand/internal/progress"
)

var launchCmd = &cobra.Command{
	Use:   "launch <workspace>",
	Short: "Launch a workspace",
	Long: `Launch every item of a workspace and record the windows it produced.

Applications sharing a delay run as one parallel bucket; buckets run in
ascending delay order. Files, folders, URLs, and terminal commands run
concurrently with the buckets, each honoring its own delay. The tracked
windows are persisted so a later close acts only on what this launch
opened.`,
	Example: `  # Launch the "morning" workspace
  stagehand launch morning

  # Launch with debug logging
  stagehand launch morning --log-level debug`,
	Args: cobra.ExactArgs(1),
	RunE: runLaunch,
}

func init() {
	rootCmd.AddCommand(launchCmd)
}

func runLaunch(cmd *cobra.Command, args []string) error {
	name := args[0]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	ws, err := a.store.Workspace(name)
	if err != nil {
		return err
	}
	if len(ws.Items) == 0 {
		fmt.Printf("Workspace %q has no items\n", name)
		return nil
	}

	report := a.scheduler.Launch(cmd.Context(), ws.Items, name, progress.NewLogSink(name))

	if err := a.store.SaveArtifacts(name, report.Artifacts); err != nil {
		return fmt.Errorf("failed to persist tracked windows: %w", err)
	}

	fmt.Printf("Launched %d/%d items, tracking %d artifacts\n",
		report.Succeeded, report.Total, len(report.Artifacts))
	if report.FirstErr != nil {
		fmt.Printf("First failure: %v\n", report.FirstErr)
	}
	return nil
}
