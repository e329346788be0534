package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/stagehand-dev/stagehand/internal/track"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <workspace>",
	Short: "Check which tracked windows still exist",
	Long: `Re-check every window and application a previous launch of this
workspace produced and report which of them still exist. Verification
never closes anything and is safe to repeat.`,
	Example: `  # Show surviving windows of the last "morning" launch
  stagehand verify morning

  # JSON output
  stagehand verify morning --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

var verifyFormat string

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().StringVarP(&verifyFormat, "format", "f", "table", "output format (table or json)")
}

func runVerify(cmd *cobra.Command, args []string) error {
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

	alive := a.orchestrator.Verify(cmd.Context(), artifacts)

	switch verifyFormat {
	case "json":
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(alive)
	case "table":
		fmt.Printf("%d of %d tracked artifacts still alive\n\n", len(alive), len(artifacts))
		return printArtifactsTable(alive)
	default:
		return fmt.Errorf("unsupported format: %s (use 'table' or 'json')", verifyFormat)
	}
}

func printArtifactsTable(artifacts []track.Artifact) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "PROCESS\tMODE\tWINDOW\tTITLE")
	fmt.Fprintln(w, "-------\t----\t------\t-----")

	for _, a := range artifacts {
		window := "-"
		if a.Mode == track.TrackWindow {
			window = fmt.Sprintf("0x%x", a.SystemWindowID)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ProcessName, a.Mode, window, a.WindowTitle)
	}

	return nil
}
