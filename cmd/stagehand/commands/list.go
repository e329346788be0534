package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list [workspace]",
	Short: "List workspaces or a workspace's items",
	Long: `List all defined workspaces, or the items of one workspace when a
name is given.`,
	Example: `  # List all workspaces
  stagehand list

  # List the items of one workspace
  stagehand list morning

  # JSON output
  stagehand list morning --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runList,
}

var listFormat string

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "output format (table or json)")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if len(args) == 1 {
		return listItems(a, args[0])
	}
	return listWorkspaces(a)
}

func listWorkspaces(a *app) error {
	workspaces, err := a.store.Workspaces()
	if err != nil {
		return fmt.Errorf("failed to load workspaces: %w", err)
	}

	if listFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(workspaces)
	}

	if len(workspaces) == 0 {
		fmt.Println("No workspaces defined")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "NAME\tITEMS")
	fmt.Fprintln(w, "----\t-----")
	for _, ws := range workspaces {
		fmt.Fprintf(w, "%s\t%d\n", ws.Name, len(ws.Items))
	}
	return nil
}

func listItems(a *app, name string) error {
	ws, err := a.store.Workspace(name)
	if err != nil {
		return err
	}

	if listFormat == "json" {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(ws.Items)
	}

	if len(ws.Items) == 0 {
		fmt.Printf("Workspace %q has no items\n", name)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintln(w, "NAME\tTYPE\tPATH\tDELAY")
	fmt.Fprintln(w, "----\t----\t----\t-----")
	for _, item := range ws.Items {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", item.Name, item.Type, item.Path, item.Delay)
	}
	return nil
}
