package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/stagehand-dev/stagehand/internal/config"
)

var addCmd = &cobra.Command{
	Use:   "add <workspace> <type> <path>",
	Short: "Add an item to a workspace",
	Long: `Add an item to a workspace, creating the workspace if it does not
exist yet. The type is one of: application, file, folder, url,
terminal-command.`,
	Example: `  # Add an application launched immediately
  stagehand add morning application firefox.desktop

  # Add an application launched five seconds in
  stagehand add morning application spotify.desktop --delay 5s

  # Add a URL
  stagehand add morning url https://example.com/dashboard

  # Add a terminal command
  stagehand add morning terminal-command "tail -f /var/log/syslog"`,
	Args: cobra.ExactArgs(3),
	RunE: runAdd,
}

var (
	addDelay time.Duration
	addName  string
)

func init() {
	rootCmd.AddCommand(addCmd)

	addCmd.Flags().DurationVar(&addDelay, "delay", 0, "delay before launching this item")
	addCmd.Flags().StringVar(&addName, "name", "", "display name (defaults to the path)")
}

func runAdd(cmd *cobra.Command, args []string) error {
	workspace, itemType, path := args[0], args[1], args[2]

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	name := addName
	if name == "" {
		name = path
	}

	item, err := a.store.AddItem(workspace, config.Item{
		Type:  config.ItemType(itemType),
		Name:  name,
		Path:  path,
		Delay: addDelay,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Added %s %q to workspace %q (id %s)\n", item.Type, item.Name, workspace, item.ID)
	return nil
}
