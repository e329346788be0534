package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/stagehand-dev/stagehand/internal/api"
	"github.com/stagehand-dev/stagehand/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Stagehand server",
	Long: `Start the Stagehand HTTP server.

The server exposes workspace management and the launch lifecycle over a
REST API, plus a websocket stream of launch progress.`,
	Example: `  # Start server on default port (8080)
  stagehand serve

  # Start server on custom port
  stagehand serve --port 9090

  # Start with debug logging
  stagehand serve --log-level debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	log := logger.WithComponent("serve")
	server := api.NewServer(a.store, a.configMgr, a.scheduler, a.orchestrator)

	go func() {
		if err := server.Start(a.cfg.ServerPort); err != nil {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	log.Info().
		Int("port", a.cfg.ServerPort).
		Str("config", a.configMgr.GetConfigPath()).
		Msg("stagehand is running, press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info().Msg("shutting down")
	return nil
}
