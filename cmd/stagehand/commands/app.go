package commands

import (
	"fmt"

	"github.com/spf13/viper"
	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/engine"
	"github.com/stagehand-dev/stagehand/internal/launch"
	"github.com/stagehand-dev/stagehand/internal/logger"
	"github.com/stagehand-dev/stagehand/internal/probe"
	"github.com/stagehand-dev/stagehand/internal/store"
	"github.com/stagehand-dev/stagehand/internal/track"
)

// app bundles everything a command needs: the loaded configuration, the
// workspace store, and the launch engine wired over the probe stack.
type app struct {
	configMgr    *config.Manager
	cfg          *config.Config
	store        *store.Store
	prober       *probe.ChainProber
	scheduler    *engine.Scheduler
	orchestrator *engine.Orchestrator
}

// newApp loads configuration and wires the engine. Every command goes
// through here so flag overrides behave identically everywhere.
func newApp() (*app, error) {
	configMgr, err := config.NewManager(GetConfigFile())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize config manager: %w", err)
	}

	if viper.IsSet("server_port") {
		if port := viper.GetInt("server_port"); port > 0 {
			configMgr.SetPort(port)
		}
	}
	if viper.IsSet("log_level") {
		if level := viper.GetString("log_level"); level != "" {
			configMgr.SetLogLevel(level)
		}
	}

	cfg := configMgr.Get()
	logger.Init(cfg.LogLevel, true)

	st, err := store.NewStore(configMgr.GetConfigDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open workspace store: %w", err)
	}

	prober := probe.NewChainProber(cfg.Probe)
	capturer := track.NewCapturer(prober, cfg.Launch)
	registry := launch.NewRegistry(prober, capturer, cfg)

	return &app{
		configMgr:    configMgr,
		cfg:          cfg,
		store:        st,
		prober:       prober,
		scheduler:    engine.NewScheduler(registry, cfg.Launch),
		orchestrator: engine.NewOrchestrator(prober, registry),
	}, nil
}

// close releases the probe's X11 connection.
func (a *app) close() {
	if err := a.prober.Close(); err != nil {
		logger.WithComponent("cli").Warn().Err(err).Msg("failed to close probe")
	}
}
