// Package launch holds the per-item-type launch strategies.
//
// The item type set is closed, so the strategies live behind an explicit
// Registry constructed at startup rather than an open plugin table. An
// item whose type has no strategy is a configuration error surfaced for
// that item alone.
package launch

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/probe"
	"github.com/stagehand-dev/stagehand/internal/track"
)

// Strategy knows how to start one kind of item and, where possible, how
// to stop the artifacts that starting it produced.
type Strategy interface {
	// Launch starts the item and returns the artifacts it is accountable
	// for. A nil slice is a valid outcome for untrackable item types.
	Launch(ctx context.Context, item config.Item) ([]track.Artifact, error)

	// Close tears down previously tracked artifacts. The group passed in
	// shares one process name and one item type.
	Close(ctx context.Context, artifacts []track.Artifact) error
}

// AppLauncher is the application strategy's phased surface. The scheduler
// drives the three phases itself so that a whole delay bucket shares one
// settle wait instead of paying it per item.
type AppLauncher interface {
	Strategy
	CaptureBefore(ctx context.Context, item config.Item) track.BeforeState
	IssueLaunch(ctx context.Context, item config.Item) error
	CaptureAfter(ctx context.Context, before track.BeforeState) []track.Artifact
}

// Registry is the constructed strategy table. It is plain configuration,
// not ambient state, so the engine stays testable with fakes.
type Registry struct {
	app        AppLauncher
	fileFolder Strategy
	url        Strategy
	terminal   Strategy
}

// NewRegistry wires the real strategies over a probe bridge.
func NewRegistry(bridge probe.Bridge, capt *track.Capturer, cfg *config.Config) *Registry {
	return &Registry{
		app:        NewAppStrategy(bridge, capt),
		fileFolder: NewFileFolderStrategy(bridge, capt, cfg.FileManagerProcess),
		url:        NewURLStrategy(),
		terminal:   NewTerminalStrategy(cfg.TerminalSpawn),
	}
}

// NewRegistryWith builds a registry from explicit strategies, used by
// tests to substitute fakes.
func NewRegistryWith(app AppLauncher, fileFolder, url, terminal Strategy) *Registry {
	return &Registry{app: app, fileFolder: fileFolder, url: url, terminal: terminal}
}

// ForType returns the strategy for an item type.
func (r *Registry) ForType(t config.ItemType) (Strategy, error) {
	switch t {
	case config.ItemApplication:
		return r.app, nil
	case config.ItemFile, config.ItemFolder:
		return r.fileFolder, nil
	case config.ItemURL:
		return r.url, nil
	case config.ItemTerminalCommand:
		return r.terminal, nil
	}
	return nil, fmt.Errorf("no strategy registered for item type %q", t)
}

// App returns the application strategy, which the scheduler drives in
// phases rather than through the plain Launch call.
func (r *Registry) App() AppLauncher {
	return r.app
}

// startDetached launches argv and reaps it in the background. Launch
// commands are fire-and-forget: only spawn failure is reported.
func startDetached(ctx context.Context, argv ...string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to spawn %s: %w", argv[0], err)
	}
	go cmd.Wait()
	return nil
}
