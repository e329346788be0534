package probe

import (
	"context"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/logger"
)

// ChainProber composes the direct X11 query with the automation-tool
// bridge, direct-query-first. The X11 backend is optional: when the X
// connection cannot be established (headless session, Wayland without
// XWayland) every call falls through to the bridge.
type ChainProber struct {
	x11    *X11Prober
	bridge *BridgeProber
}

// NewChainProber builds the default prober stack.
func NewChainProber(timing config.ProbeTiming) *ChainProber {
	c := &ChainProber{
		bridge: NewBridgeProber(timing),
	}

	x11, err := NewX11Prober(timing)
	if err != nil {
		logger.WithComponent("probe").Warn().
			Err(err).
			Msg("X11 unavailable, using automation bridge only")
	} else {
		c.x11 = x11
	}
	return c
}

// Close releases the X11 connection if one was established.
func (c *ChainProber) Close() error {
	if c.x11 != nil {
		return c.x11.Close()
	}
	return nil
}

// IsRunning uses the process-table check; both backends share it, so the
// bridge answers directly.
func (c *ChainProber) IsRunning(ctx context.Context, process string) bool {
	return c.bridge.IsRunning(ctx, process)
}

// WindowIDs prefers the direct query and falls back when it sees nothing.
// An empty result from both backends means unknown, not absent.
func (c *ChainProber) WindowIDs(ctx context.Context, process string) []uint32 {
	if c.x11 != nil {
		if ids := c.x11.WindowIDs(ctx, process); len(ids) > 0 {
			return ids
		}
	}
	return c.bridge.WindowIDs(ctx, process)
}

// WindowTitle prefers the direct query.
func (c *ChainProber) WindowTitle(ctx context.Context, id uint32) (string, bool) {
	if c.x11 != nil {
		if title, ok := c.x11.WindowTitle(ctx, id); ok {
			return title, ok
		}
	}
	return c.bridge.WindowTitle(ctx, id)
}

// CloseWindow tries the window-manager close message first and the
// automation tools second.
func (c *ChainProber) CloseWindow(ctx context.Context, id uint32) error {
	if c.x11 != nil {
		if err := c.x11.CloseWindow(ctx, id); err == nil {
			return nil
		}
	}
	return c.bridge.CloseWindow(ctx, id)
}

// Quit asks the process to terminate gracefully.
func (c *ChainProber) Quit(ctx context.Context, process string) error {
	return c.bridge.Quit(ctx, process)
}

// Terminate kills the process.
func (c *ChainProber) Terminate(ctx context.Context, process string) error {
	return c.bridge.Terminate(ctx, process)
}
