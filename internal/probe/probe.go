// Package probe queries and controls OS-level process and window state.
//
// Two backends are provided: an X11 backend that asks the window manager
// directly (EWMH properties via xgb) and a bridge backend that shells out
// to the desktop automation tools (xdotool, wmctrl, xprop). The chain
// prober composes them direct-query-first.
//
// Every query is bounded by a timeout and degrades to "no information"
// (empty set / false) on failure. Callers must treat an empty result as
// unknown, not as proof of absence.
package probe

import (
	"context"
	"time"
)

// Bridge is the probe and control surface the engine depends on.
type Bridge interface {
	// IsRunning reports whether a process with the given name is alive.
	IsRunning(ctx context.Context, process string) bool

	// WindowIDs returns the ids of all visible windows owned by the named
	// process. Empty means "none observed", which may also mean the query
	// failed or timed out.
	WindowIDs(ctx context.Context, process string) []uint32

	// WindowTitle returns the title of a window, best effort.
	WindowTitle(ctx context.Context, id uint32) (string, bool)

	// CloseWindow closes one window by id.
	CloseWindow(ctx context.Context, id uint32) error

	// Quit asks the named process to terminate gracefully.
	Quit(ctx context.Context, process string) error

	// Terminate kills the named process. A process that no longer exists
	// is not an error.
	Terminate(ctx context.Context, process string) error
}

// call runs fn under a deadline and reports whether it finished in time.
// A probe that overruns its bound is abandoned; its result is discarded.
func call(ctx context.Context, timeout time.Duration, fn func() error) error {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-cctx.Done():
		return cctx.Err()
	}
}
