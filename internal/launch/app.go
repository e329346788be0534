package launch

import (
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/logger"
	"github.com/stagehand-dev/stagehand/internal/probe"
	"github.com/stagehand-dev/stagehand/internal/track"
)

// AppStrategy launches desktop applications and tracks the windows or
// application instances the launch produced. It is the only strategy with
// ambiguous artifacts, so it is the only one coordinated by state capture.
type AppStrategy struct {
	bridge probe.Bridge
	capt   *track.Capturer
	log    *zerolog.Logger

	gtkLaunchPath string
	gioPath       string
	xdgOpenPath   string
}

// NewAppStrategy resolves the launcher binaries once up front.
func NewAppStrategy(bridge probe.Bridge, capt *track.Capturer) *AppStrategy {
	s := &AppStrategy{
		bridge: bridge,
		capt:   capt,
		log:    logger.WithComponent("app-strategy"),
	}
	if path, err := exec.LookPath("gtk-launch"); err == nil {
		s.gtkLaunchPath = path
	}
	if path, err := exec.LookPath("gio"); err == nil {
		s.gioPath = path
	}
	if path, err := exec.LookPath("xdg-open"); err == nil {
		s.xdgOpenPath = path
	}
	return s
}

// CaptureBefore snapshots process and window state ahead of the launch.
func (s *AppStrategy) CaptureBefore(ctx context.Context, item config.Item) track.BeforeState {
	return s.capt.Before(ctx, item)
}

// IssueLaunch spawns the application by desktop entry id, preferring
// gtk-launch, then gio launch, then xdg-open on the raw path.
func (s *AppStrategy) IssueLaunch(ctx context.Context, item config.Item) error {
	id := strings.TrimSuffix(item.Path, ".desktop")

	if s.gtkLaunchPath != "" {
		if err := startDetached(ctx, s.gtkLaunchPath, id); err == nil {
			return nil
		}
	}
	if s.gioPath != "" {
		if err := startDetached(ctx, s.gioPath, "launch", id+".desktop"); err == nil {
			return nil
		}
	}
	if s.xdgOpenPath != "" {
		return startDetached(ctx, s.xdgOpenPath, item.Path)
	}
	return fmt.Errorf("no application launcher available for %q", item.Path)
}

// CaptureAfter re-snapshots and resolves the diff into artifacts.
func (s *AppStrategy) CaptureAfter(ctx context.Context, before track.BeforeState) []track.Artifact {
	return s.capt.After(ctx, before)
}

// Launch runs the three phases sequentially for a single item. Batched
// launches go through the phased surface instead.
func (s *AppStrategy) Launch(ctx context.Context, item config.Item) ([]track.Artifact, error) {
	before := s.CaptureBefore(ctx, item)
	if err := s.IssueLaunch(ctx, item); err != nil {
		return nil, err
	}
	return s.CaptureAfter(ctx, before), nil
}

// Close tears down one process's artifact group: window-mode artifacts
// are closed individually; an application-mode artifact quits the whole
// process, force-terminating when the graceful quit fails.
func (s *AppStrategy) Close(ctx context.Context, artifacts []track.Artifact) error {
	var firstErr error
	for _, artifact := range artifacts {
		switch artifact.Mode {
		case track.TrackWindow:
			if err := s.bridge.CloseWindow(ctx, artifact.SystemWindowID); err != nil {
				s.log.Warn().
					Err(err).
					Str("process", artifact.ProcessName).
					Uint32("window_id", artifact.SystemWindowID).
					Msg("window close failed")
				if firstErr == nil {
					firstErr = err
				}
			}
		case track.TrackApplication:
			if err := s.bridge.Quit(ctx, artifact.ProcessName); err != nil {
				s.log.Debug().
					Err(err).
					Str("process", artifact.ProcessName).
					Msg("graceful quit failed, terminating")
				if err := s.bridge.Terminate(ctx, artifact.ProcessName); err != nil && firstErr == nil {
					firstErr = err
				}
			}
		}
	}
	return firstErr
}
