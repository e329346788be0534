package launch

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/rs/zerolog"
	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/logger"
	"github.com/stagehand-dev/stagehand/internal/probe"
	"github.com/stagehand-dev/stagehand/internal/track"
)

// FileFolderStrategy opens files and folders with the default handler.
// Tracking is advisory: a new file-manager window observed around the
// launch is recorded, but nothing application-level is ever tracked, so a
// close can never take down the user's file manager.
type FileFolderStrategy struct {
	bridge      probe.Bridge
	capt        *track.Capturer
	fileManager string
	log         *zerolog.Logger

	xdgOpenPath string
}

// NewFileFolderStrategy builds the strategy around the configured file
// manager process name.
func NewFileFolderStrategy(bridge probe.Bridge, capt *track.Capturer, fileManager string) *FileFolderStrategy {
	s := &FileFolderStrategy{
		bridge:      bridge,
		capt:        capt,
		fileManager: fileManager,
		log:         logger.WithComponent("file-strategy"),
	}
	if path, err := exec.LookPath("xdg-open"); err == nil {
		s.xdgOpenPath = path
	}
	return s
}

// Launch opens the path and keeps only window-mode artifacts from the
// diff. Application-mode results are discarded: the file manager is a
// shared resource, never ours to quit.
func (s *FileFolderStrategy) Launch(ctx context.Context, item config.Item) ([]track.Artifact, error) {
	if s.xdgOpenPath == "" {
		return nil, fmt.Errorf("xdg-open not available for %q", item.Path)
	}

	before := s.capt.BeforeProcess(ctx, item, s.fileManager)
	if err := startDetached(ctx, s.xdgOpenPath, item.Path); err != nil {
		return nil, err
	}
	resolved := s.capt.After(ctx, before)

	var artifacts []track.Artifact
	for _, artifact := range resolved {
		if artifact.Mode == track.TrackWindow {
			artifacts = append(artifacts, artifact)
		}
	}
	return artifacts, nil
}

// Close is best effort: failures are logged and swallowed, and never
// affect batch accounting.
func (s *FileFolderStrategy) Close(ctx context.Context, artifacts []track.Artifact) error {
	for _, artifact := range artifacts {
		if artifact.Mode != track.TrackWindow {
			continue
		}
		if err := s.bridge.CloseWindow(ctx, artifact.SystemWindowID); err != nil {
			s.log.Debug().
				Err(err).
				Uint32("window_id", artifact.SystemWindowID).
				Msg("advisory window close failed")
		}
	}
	return nil
}
