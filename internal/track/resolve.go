package track

import (
	"github.com/google/uuid"
	"time"
)

// Resolve decides how a launch outcome is tracked. It is a pure function
// of the before snapshot and the observed new window ids:
//
//   - new windows appeared: one window-mode artifact per new id
//   - no new windows, process was not running before: one application-mode
//     artifact with the sentinel window id
//   - no new windows, process was already running: nothing, so that
//     pre-existing user work is never tracked and never closed
//
// titles carries best-effort window titles keyed by id; missing entries
// leave the title empty.
func Resolve(before BeforeState, newWindowIDs []uint32, titles map[uint32]string, launchedAt time.Time) []Artifact {
	if len(newWindowIDs) > 0 {
		artifacts := make([]Artifact, 0, len(newWindowIDs))
		for _, id := range newWindowIDs {
			artifacts = append(artifacts, Artifact{
				ID:             uuid.NewString(),
				SystemWindowID: id,
				ItemID:         before.Item.ID,
				ProcessName:    before.ProcessName,
				WindowTitle:    titles[id],
				ItemType:       before.Item.Type,
				Mode:           TrackWindow,
				LaunchedAt:     launchedAt,
			})
		}
		return artifacts
	}

	if !before.WasRunning {
		return []Artifact{{
			ID:             uuid.NewString(),
			SystemWindowID: AppWindowID,
			ItemID:         before.Item.ID,
			ProcessName:    before.ProcessName,
			ItemType:       before.Item.Type,
			Mode:           TrackApplication,
			LaunchedAt:     launchedAt,
		}}
	}

	// Already running and nothing new observed: not ours to track.
	return nil
}
