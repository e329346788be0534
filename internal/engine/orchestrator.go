package engine

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/launch"
	"github.com/stagehand-dev/stagehand/internal/logger"
	"github.com/stagehand-dev/stagehand/internal/probe"
	"github.com/stagehand-dev/stagehand/internal/track"
)

// Orchestrator re-verifies and closes previously tracked artifacts. It
// acts only on the artifact list a launch returned, never on the original
// item list, so it can never touch state the launch did not produce.
type Orchestrator struct {
	bridge   probe.Bridge
	registry *launch.Registry
	log      *zerolog.Logger
}

// NewOrchestrator builds the close/verify orchestrator.
func NewOrchestrator(bridge probe.Bridge, registry *launch.Registry) *Orchestrator {
	return &Orchestrator{
		bridge:   bridge,
		registry: registry,
		log:      logger.WithComponent("orchestrator"),
	}
}

// Verify returns the subset of artifacts that still exist. Artifacts are
// checked per process group: a dead process drops its whole group; for a
// live one, application-mode artifacts survive on liveness alone while
// window-mode artifacts must still be present in the window list.
func (o *Orchestrator) Verify(ctx context.Context, artifacts []track.Artifact) []track.Artifact {
	type processState struct {
		running bool
		windows map[uint32]struct{}
	}
	states := make(map[string]*processState)

	stateFor := func(process string) *processState {
		if state, ok := states[process]; ok {
			return state
		}
		state := &processState{running: o.bridge.IsRunning(ctx, process)}
		if state.running {
			state.windows = make(map[uint32]struct{})
			for _, id := range o.bridge.WindowIDs(ctx, process) {
				state.windows[id] = struct{}{}
			}
		}
		states[process] = state
		return state
	}

	alive := make([]track.Artifact, 0, len(artifacts))
	for _, artifact := range artifacts {
		state := stateFor(artifact.ProcessName)
		if !state.running {
			continue
		}
		if artifact.Mode == track.TrackApplication {
			// Liveness is sufficient proof for application-level tracking.
			alive = append(alive, artifact)
			continue
		}
		if _, present := state.windows[artifact.SystemWindowID]; present {
			alive = append(alive, artifact)
		}
	}

	o.log.Debug().
		Int("checked", len(artifacts)).
		Int("alive", len(alive)).
		Msg("verified artifacts")
	return alive
}

// Close re-verifies and then closes exactly the surviving artifacts,
// grouped by owning strategy. Closing something already gone is a no-op
// success; close failures are logged and swallowed since the target may
// have legitimately disappeared between verify and close.
func (o *Orchestrator) Close(ctx context.Context, artifacts []track.Artifact) {
	alive := o.Verify(ctx, artifacts)
	if len(alive) == 0 {
		o.log.Info().Msg("nothing left to close")
		return
	}

	type groupKey struct {
		process  string
		itemType config.ItemType
	}
	groups := make(map[groupKey][]track.Artifact)
	var order []groupKey
	for _, artifact := range alive {
		key := groupKey{artifact.ProcessName, artifact.ItemType}
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], artifact)
	}

	for _, key := range order {
		strategy, err := o.registry.ForType(key.itemType)
		if err != nil {
			o.log.Error().
				Err(err).
				Str("process", key.process).
				Msg("no strategy for tracked artifact group")
			continue
		}
		if err := strategy.Close(ctx, groups[key]); err != nil {
			o.log.Warn().
				Err(err).
				Str("process", key.process).
				Str("item_type", string(key.itemType)).
				Msg("close failed for artifact group")
		}
	}
}
