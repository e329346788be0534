package track

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/logger"
	"github.com/stagehand-dev/stagehand/internal/probe"
)

// Capturer snapshots process and window state around a launch and diffs
// the two snapshots into artifacts.
type Capturer struct {
	bridge probe.Bridge
	timing config.LaunchTiming
	log    *zerolog.Logger
}

// NewCapturer creates a Capturer over the given probe bridge.
func NewCapturer(bridge probe.Bridge, timing config.LaunchTiming) *Capturer {
	return &Capturer{
		bridge: bridge,
		timing: timing,
		log:    logger.WithComponent("capture"),
	}
}

// ProcessName derives the process name from an item path: strip the
// desktop-entry suffix, take the last path segment, lowercase.
func ProcessName(path string) string {
	name := strings.TrimSuffix(path, ".desktop")
	if idx := strings.LastIndexAny(name, "/"); idx >= 0 {
		name = name[idx+1:]
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// Before snapshots pre-launch state for one application item. Liveness and
// window enumeration run concurrently; both degrade rather than fail.
func (c *Capturer) Before(ctx context.Context, item config.Item) BeforeState {
	return c.BeforeProcess(ctx, item, ProcessName(item.Path))
}

// BeforeProcess is Before with an explicit process name, for items whose
// windows are owned by a handler process rather than the item itself.
func (c *Capturer) BeforeProcess(ctx context.Context, item config.Item, process string) BeforeState {
	var (
		wasRunning bool
		windowIDs  []uint32
		wg         sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		wasRunning = c.bridge.IsRunning(ctx, process)
	}()
	go func() {
		defer wg.Done()
		windowIDs = c.bridge.WindowIDs(ctx, process)
	}()
	wg.Wait()

	before := BeforeState{
		Item:          item,
		ProcessName:   process,
		WasRunning:    wasRunning,
		WindowsBefore: make(map[uint32]struct{}, len(windowIDs)),
	}
	for _, id := range windowIDs {
		before.WindowsBefore[id] = struct{}{}
	}

	c.log.Debug().
		Str("process", process).
		Bool("was_running", wasRunning).
		Int("windows_before", len(windowIDs)).
		Msg("captured before state")
	return before
}

// After waits for the launched process to settle, re-enumerates its
// windows, and resolves the diff into artifacts.
func (c *Capturer) After(ctx context.Context, before BeforeState) []Artifact {
	if !before.WasRunning {
		c.waitForProcess(ctx, before.ProcessName)
	}
	sleep(ctx, c.timing.WindowSettle)

	after := c.bridge.WindowIDs(ctx, before.ProcessName)

	var newIDs []uint32
	for _, id := range after {
		if _, existed := before.WindowsBefore[id]; !existed {
			newIDs = append(newIDs, id)
		}
	}
	sort.Slice(newIDs, func(i, j int) bool { return newIDs[i] < newIDs[j] })

	titles := c.fetchTitles(ctx, newIDs)

	artifacts := Resolve(before, newIDs, titles, time.Now())
	c.log.Debug().
		Str("process", before.ProcessName).
		Int("new_windows", len(newIDs)).
		Int("artifacts", len(artifacts)).
		Msg("captured after state")
	return artifacts
}

// waitForProcess polls the process table at a short interval until the
// process appears or the ceiling is hit. Timing out is not an error; the
// diff simply sees whatever state exists.
func (c *Capturer) waitForProcess(ctx context.Context, process string) {
	deadline := time.Now().Add(c.timing.AppearTimeout)
	for {
		if c.bridge.IsRunning(ctx, process) {
			return
		}
		if time.Now().After(deadline) {
			c.log.Debug().Str("process", process).Msg("process did not appear before ceiling")
			return
		}
		if !sleep(ctx, c.timing.AppearPoll) {
			return
		}
	}
}

// fetchTitles queries window titles concurrently, one query per id.
func (c *Capturer) fetchTitles(ctx context.Context, ids []uint32) map[uint32]string {
	titles := make(map[uint32]string, len(ids))
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id uint32) {
			defer wg.Done()
			if title, ok := c.bridge.WindowTitle(ctx, id); ok {
				mu.Lock()
				titles[id] = title
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()
	return titles
}

// sleep suspends for d or until the context is done. Returns false when
// interrupted.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
