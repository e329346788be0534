package track

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehand-dev/stagehand/internal/config"
)

// fakeBridge is an in-memory probe backend.
type fakeBridge struct {
	mu      sync.Mutex
	running map[string]bool
	windows map[string][]uint32
	titles  map[uint32]string
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{
		running: make(map[string]bool),
		windows: make(map[string][]uint32),
		titles:  make(map[uint32]string),
	}
}

func (f *fakeBridge) IsRunning(ctx context.Context, process string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running[process]
}

func (f *fakeBridge) WindowIDs(ctx context.Context, process string) []uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint32(nil), f.windows[process]...)
}

func (f *fakeBridge) WindowTitle(ctx context.Context, id uint32) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	title, ok := f.titles[id]
	return title, ok
}

func (f *fakeBridge) CloseWindow(ctx context.Context, id uint32) error { return nil }
func (f *fakeBridge) Quit(ctx context.Context, process string) error  { return nil }
func (f *fakeBridge) Terminate(ctx context.Context, process string) error {
	return nil
}

func (f *fakeBridge) set(process string, running bool, ids ...uint32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running[process] = running
	f.windows[process] = ids
}

// fastTiming keeps the capture waits negligible in tests.
func fastTiming() config.LaunchTiming {
	return config.LaunchTiming{
		BucketSettle:  time.Millisecond,
		AppearPoll:    time.Millisecond,
		AppearTimeout: 10 * time.Millisecond,
		WindowSettle:  time.Millisecond,
	}
}

func TestCaptureBeforeSnapshotsState(t *testing.T) {
	bridge := newFakeBridge()
	bridge.set("firefox", true, 0x10, 0x20)
	capt := NewCapturer(bridge, fastTiming())

	item := config.Item{ID: "i1", Type: config.ItemApplication, Path: "firefox.desktop"}
	before := capt.Before(context.Background(), item)

	assert.Equal(t, "firefox", before.ProcessName)
	assert.True(t, before.WasRunning)
	assert.Len(t, before.WindowsBefore, 2)
	assert.Contains(t, before.WindowsBefore, uint32(0x10))
	assert.Contains(t, before.WindowsBefore, uint32(0x20))
}

func TestCaptureAfterDiffsNewWindows(t *testing.T) {
	bridge := newFakeBridge()
	bridge.set("firefox", true, 0x10, 0x20)
	capt := NewCapturer(bridge, fastTiming())

	item := config.Item{ID: "i1", Type: config.ItemApplication, Path: "firefox.desktop"}
	before := capt.Before(context.Background(), item)

	bridge.set("firefox", true, 0x10, 0x20, 0x30)
	bridge.mu.Lock()
	bridge.titles[0x30] = "New Tab"
	bridge.mu.Unlock()

	artifacts := capt.After(context.Background(), before)

	require.Len(t, artifacts, 1)
	assert.Equal(t, uint32(0x30), artifacts[0].SystemWindowID)
	assert.Equal(t, "New Tab", artifacts[0].WindowTitle)
	assert.Equal(t, TrackWindow, artifacts[0].Mode)
}

func TestCaptureAfterFallsBackToApplicationTracking(t *testing.T) {
	bridge := newFakeBridge()
	bridge.set("spotify", false)
	capt := NewCapturer(bridge, fastTiming())

	item := config.Item{ID: "i2", Type: config.ItemApplication, Path: "spotify.desktop"}
	before := capt.Before(context.Background(), item)

	// The process appears but its window never becomes observable.
	bridge.set("spotify", true)

	artifacts := capt.After(context.Background(), before)

	require.Len(t, artifacts, 1)
	assert.Equal(t, TrackApplication, artifacts[0].Mode)
	assert.Equal(t, AppWindowID, artifacts[0].SystemWindowID)
}

func TestCaptureAfterAlreadyRunningTracksNothing(t *testing.T) {
	bridge := newFakeBridge()
	bridge.set("firefox", true, 0x10)
	capt := NewCapturer(bridge, fastTiming())

	item := config.Item{ID: "i3", Type: config.ItemApplication, Path: "firefox.desktop"}
	before := capt.Before(context.Background(), item)

	artifacts := capt.After(context.Background(), before)

	assert.Empty(t, artifacts)
}

func TestCaptureBeforeProcessUsesExplicitProcess(t *testing.T) {
	bridge := newFakeBridge()
	bridge.set("nautilus", true, 0x40)
	capt := NewCapturer(bridge, fastTiming())

	item := config.Item{ID: "i4", Type: config.ItemFolder, Path: "/home/user/docs"}
	before := capt.BeforeProcess(context.Background(), item, "nautilus")

	assert.Equal(t, "nautilus", before.ProcessName)
	assert.True(t, before.WasRunning)
	assert.Contains(t, before.WindowsBefore, uint32(0x40))
}
