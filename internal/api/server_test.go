package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/engine"
	"github.com/stagehand-dev/stagehand/internal/launch"
	"github.com/stagehand-dev/stagehand/internal/store"
	"github.com/stagehand-dev/stagehand/internal/track"
)

// stubBridge reports every process dead. The orchestrator then treats all
// tracked artifacts as gone, which is the safe behavior in a test
// environment with no display.
type stubBridge struct{}

func (stubBridge) IsRunning(ctx context.Context, process string) bool        { return false }
func (stubBridge) WindowIDs(ctx context.Context, process string) []uint32    { return nil }
func (stubBridge) WindowTitle(ctx context.Context, id uint32) (string, bool) { return "", false }
func (stubBridge) CloseWindow(ctx context.Context, id uint32) error          { return nil }
func (stubBridge) Quit(ctx context.Context, process string) error            { return nil }
func (stubBridge) Terminate(ctx context.Context, process string) error       { return nil }

// stubApp launches nothing and tracks a fixed artifact per item.
type stubApp struct{}

func (stubApp) CaptureBefore(ctx context.Context, item config.Item) track.BeforeState {
	return track.BeforeState{Item: item, ProcessName: item.Name}
}
func (stubApp) IssueLaunch(ctx context.Context, item config.Item) error { return nil }
func (stubApp) CaptureAfter(ctx context.Context, before track.BeforeState) []track.Artifact {
	return []track.Artifact{{
		ID:          "stub-" + before.Item.ID,
		ProcessName: before.ProcessName,
		ItemType:    before.Item.Type,
		Mode:        track.TrackApplication,
	}}
}
func (s stubApp) Launch(ctx context.Context, item config.Item) ([]track.Artifact, error) {
	return s.CaptureAfter(ctx, s.CaptureBefore(ctx, item)), nil
}
func (stubApp) Close(ctx context.Context, artifacts []track.Artifact) error { return nil }

type stubStrategy struct{}

func (stubStrategy) Launch(ctx context.Context, item config.Item) ([]track.Artifact, error) {
	return nil, nil
}
func (stubStrategy) Close(ctx context.Context, artifacts []track.Artifact) error { return nil }

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dir := t.TempDir()
	st, err := store.NewStore(dir)
	require.NoError(t, err)

	configMgr, err := config.NewManager(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)

	registry := launch.NewRegistryWith(stubApp{}, stubStrategy{}, stubStrategy{}, stubStrategy{})
	scheduler := engine.NewScheduler(registry, config.LaunchTiming{BucketSettle: time.Millisecond})
	orchestrator := engine.NewOrchestrator(stubBridge{}, registry)

	server := NewServer(st, configMgr, scheduler, orchestrator)
	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func TestWorkspaceCRUDOverHTTP(t *testing.T) {
	ts := newTestServer(t)

	// Create
	resp := postJSON(t, ts.URL+"/api/workspaces", config.Workspace{
		Name: "morning",
		Items: []config.Item{
			{Type: config.ItemApplication, Name: "Firefox", Path: "firefox.desktop"},
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Read back
	resp, err := http.Get(ts.URL + "/api/workspaces/morning")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var ws config.Workspace
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&ws))
	assert.Equal(t, "morning", ws.Name)
	require.Len(t, ws.Items, 1)
	assert.NotEmpty(t, ws.Items[0].ID)

	// Add item
	resp = postJSON(t, ts.URL+"/api/workspaces/morning/items", config.Item{
		Type: config.ItemURL, Name: "Dashboard", Path: "https://example.com",
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// List
	resp, err = http.Get(ts.URL + "/api/workspaces")
	require.NoError(t, err)
	var all []config.Workspace
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	resp.Body.Close()
	require.Len(t, all, 1)
	assert.Len(t, all[0].Items, 2)

	// Delete
	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/workspaces/morning", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/workspaces/morning")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestSaveWorkspaceRejectsBadItems(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/workspaces", config.Workspace{
		Name:  "bad",
		Items: []config.Item{{Type: config.ItemType("gadget"), Path: "x"}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestLaunchCloseVerifyLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/workspaces", config.Workspace{
		Name: "work",
		Items: []config.Item{
			{Type: config.ItemApplication, Name: "calendar", Path: "calendar.desktop"},
			{Type: config.ItemURL, Name: "page", Path: "https://example.com"},
		},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	// Launch
	resp = postJSON(t, ts.URL+"/api/workspaces/work/launch", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var launchResult struct {
		Succeeded int              `json:"succeeded"`
		Total     int              `json:"total"`
		Artifacts []track.Artifact `json:"artifacts"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&launchResult))
	resp.Body.Close()
	assert.Equal(t, 2, launchResult.Succeeded)
	assert.Equal(t, 2, launchResult.Total)
	require.Len(t, launchResult.Artifacts, 1, "only the application item tracks an artifact")

	// Artifacts persisted
	resp, err := http.Get(ts.URL + "/api/workspaces/work/artifacts")
	require.NoError(t, err)
	var artifacts []track.Artifact
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&artifacts))
	resp.Body.Close()
	assert.Len(t, artifacts, 1)

	// Verify: stub bridge reports everything dead.
	resp, err = http.Get(ts.URL + "/api/workspaces/work/verify")
	require.NoError(t, err)
	var verifyResult struct {
		Tracked int `json:"tracked"`
		Alive   int `json:"alive"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&verifyResult))
	resp.Body.Close()
	assert.Equal(t, 1, verifyResult.Tracked)
	assert.Equal(t, 0, verifyResult.Alive)

	// Close clears the tracked state.
	resp = postJSON(t, ts.URL+"/api/workspaces/work/close", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp, err = http.Get(ts.URL + "/api/workspaces/work/artifacts")
	require.NoError(t, err)
	artifacts = nil
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&artifacts))
	resp.Body.Close()
	assert.Empty(t, artifacts)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "healthy", health["status"])
}

func TestLaunchUnknownWorkspace(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, fmt.Sprintf("%s/api/workspaces/%s/launch", ts.URL, "nope"), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}
