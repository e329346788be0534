package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerCreatesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	mgr, err := NewManager(path)
	require.NoError(t, err)

	cfg := mgr.Get()
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.NotEmpty(t, cfg.TerminalSpawn)
	assert.Equal(t, 2*time.Second, cfg.Probe.WindowQueryTimeout)

	// The file was written out.
	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestManagerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	mgr, err := NewManager(path)
	require.NoError(t, err)
	require.NoError(t, mgr.SetPort(9090))
	require.NoError(t, mgr.SetLogLevel("debug"))

	reloaded, err := NewManager(path)
	require.NoError(t, err)
	cfg := reloaded.Get()
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestSparseConfigFallsBackToDefaultTimings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server_port: 9001\n"), 0644))

	mgr, err := NewManager(path)
	require.NoError(t, err)

	cfg := mgr.Get()
	def := Defaults()
	assert.Equal(t, 9001, cfg.ServerPort)
	assert.Equal(t, def.Probe.WindowQueryTimeout, cfg.Probe.WindowQueryTimeout)
	assert.Equal(t, def.Launch.BucketSettle, cfg.Launch.BucketSettle)
	assert.Equal(t, def.TerminalSpawn, cfg.TerminalSpawn)
	assert.Equal(t, def.FileManagerProcess, cfg.FileManagerProcess)
}

func TestItemValidate(t *testing.T) {
	tests := []struct {
		name    string
		item    Item
		wantErr bool
	}{
		{
			name: "valid application",
			item: Item{Type: ItemApplication, Name: "Firefox", Path: "firefox.desktop"},
		},
		{
			name:    "unknown type",
			item:    Item{Type: ItemType("gadget"), Path: "x"},
			wantErr: true,
		},
		{
			name:    "empty path",
			item:    Item{Type: ItemURL, Name: "page"},
			wantErr: true,
		},
		{
			name:    "negative delay",
			item:    Item{Type: ItemApplication, Path: "x.desktop", Delay: -time.Second},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
