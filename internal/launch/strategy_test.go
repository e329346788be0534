package launch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/track"
)

type nopStrategy struct{ name string }

func (n *nopStrategy) Launch(ctx context.Context, item config.Item) ([]track.Artifact, error) {
	return nil, nil
}
func (n *nopStrategy) Close(ctx context.Context, artifacts []track.Artifact) error {
	return nil
}

type nopApp struct{ nopStrategy }

func (n *nopApp) CaptureBefore(ctx context.Context, item config.Item) track.BeforeState {
	return track.BeforeState{Item: item}
}
func (n *nopApp) IssueLaunch(ctx context.Context, item config.Item) error { return nil }
func (n *nopApp) CaptureAfter(ctx context.Context, before track.BeforeState) []track.Artifact {
	return nil
}

func TestRegistryForType(t *testing.T) {
	app := &nopApp{}
	fileFolder := &nopStrategy{name: "file"}
	url := &nopStrategy{name: "url"}
	terminal := &nopStrategy{name: "terminal"}
	registry := NewRegistryWith(app, fileFolder, url, terminal)

	tests := []struct {
		itemType config.ItemType
		want     Strategy
	}{
		{config.ItemApplication, app},
		{config.ItemFile, fileFolder},
		{config.ItemFolder, fileFolder},
		{config.ItemURL, url},
		{config.ItemTerminalCommand, terminal},
	}
	for _, tt := range tests {
		t.Run(string(tt.itemType), func(t *testing.T) {
			got, err := registry.ForType(tt.itemType)
			require.NoError(t, err)
			assert.Same(t, tt.want, got)
		})
	}
}

func TestRegistryForUnknownType(t *testing.T) {
	registry := NewRegistryWith(&nopApp{}, &nopStrategy{}, &nopStrategy{}, &nopStrategy{})

	_, err := registry.ForType(config.ItemType("widget"))
	assert.Error(t, err)
}
