package launch

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/track"
)

// URLStrategy opens URLs with the default browser. URLs produce no
// trackable artifact and are permanently non-closable: a browser tab is
// not ours to find again.
type URLStrategy struct {
	xdgOpenPath string
}

// NewURLStrategy resolves xdg-open once.
func NewURLStrategy() *URLStrategy {
	s := &URLStrategy{}
	if path, err := exec.LookPath("xdg-open"); err == nil {
		s.xdgOpenPath = path
	}
	return s
}

// Launch hands the URL to the default browser.
func (s *URLStrategy) Launch(ctx context.Context, item config.Item) ([]track.Artifact, error) {
	if s.xdgOpenPath == "" {
		return nil, fmt.Errorf("xdg-open not available for %q", item.Path)
	}
	return nil, startDetached(ctx, s.xdgOpenPath, item.Path)
}

// Close is a no-op.
func (s *URLStrategy) Close(ctx context.Context, artifacts []track.Artifact) error {
	return nil
}
