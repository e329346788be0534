package launch

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/track"
)

// TerminalStrategy opens a terminal emulator running a command. The
// command text travels as one trailing argv element, never spliced into
// the spawn template, so it cannot inject into the template itself.
// Terminal items produce no trackable artifact.
type TerminalStrategy struct {
	spawn []string
}

// NewTerminalStrategy builds the strategy over the configured spawn
// template (e.g. ["x-terminal-emulator", "-e"]).
func NewTerminalStrategy(spawn []string) *TerminalStrategy {
	return &TerminalStrategy{spawn: spawn}
}

// Argv renders the full command line for a given command text.
func (s *TerminalStrategy) Argv(command string) ([]string, error) {
	if len(s.spawn) == 0 {
		return nil, fmt.Errorf("no terminal spawn template configured")
	}
	argv := make([]string, 0, len(s.spawn)+1)
	argv = append(argv, s.spawn...)
	argv = append(argv, command)
	return argv, nil
}

// Launch spawns the terminal.
func (s *TerminalStrategy) Launch(ctx context.Context, item config.Item) ([]track.Artifact, error) {
	argv, err := s.Argv(item.Path)
	if err != nil {
		return nil, err
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("terminal emulator %q not available: %w", argv[0], err)
	}
	return nil, startDetached(ctx, argv...)
}

// Close is a no-op.
func (s *TerminalStrategy) Close(ctx context.Context, artifacts []track.Artifact) error {
	return nil
}
