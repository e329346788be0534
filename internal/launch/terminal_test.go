package launch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminalArgvAppendsCommandAsSingleArgument(t *testing.T) {
	s := NewTerminalStrategy([]string{"x-terminal-emulator", "-e"})

	argv, err := s.Argv("tail -f /var/log/syslog; echo done")
	require.NoError(t, err)

	// The command text stays one element, whatever shell metacharacters it
	// carries.
	assert.Equal(t, []string{"x-terminal-emulator", "-e", "tail -f /var/log/syslog; echo done"}, argv)
}

func TestTerminalArgvRequiresSpawnTemplate(t *testing.T) {
	s := NewTerminalStrategy(nil)

	_, err := s.Argv("ls")
	assert.Error(t, err)
}

func TestTerminalArgvGnomeStyleTemplate(t *testing.T) {
	s := NewTerminalStrategy([]string{"gnome-terminal", "--", "bash", "-c"})

	argv, err := s.Argv("htop")
	require.NoError(t, err)
	assert.Equal(t, []string{"gnome-terminal", "--", "bash", "-c", "htop"}, argv)
}
