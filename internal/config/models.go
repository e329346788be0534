package config

import (
	"fmt"
	"time"
)

// ItemType identifies what kind of target an Item launches. The set is
// closed: dispatching an item with a type outside this set is a
// configuration error.
type ItemType string

const (
	ItemApplication     ItemType = "application"
	ItemFolder          ItemType = "folder"
	ItemFile            ItemType = "file"
	ItemURL             ItemType = "url"
	ItemTerminalCommand ItemType = "terminal-command"
)

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	switch t {
	case ItemApplication, ItemFolder, ItemFile, ItemURL, ItemTerminalCommand:
		return true
	}
	return false
}

// Item is a single user-declared launch target. Items are immutable inputs
// to the engine; the interpretation of Path depends on Type (desktop entry
// id, filesystem path, URL, or command text).
type Item struct {
	ID    string        `json:"id" yaml:"id"`
	Type  ItemType      `json:"type" yaml:"type"`
	Name  string        `json:"name" yaml:"name"`
	Path  string        `json:"path" yaml:"path"`
	Delay time.Duration `json:"delay" yaml:"delay"`
}

// Validate checks an item before it is handed to the engine.
func (i Item) Validate() error {
	if !i.Type.Valid() {
		return fmt.Errorf("unknown item type %q", i.Type)
	}
	if i.Path == "" {
		return fmt.Errorf("item %q has empty path", i.Name)
	}
	if i.Delay < 0 {
		return fmt.Errorf("item %q has negative delay", i.Name)
	}
	return nil
}

// Workspace is a named, ordered list of items launched together.
type Workspace struct {
	Name  string `json:"name" yaml:"name"`
	Items []Item `json:"items" yaml:"items"`
}

// ProbeTiming bounds every scripting-bridge call. A probe that exceeds its
// bound degrades to "no information" rather than stalling a phase barrier.
type ProbeTiming struct {
	WindowQueryTimeout time.Duration `json:"window_query_timeout" yaml:"window_query_timeout"`
	TitleQueryTimeout  time.Duration `json:"title_query_timeout" yaml:"title_query_timeout"`
	LivenessTimeout    time.Duration `json:"liveness_timeout" yaml:"liveness_timeout"`
}

// LaunchTiming holds the tunable settle and poll delays used around a
// launch. None of these values is load-bearing for correctness.
type LaunchTiming struct {
	// BucketSettle is the shared wait between issuing a delay bucket's
	// launch commands and re-capturing window state.
	BucketSettle time.Duration `json:"bucket_settle" yaml:"bucket_settle"`
	// AppearPoll is the liveness polling interval while waiting for a
	// freshly launched process to show up in the process table.
	AppearPoll time.Duration `json:"appear_poll" yaml:"appear_poll"`
	// AppearTimeout caps the liveness polling loop.
	AppearTimeout time.Duration `json:"appear_timeout" yaml:"appear_timeout"`
	// WindowSettle is the wait granted after a process appears (or, for an
	// already-running process, after launch) for windows to materialize.
	WindowSettle time.Duration `json:"window_settle" yaml:"window_settle"`
}

// Config is the application configuration.
type Config struct {
	ServerPort int    `json:"server_port" yaml:"server_port"`
	LogLevel   string `json:"log_level" yaml:"log_level"`

	// TerminalSpawn is the argv prefix used to open a terminal running a
	// command. The command text is appended as a single trailing argument,
	// never spliced into the template.
	TerminalSpawn []string `json:"terminal_spawn" yaml:"terminal_spawn"`

	// FileManagerProcess is the process name of the desktop file manager,
	// used to track (best effort) windows opened for file/folder items.
	FileManagerProcess string `json:"file_manager_process" yaml:"file_manager_process"`

	Probe  ProbeTiming  `json:"probe" yaml:"probe"`
	Launch LaunchTiming `json:"launch" yaml:"launch"`
}
