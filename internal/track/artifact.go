// Package track turns before/after window state into durable artifacts.
//
// An artifact records one OS-level thing a launch produced: a single
// window, or a whole application instance when windows could not be
// observed. Artifacts are append-only; closing or losing one produces no
// mutation, only omission from the next verify result.
package track

import (
	"time"

	"github.com/stagehand-dev/stagehand/internal/config"
)

// TrackingMode says whether an artifact denotes one window or an entire
// application instance.
type TrackingMode string

const (
	TrackWindow      TrackingMode = "window"
	TrackApplication TrackingMode = "application"
)

// AppWindowID is the sentinel window id marking an application-level
// artifact. Every artifact with TrackApplication mode carries it.
const AppWindowID uint32 = 0

// Artifact is the only durable output of a launch. Its ID is engine
// generated and independent of any OS identifier; SystemWindowID is the
// opaque OS window id, or AppWindowID for application-level tracking.
type Artifact struct {
	ID             string          `json:"id" yaml:"id"`
	SystemWindowID uint32          `json:"system_window_id" yaml:"system_window_id"`
	ItemID         string          `json:"item_id" yaml:"item_id"`
	ProcessName    string          `json:"process_name" yaml:"process_name"`
	WindowTitle    string          `json:"window_title,omitempty" yaml:"window_title,omitempty"`
	ItemType       config.ItemType `json:"item_type" yaml:"item_type"`
	Mode           TrackingMode    `json:"tracking_mode" yaml:"tracking_mode"`
	LaunchedAt     time.Time       `json:"launched_at" yaml:"launched_at"`
}

// BeforeState is the ephemeral pre-launch snapshot for one application
// item. It is consumed by the after-capture and never persisted.
type BeforeState struct {
	Item          config.Item
	ProcessName   string
	WasRunning    bool
	WindowsBefore map[uint32]struct{}
}
