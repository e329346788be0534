// Package progress defines the reporting sink the engine feeds while a
// batch runs. The engine only ever needs the two operations here; concrete
// surfaces (log output, websocket broadcast) live with their transports.
package progress

import (
	"github.com/rs/zerolog"
	"github.com/stagehand-dev/stagehand/internal/logger"
)

// Sink receives transient per-item updates and one terminal summary.
type Sink interface {
	// Update is called once per completed item with the running counts.
	Update(succeeded, total int)

	// Finish is called exactly once per batch. err is the first failure's
	// message as a representative sample, nil when everything succeeded.
	Finish(succeeded, total int, err error)
}

// LogSink reports progress through the structured log.
type LogSink struct {
	workspace string
	log       *zerolog.Logger
}

// NewLogSink creates a log-backed sink labeled with the workspace name.
func NewLogSink(workspace string) *LogSink {
	return &LogSink{
		workspace: workspace,
		log:       logger.WithComponent("progress"),
	}
}

func (s *LogSink) Update(succeeded, total int) {
	s.log.Info().
		Str("workspace", s.workspace).
		Int("succeeded", succeeded).
		Int("total", total).
		Msg("launch progress")
}

func (s *LogSink) Finish(succeeded, total int, err error) {
	event := s.log.Info()
	if err != nil {
		event = s.log.Warn().Err(err)
	}
	event.
		Str("workspace", s.workspace).
		Int("succeeded", succeeded).
		Int("total", total).
		Msg("launch finished")
}

// Multi fans updates out to several sinks.
type Multi []Sink

func (m Multi) Update(succeeded, total int) {
	for _, sink := range m {
		sink.Update(succeeded, total)
	}
}

func (m Multi) Finish(succeeded, total int, err error) {
	for _, sink := range m {
		sink.Finish(succeeded, total, err)
	}
}

// Discard is a no-op sink.
type Discard struct{}

func (Discard) Update(succeeded, total int)           {}
func (Discard) Finish(succeeded, total int, err error) {}
