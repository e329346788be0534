// Package engine orchestrates launching a workspace's items and tearing
// down what launching produced.
//
// Application items run through a three-phase protocol per delay bucket:
// every item's before-state is captured in parallel, every launch command
// is issued in parallel, and after one shared settle wait every
// after-state is captured in parallel. Probe latency is paid once per
// bucket, not once per item. Buckets execute strictly in ascending delay
// order; non-application items run as an independent parallel group.
package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stagehand-dev/stagehand/internal/config"
	"github.com/stagehand-dev/stagehand/internal/launch"
	"github.com/stagehand-dev/stagehand/internal/logger"
	"github.com/stagehand-dev/stagehand/internal/progress"
	"github.com/stagehand-dev/stagehand/internal/track"
)

// Report is the batch-level outcome: always a best-effort partial success
// summary, never an all-or-nothing transaction.
type Report struct {
	Artifacts []track.Artifact
	Succeeded int
	Total     int
	// FirstErr is the first per-item failure, surfaced as a
	// representative sample.
	FirstErr error
}

// Scheduler partitions, delays, and dispatches a workspace's items.
type Scheduler struct {
	registry     *launch.Registry
	bucketSettle time.Duration
	log          *zerolog.Logger
}

// NewScheduler builds a scheduler over a strategy registry.
func NewScheduler(registry *launch.Registry, timing config.LaunchTiming) *Scheduler {
	return &Scheduler{
		registry:     registry,
		bucketSettle: timing.BucketSettle,
		log:          logger.WithComponent("scheduler"),
	}
}

// Launch runs the whole batch to completion. Individual failures are
// recorded, reported through the sink, and never abort the batch.
func (s *Scheduler) Launch(ctx context.Context, items []config.Item, workspace string, sink progress.Sink) *Report {
	if sink == nil {
		sink = progress.Discard{}
	}

	var apps, others []config.Item
	for _, item := range items {
		if item.Type == config.ItemApplication {
			apps = append(apps, item)
		} else {
			others = append(others, item)
		}
	}

	s.log.Info().
		Str("workspace", workspace).
		Int("applications", len(apps)).
		Int("others", len(others)).
		Msg("launching workspace")

	agg := newAggregator(len(items), sink)

	// Non-application items need no window tracking and no barriers; they
	// run concurrently with the application buckets, each honoring its
	// own delay.
	var othersWG sync.WaitGroup
	for _, item := range others {
		othersWG.Add(1)
		go func(item config.Item) {
			defer othersWG.Done()
			sleep(ctx, item.Delay)
			strategy, err := s.registry.ForType(item.Type)
			if err != nil {
				agg.record(nil, err)
				return
			}
			artifacts, err := strategy.Launch(ctx, item)
			agg.record(artifacts, err)
		}(item)
	}

	s.launchApplications(ctx, apps, agg)
	othersWG.Wait()

	report := agg.report()
	sink.Finish(report.Succeeded, report.Total, report.FirstErr)

	s.log.Info().
		Str("workspace", workspace).
		Int("succeeded", report.Succeeded).
		Int("total", report.Total).
		Int("artifacts", len(report.Artifacts)).
		Msg("workspace launch complete")
	return report
}

// launchApplications processes the delay buckets in ascending order.
// Each bucket's delay is measured from the moment the previous bucket
// finished, not from workspace start.
func (s *Scheduler) launchApplications(ctx context.Context, apps []config.Item, agg *aggregator) {
	if len(apps) == 0 {
		return
	}

	buckets := make(map[time.Duration][]config.Item)
	for _, item := range apps {
		buckets[item.Delay] = append(buckets[item.Delay], item)
	}

	delays := make([]time.Duration, 0, len(buckets))
	for delay := range buckets {
		delays = append(delays, delay)
	}
	sort.Slice(delays, func(i, j int) bool { return delays[i] < delays[j] })

	for _, delay := range delays {
		if delay > 0 {
			s.log.Debug().Dur("delay", delay).Msg("suspending before delay bucket")
			sleep(ctx, delay)
		}
		s.launchBucket(ctx, buckets[delay], agg)
	}
}

// launchBucket runs the three-phase protocol across one bucket. The phase
// barriers are the only ordering inside a bucket.
func (s *Scheduler) launchBucket(ctx context.Context, items []config.Item, agg *aggregator) {
	app := s.registry.App()
	n := len(items)

	// Phase A: capture before-state for every item concurrently.
	befores := make([]track.BeforeState, n)
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, item config.Item) {
			defer wg.Done()
			befores[i] = app.CaptureBefore(ctx, item)
		}(i, item)
	}
	wg.Wait()

	// Phase B: issue every launch command concurrently, decoupled from
	// window detection so a slow-to-materialize application does not
	// serialize the fast ones.
	launchErrs := make([]error, n)
	for i, item := range items {
		wg.Add(1)
		go func(i int, item config.Item) {
			defer wg.Done()
			launchErrs[i] = app.IssueLaunch(ctx, item)
		}(i, item)
	}
	wg.Wait()

	// Phase C: one shared settle wait, then capture after-state for every
	// successfully launched item concurrently.
	sleep(ctx, s.bucketSettle)
	for i := range items {
		if launchErrs[i] != nil {
			agg.record(nil, launchErrs[i])
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			artifacts := app.CaptureAfter(ctx, befores[i])
			agg.record(artifacts, nil)
		}(i)
	}
	wg.Wait()
}

// aggregator is the only shared mutable state of a batch: monotonic
// counts and an append-only artifact list.
type aggregator struct {
	mu        sync.Mutex
	artifacts []track.Artifact
	succeeded int
	done      int
	total     int
	firstErr  error
	sink      progress.Sink
}

func newAggregator(total int, sink progress.Sink) *aggregator {
	return &aggregator{total: total, sink: sink}
}

func (a *aggregator) record(artifacts []track.Artifact, err error) {
	a.mu.Lock()
	a.done++
	if err != nil {
		if a.firstErr == nil {
			a.firstErr = err
		}
	} else {
		a.succeeded++
		a.artifacts = append(a.artifacts, artifacts...)
	}
	succeeded, total := a.succeeded, a.total
	a.mu.Unlock()

	a.sink.Update(succeeded, total)
}

func (a *aggregator) report() *Report {
	a.mu.Lock()
	defer a.mu.Unlock()
	return &Report{
		Artifacts: a.artifacts,
		Succeeded: a.succeeded,
		Total:     a.total,
		FirstErr:  a.firstErr,
	}
}

// sleep suspends for d or until the context is done.
func sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
