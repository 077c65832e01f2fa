// Package autosave periodically writes a dirty task store to disk.
package autosave

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/josephgoksu/tasksync/store"
)

// DefaultInterval is the tick period used when none is configured.
const DefaultInterval = 5 * time.Second

// Saver is the part of task.Service the scheduler drives.
type Saver interface {
	Dirty() bool
	TrySave(ctx context.Context) (store.SaveResult, bool)
	SaveNow(ctx context.Context) store.SaveResult
}

// Stats counts what the scheduler did since it was created.
type Stats struct {
	Ticks    uint64
	Saves    uint64
	Skipped  uint64
	Failures uint64
}

// TickResult describes a single tick.
type TickResult int

const (
	TickClean   TickResult = iota // nothing to save
	TickSaved                     // save succeeded
	TickFailed                    // save attempted and failed
	TickSkipped                   // another save was in flight
)

// Scheduler fires every interval and saves the store if it is dirty. A tick
// that finds a save already in flight is skipped rather than queued; a failed
// save is not retried until the next dirty tick.
type Scheduler struct {
	saver    Saver
	interval time.Duration
	logger   *slog.Logger

	// newTicker is swapped in tests.
	newTicker func(time.Duration) (<-chan time.Time, func())

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool

	ticks, saves, skipped, failures atomic.Uint64
}

// New creates a scheduler. A non-positive interval means DefaultInterval.
func New(saver Saver, interval time.Duration, logger *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		saver:    saver,
		interval: interval,
		logger:   logger,
		newTicker: func(d time.Duration) (<-chan time.Time, func()) {
			t := time.NewTicker(d)
			return t.C, t.Stop
		},
	}
}

// Interval returns the tick period.
func (s *Scheduler) Interval() time.Duration { return s.interval }

// Start launches the tick loop. It is a no-op if the loop is already running.
// The loop ends when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	tickC, stopTicker := s.newTicker(s.interval)
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer stopTicker()
		s.loop(ctx, tickC)
	}()
	s.logger.Debug("autosave started", "interval", s.interval)
}

func (s *Scheduler) loop(ctx context.Context, tickC <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-tickC:
			if !ok {
				return
			}
			// Saves are not cancellable mid-write, so a tick that started
			// finishes even if Stop arrives meanwhile.
			s.Tick(context.WithoutCancel(ctx))
		}
	}
}

// Tick runs one scheduler step.
func (s *Scheduler) Tick(ctx context.Context) TickResult {
	s.ticks.Add(1)
	if !s.saver.Dirty() {
		return TickClean
	}

	res, ran := s.saver.TrySave(ctx)
	if !ran {
		s.skipped.Add(1)
		s.logger.Debug("autosave tick skipped, save in flight")
		return TickSkipped
	}
	if !res.OK() {
		s.failures.Add(1)
		s.logger.Warn("autosave failed", "error", res.Err)
		return TickFailed
	}
	s.saves.Add(1)
	s.logger.Debug("autosaved", "count", res.Count, "path", res.Path)
	return TickSaved
}

// Stop ends the loop and waits for a tick in progress to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	s.logger.Debug("autosave stopped")
}

// Shutdown stops the loop and then saves once more if the store is dirty.
// The returned error is the final save's error, if any.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	s.Stop()
	if !s.saver.Dirty() {
		return nil
	}
	res := s.saver.SaveNow(ctx)
	if !res.OK() {
		s.failures.Add(1)
		return res.Err
	}
	s.saves.Add(1)
	return nil
}

// Running reports whether the loop is active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stats returns a snapshot of the counters.
func (s *Scheduler) Stats() Stats {
	return Stats{
		Ticks:    s.ticks.Load(),
		Saves:    s.saves.Load(),
		Skipped:  s.skipped.Load(),
		Failures: s.failures.Load(),
	}
}
