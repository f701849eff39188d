package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/flowsync/internal/core/domain"
	"github.com/custodia-labs/flowsync/internal/core/ports/driven"
	"github.com/custodia-labs/flowsync/internal/core/ports/driving"
	"github.com/custodia-labs/flowsync/internal/logger"
)

// Ensure Scheduler implements the interface.
var _ driving.Scheduler = (*Scheduler)(nil)

// Scheduler feeds the sync engine from two independent trigger sources per
// binding: debounced local file events and a fixed-interval remote poll.
// Overlapping triggers are dropped by the engine's per-binding gate.
type Scheduler struct {
	config  domain.SchedulerConfig
	engine  driving.SyncEngine
	watcher driven.Watcher

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewScheduler creates a scheduler with configuration.
// The watcher is optional; without it only the poll trigger runs.
func NewScheduler(config domain.SchedulerConfig, engine driving.SyncEngine, watcher driven.Watcher) *Scheduler {
	return &Scheduler{
		config:  config,
		engine:  engine,
		watcher: watcher,
	}
}

// Start runs an initial pass per binding, then the trigger loops.
// It blocks until ctx is cancelled or Stop is called. In-flight passes are
// allowed to finish; they are bounded by the HTTP request timeout.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil // Already running
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	defer func() {
		cancel()
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
		close(done)
	}()

	g, gctx := errgroup.WithContext(runCtx)
	for _, b := range s.engine.Bindings() {
		name, path := b.Name, b.LocalPath

		s.runPass(gctx, name, domain.TriggerManual)

		if s.config.Watch && s.watcher != nil {
			g.Go(func() error {
				return s.watchLoop(gctx, name, path)
			})
		}
		if s.config.Poll && s.config.PollInterval > 0 {
			g.Go(func() error {
				return s.pollLoop(gctx, name)
			})
		}
	}

	err := g.Wait()
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.Canceled) {
		return nil // Stopped
	}
	return err
}

// Stop gracefully shuts down the scheduler and waits for it to return.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	cancel, done := s.cancel, s.done
	s.mu.Unlock()

	cancel()
	<-done
	return nil
}

// pollLoop re-runs the pass on a fixed interval.
func (s *Scheduler) pollLoop(ctx context.Context, name string) error {
	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runPass(ctx, name, domain.TriggerPoll)
		}
	}
}

// watchLoop re-runs the pass once local events have been quiet for the
// debounce period, so partial editor writes are not acted on.
func (s *Scheduler) watchLoop(ctx context.Context, name, path string) error {
	events, err := s.watcher.Watch(ctx, path)
	if err != nil {
		logger.Warn("%s: file watch unavailable, relying on polling: %v", name, err)
		return nil
	}

	debounce := time.NewTimer(time.Hour)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-events:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logger.Warn("%s: file watch stopped, relying on polling", name)
				return nil
			}
			logger.Debug("%s: local change detected", name)
			debounce.Reset(s.config.Debounce)
		case <-debounce.C:
			s.runPass(ctx, name, domain.TriggerWatch)
		}
	}
}

// runPass runs a pass detached from ctx cancellation so shutdown does not
// abort a write halfway. Pass failures never stop the loops.
func (s *Scheduler) runPass(ctx context.Context, name string, trigger domain.Trigger) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.engine.RunPass(context.WithoutCancel(ctx), name, trigger); err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			return
		}
		logger.Error("%s: %s pass: %v", name, trigger, err)
	}
}
