// Copyright (c) 2025 Sebastian Cikes
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package scheduler

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/commons"
	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/logging"
	"github.com/rs/zerolog"
	"gopkg.in/tomb.v2"
)

const (
	// DefaultTickPeriodMillis is the worker's default polling quantum
	DefaultTickPeriodMillis = 50

	// DefaultErrorThreshold is the consecutive-error count at which a service is auto-stopped
	DefaultErrorThreshold = 3
)

// Worker drives a subset of services on a fixed tick.
//
// On each tick the worker visits a snapshot of its assigned services and
// runs one work step for every service whose period has elapsed. A service
// with period P on a worker with tick T is stepped no more often than once
// per P ms and no less often than once per P+T ms - the effective minimum
// period is max(P, T).
//
// The worker loop runs under the embedded tomb: Stop requests exit after
// the current tick, Wait joins the loop.
type Worker struct {
	tomb.Tomb

	id     int
	logger zerolog.Logger

	tickPeriodMillis atomic.Int64
	errorThreshold   atomic.Uint32
	started          atomic.Bool

	mutex    sync.RWMutex
	services []*Service
	entries  map[*Service]*serviceEntry
}

// serviceEntry is the worker-private bookkeeping for one assigned service.
// Fields are mutated only by the worker goroutine.
type serviceEntry struct {
	// monotonic nanos of the last initiated work step, 0 = never run
	lastStepNanos int64
	setupDone     bool
	metrics       *ServiceMetrics
}

// NewWorker creates an idle worker
func NewWorker(id int) *Worker {
	a := &Worker{
		id:      id,
		logger:  logging.NewWorkerLogger("scheduler", workerName(id)),
		entries: map[*Service]*serviceEntry{},
	}
	a.tickPeriodMillis.Store(DefaultTickPeriodMillis)
	a.errorThreshold.Store(DefaultErrorThreshold)
	return a
}

func workerName(id int) string {
	return fmt.Sprintf("worker-%d", id)
}

// ID returns the worker's index within the pool
func (a *Worker) ID() int {
	return a.id
}

// Name returns the worker's display name, e.g. "worker-3"
func (a *Worker) Name() string {
	return workerName(a.id)
}

// TickPeriod returns the worker's polling quantum
func (a *Worker) TickPeriod() time.Duration {
	return time.Duration(a.tickPeriodMillis.Load()) * time.Millisecond
}

// SetTickPeriodMillis sets the polling quantum. Non-positive values are rejected.
func (a *Worker) SetTickPeriodMillis(millis int64) {
	if millis <= 0 {
		a.logger.Warn().Str(logging.FUNC, "SetTickPeriodMillis").
			Int64("tick_ms", millis).
			Msg("invalid tick period - ignored")
		return
	}
	a.tickPeriodMillis.Store(millis)
}

// ErrorThreshold returns the consecutive-error count at which a service is auto-stopped
func (a *Worker) ErrorThreshold() uint32 {
	return a.errorThreshold.Load()
}

// SetErrorThreshold sets the auto-quarantine threshold. Zero is rejected.
func (a *Worker) SetErrorThreshold(threshold uint32) {
	if threshold == 0 {
		a.logger.Warn().Str(logging.FUNC, "SetErrorThreshold").
			Msg("invalid error threshold - ignored")
		return
	}
	a.errorThreshold.Store(threshold)
}

// Started returns true once the worker loop has been started
func (a *Worker) Started() bool {
	return a.started.Load()
}

// Start launches the worker loop.
// Returns an IllegalStateError if the worker was already started.
func (a *Worker) Start() error {
	if !a.started.CompareAndSwap(false, true) {
		err := &IllegalStateError{Message: "worker is already started"}
		a.logger.Warn().Str(logging.FUNC, "Start").Err(err).Msg("")
		return err
	}
	a.Go(a.run)
	a.logger.Info().Str(logging.EVENT, logging.EventWorkerStarted).Msg("")
	return nil
}

// Stop requests the worker loop to exit after the current tick.
// In-flight work steps are not interrupted. Join with Wait.
// Stopping a worker that was never started is a no-op.
func (a *Worker) Stop() {
	if a.started.Load() {
		a.Kill(nil)
	}
}

// AddService assigns the service to this worker. The service is picked up
// on the next tick; its setup runs before its first step.
func (a *Worker) AddService(s *Service) {
	if s == nil {
		a.logger.Warn().Str(logging.FUNC, "AddService").Err(ErrServiceNil).Msg("")
		return
	}
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if _, ok := a.entries[s]; ok {
		a.logger.Warn().Str(logging.FUNC, "AddService").
			Str(logging.SERVICE, s.Name()).
			Msg("service is already assigned")
		return
	}
	a.services = append(a.services, s)
	a.entries[s] = &serviceEntry{metrics: newServiceMetrics(s.Name(), a.Name())}
	assignedServiceCounts.WithLabelValues(a.Name()).Set(float64(len(a.services)))
	a.logger.Debug().Str(logging.FUNC, "AddService").
		Str(logging.SERVICE, s.Name()).
		Msg("")
}

// RemoveService stops the service, runs its cleanup, and drops it from the
// assigned set. Cleanup failures are logged; removal still completes.
// Removing a service that is not assigned is a no-op.
func (a *Worker) RemoveService(s *Service) {
	if s == nil {
		a.logger.Warn().Str(logging.FUNC, "RemoveService").Err(ErrServiceNil).Msg("")
		return
	}
	a.mutex.Lock()
	if _, ok := a.entries[s]; !ok {
		a.mutex.Unlock()
		a.logger.Warn().Str(logging.FUNC, "RemoveService").
			Str(logging.SERVICE, s.Name()).
			Msg("service is not assigned - nothing to remove")
		return
	}
	delete(a.entries, s)
	for i := range a.services {
		if a.services[i] == s {
			a.services = append(a.services[:i], a.services[i+1:]...)
			break
		}
	}
	assignedServiceCounts.WithLabelValues(a.Name()).Set(float64(len(a.services)))
	a.mutex.Unlock()

	s.Stop()
	if err := s.runCleanup(); err != nil {
		a.logger.Error().Str(logging.FUNC, "RemoveService").
			Str(logging.SERVICE, s.Name()).
			Str(logging.EVENT, logging.EventCleanupFailed).
			Err(err).
			Msg("service cleanup failed")
	}
	a.logger.Debug().Str(logging.FUNC, "RemoveService").
		Str(logging.SERVICE, s.Name()).
		Msg("")
}

// Services returns a stable copy of the assigned services
func (a *Worker) Services() []*Service {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	services := make([]*Service, len(a.services))
	copy(services, a.services)
	return services
}

// ServiceCount returns the number of assigned services
func (a *Worker) ServiceCount() int {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return len(a.services)
}

// Metrics returns a snapshot of the service's metrics record.
// ok is false if the service is not assigned to this worker.
func (a *Worker) Metrics(s *Service) (snapshot MetricsSnapshot, ok bool) {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	entry := a.entries[s]
	if entry == nil {
		return MetricsSnapshot{}, false
	}
	return entry.metrics.Snapshot(), true
}

// MetricsSnapshots returns metric snapshots for all assigned services, keyed by service name
func (a *Worker) MetricsSnapshots() map[string]MetricsSnapshot {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	snapshots := make(map[string]MetricsSnapshot, len(a.services))
	for s, entry := range a.entries {
		snapshots[s.Name()] = entry.metrics.Snapshot()
	}
	return snapshots
}

func (a *Worker) entry(s *Service) *serviceEntry {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return a.entries[s]
}

// run is the worker loop. No error escapes it: user callback failures are
// recorded in metrics, and a failure of the loop's own scaffolding
// terminates only this worker, after attempting cleanup on its services.
func (a *Worker) run() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &PanicError{Panic: p, Message: "Worker.run()"}
			a.logger.Error().Err(err).Msg("worker loop failed - cleaning up assigned services")
			a.cleanupAll()
		}
		a.logger.Info().Str(logging.EVENT, logging.EventWorkerStopped).Msg("")
	}()

	a.setupServices()

	for {
		select {
		case <-a.Dying():
			return nil
		case <-time.After(a.TickPeriod()):
			a.tick()
		}
	}
}

// setupServices runs setup for every assigned service that is still running
func (a *Worker) setupServices() {
	for _, s := range a.Services() {
		if entry := a.entry(s); entry != nil {
			a.setupService(s, entry)
		}
	}
}

// setupService runs the service's setup at most once. A service stopped
// before setup is skipped. If setup fails the service is stopped and left
// in place for the scheduler's sweep to reap - no steps are attempted.
func (a *Worker) setupService(s *Service, entry *serviceEntry) {
	if entry.setupDone {
		return
	}
	entry.setupDone = true
	if !s.Running() {
		return
	}
	if err := s.runSetup(&Context{s}); err != nil {
		a.logger.Error().Str(logging.SERVICE, s.Name()).
			Str(logging.EVENT, logging.EventSetupFailed).
			Err(err).
			Msg("service setup failed - stopping service")
		s.Stop()
	}
}

// tick visits a snapshot of the assigned services and steps those that are
// due. now is read once so all due-checks in the same tick share the same
// instant.
func (a *Worker) tick() {
	now := commons.MonotonicNanos()
	for _, s := range a.Services() {
		entry := a.entry(s)
		if entry == nil {
			// removed since the snapshot
			continue
		}
		if !entry.setupDone {
			a.setupService(s, entry)
		}
		if !s.Running() {
			continue
		}

		dueNanos := s.PeriodMillis() * int64(time.Millisecond)
		if entry.lastStepNanos != 0 && now-entry.lastStepNanos < dueNanos {
			continue
		}
		// stamp before invoking so a failed step still advances the schedule
		entry.lastStepNanos = now

		start := commons.MonotonicNanos()
		stepErr := s.runStep(&Context{s})
		elapsed := commons.MonotonicNanos() - start

		if stepErr == nil {
			entry.metrics.RecordStep(elapsed)
			continue
		}

		entry.metrics.RecordError()
		a.logger.Error().Str(logging.SERVICE, s.Name()).
			Str(logging.EVENT, logging.EventStepFailed).
			Uint32("consecutive_errors", entry.metrics.ConsecutiveErrors()).
			Err(stepErr).
			Msg("work step failed")

		if entry.metrics.ConsecutiveErrors() >= a.ErrorThreshold() {
			s.Stop()
			a.logger.Warn().Str(logging.SERVICE, s.Name()).
				Str(logging.EVENT, logging.EventQuarantined).
				Uint32("consecutive_errors", entry.metrics.ConsecutiveErrors()).
				Msg("service auto-stopped after consecutive failures")
		}
	}
}

// cleanupAll stops and cleans up every assigned service. Used only when the
// worker loop itself fails.
func (a *Worker) cleanupAll() {
	for _, s := range a.Services() {
		s.Stop()
		if err := s.runCleanup(); err != nil {
			a.logger.Error().Str(logging.SERVICE, s.Name()).
				Str(logging.EVENT, logging.EventCleanupFailed).
				Err(err).
				Msg("")
		}
	}
}
