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
	"strings"
	"sync"

	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/logging"
	"github.com/rs/zerolog"
)

var logger = logging.NewPackageLogger("scheduler")

// NoPreferredWorker requests least-loaded placement
const NoPreferredWorker = -1

// Scheduler owns the worker pool. It places services onto workers, routes
// messages between services by logical name, sweeps completed services,
// and aggregates per-service metrics and worker status.
type Scheduler struct {
	logger  zerolog.Logger
	workers []*Worker

	mutex sync.RWMutex
	// a service is present here iff it is assigned to exactly one worker
	servicesByName map[string]*Service
	statusLog      map[string]string
}

// NewScheduler creates a scheduler owning exactly maxWorkers idle workers.
// A worker count below 1 is replaced by 1.
func NewScheduler(maxWorkers int) *Scheduler {
	if maxWorkers < 1 {
		logger.Warn().Str(logging.FUNC, "NewScheduler").
			Int("max_workers", maxWorkers).
			Msg("invalid worker count - using 1")
		maxWorkers = 1
	}
	workers := make([]*Worker, maxWorkers)
	for i := range workers {
		workers[i] = NewWorker(i)
	}
	return &Scheduler{
		logger:         logger,
		workers:        workers,
		servicesByName: map[string]*Service{},
		statusLog:      map[string]string{},
	}
}

// WorkerCount returns the fixed size of the worker pool
func (a *Scheduler) WorkerCount() int {
	return len(a.workers)
}

// Worker returns the worker at the given index, or nil if out of range
func (a *Scheduler) Worker(i int) *Worker {
	if i < 0 || i >= len(a.workers) {
		return nil
	}
	return a.workers[i]
}

// Workers returns a copy of the worker pool
func (a *Scheduler) Workers() []*Worker {
	workers := make([]*Worker, len(a.workers))
	copy(workers, a.workers)
	return workers
}

// Register places the service onto a worker and enters it into the name
// directory.
//
// If preferredWorker is a valid index the service is pinned to that worker.
// NoPreferredWorker (-1) selects the least-loaded worker, ties broken by
// lowest index. Any other value is logged and falls back to least-loaded.
//
// A duplicate logical name overwrites the prior registration: the displaced
// service is stopped and removed from its worker, with a warning log.
//
// Services registered after StartAll are guaranteed to be picked up - the
// worker re-reads its assignments every tick, and runs setup before the
// first step.
func (a *Scheduler) Register(s *Service, preferredWorker int) error {
	const FUNC = "Register"
	if s == nil {
		a.logger.Warn().Str(logging.FUNC, FUNC).Err(ErrServiceNil).Msg("")
		return ErrServiceNil
	}

	a.mutex.Lock()
	defer a.mutex.Unlock()

	if prior := a.servicesByName[s.Name()]; prior != nil {
		if prior == s {
			a.logger.Warn().Str(logging.FUNC, FUNC).
				Str(logging.SERVICE, s.Name()).
				Msg("service is already registered")
			return nil
		}
		a.logger.Warn().Str(logging.FUNC, FUNC).
			Str(logging.SERVICE, s.Name()).
			Str(logging.EVENT, logging.EventNameOverwritten).
			Msg("duplicate logical name - stopping and replacing the prior service")
		if w := a.findWorker(prior); w != nil {
			w.RemoveService(prior)
			a.updateStatusLocked(w)
		}
	}

	worker := a.placeService(preferredWorker)
	s.scheduler = a
	worker.AddService(s)
	a.servicesByName[s.Name()] = s
	a.updateStatusLocked(worker)

	a.logger.Info().Str(logging.FUNC, FUNC).
		Str(logging.SERVICE, s.Name()).
		Str(logging.WORKER, worker.Name()).
		Str(logging.EVENT, logging.EventServiceRegistered).
		Msg("")
	return nil
}

// placeService picks the target worker per the placement policy
func (a *Scheduler) placeService(preferredWorker int) *Worker {
	if preferredWorker >= 0 && preferredWorker < len(a.workers) {
		return a.workers[preferredWorker]
	}
	if preferredWorker != NoPreferredWorker {
		a.logger.Warn().Str(logging.FUNC, "Register").
			Int("preferred_worker", preferredWorker).
			Msg("preferred worker out of range - falling back to least loaded")
	}
	least := a.workers[0]
	leastCount := least.ServiceCount()
	for _, w := range a.workers[1:] {
		if count := w.ServiceCount(); count < leastCount {
			least = w
			leastCount = count
		}
	}
	return least
}

// findWorker returns the worker the service is assigned to, nil if none
func (a *Scheduler) findWorker(s *Service) *Worker {
	for _, w := range a.workers {
		if _, ok := w.Metrics(s); ok {
			return w
		}
	}
	return nil
}

// StartAll starts every worker that is not yet started.
// Workers already running are left alone - Worker.Start logs the warning.
func (a *Scheduler) StartAll() {
	for _, w := range a.workers {
		_ = w.Start()
	}
	a.logger.Info().Str(logging.FUNC, "StartAll").
		Int("workers", len(a.workers)).
		Msg("")
}

// Send routes the message to the named service's inbox.
//
// It returns false when the message is nil, the name is blank, no service
// is registered under the name, or the target's inbox is full. A dropped
// message is never delivered later. There is no retry and no backpressure.
func (a *Scheduler) Send(name string, msg Message) bool {
	const FUNC = "Send"
	if msg == nil {
		a.logger.Warn().Str(logging.FUNC, FUNC).
			Str(logging.TARGET, name).
			Msg("nil message")
		return false
	}
	if strings.TrimSpace(name) == "" {
		a.logger.Warn().Str(logging.FUNC, FUNC).Msg("blank target name")
		return false
	}

	a.mutex.RLock()
	s := a.servicesByName[name]
	a.mutex.RUnlock()

	if s == nil {
		a.logger.Warn().Str(logging.FUNC, FUNC).
			Err(&ServiceNotFoundError{Name: name}).
			Msg("")
		return false
	}
	if !s.Inbox().Offer(msg) {
		a.logger.Warn().Str(logging.FUNC, FUNC).
			Str(logging.TARGET, name).
			Str(logging.EVENT, logging.EventInboxFull).
			Str("msg_type", msg.Type()).
			Msg("inbox full - message dropped")
		return false
	}
	return true
}

// Get looks up a service by logical name, returning nil if none is registered
func (a *Scheduler) Get(name string) *Service {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return a.servicesByName[name]
}

// ServiceCount returns the number of registered services
func (a *Scheduler) ServiceCount() int {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	return len(a.servicesByName)
}

// ReapCompleted sweeps every worker, removing each service whose Complete()
// reports true. Removal runs the service's stop and cleanup and deletes it
// from the name directory. The status log is rebuilt afterwards.
// The number of reaped services is returned.
func (a *Scheduler) ReapCompleted() int {
	reaped := 0
	for _, w := range a.workers {
		for _, s := range w.Services() {
			if !s.Complete() {
				continue
			}
			w.RemoveService(s)

			a.mutex.Lock()
			if a.servicesByName[s.Name()] == s {
				delete(a.servicesByName, s.Name())
			}
			a.mutex.Unlock()

			a.logger.Info().Str(logging.FUNC, "ReapCompleted").
				Str(logging.SERVICE, s.Name()).
				Str(logging.WORKER, w.Name()).
				Str(logging.EVENT, logging.EventServiceReaped).
				Msg("")
			reaped++
		}
	}
	a.rebuildStatus()
	return reaped
}

// AllMetrics returns a metrics snapshot per registered service, keyed by
// logical name, collected across all workers.
func (a *Scheduler) AllMetrics() map[string]MetricsSnapshot {
	all := map[string]MetricsSnapshot{}
	for _, w := range a.workers {
		for name, snapshot := range w.MetricsSnapshots() {
			all[name] = snapshot
		}
	}
	return all
}

// StatusLog returns a human-readable summary per worker, keyed by worker
// name. Workers with no assigned services are omitted.
func (a *Scheduler) StatusLog() map[string]string {
	a.mutex.RLock()
	defer a.mutex.RUnlock()
	status := make(map[string]string, len(a.statusLog))
	for k, v := range a.statusLog {
		status[k] = v
	}
	return status
}

func (a *Scheduler) rebuildStatus() {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	a.statusLog = map[string]string{}
	for _, w := range a.workers {
		a.updateStatusLocked(w)
	}
}

func (a *Scheduler) updateStatusLocked(w *Worker) {
	services := w.Services()
	if len(services) == 0 {
		delete(a.statusLog, w.Name())
		return
	}
	names := make([]string, len(services))
	for i, s := range services {
		names[i] = s.Name()
	}
	a.statusLog[w.Name()] = fmt.Sprintf("%s manages %d services: [%s]",
		w.Name(), len(services), strings.Join(names, ", "))
}

// StopAll requests every started worker to stop and joins them.
// Assigned services are left in place; drive a final ReapCompleted to run
// their cleanup if needed.
func (a *Scheduler) StopAll() {
	for _, w := range a.workers {
		w.Stop()
	}
	for _, w := range a.workers {
		if w.Started() {
			if err := w.Wait(); err != nil {
				a.logger.Error().Str(logging.FUNC, "StopAll").
					Str(logging.WORKER, w.Name()).
					Err(err).
					Msg("worker loop terminated with error")
			}
		}
	}
	a.logger.Info().Str(logging.FUNC, "StopAll").Msg("all workers stopped")
}
