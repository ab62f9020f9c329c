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

package scheduler_test

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/scheduler"
)

// service metrics are exercised through a worker - the worker owns the record
func TestServiceMetrics_ThroughWorker(t *testing.T) {
	w := scheduler.NewWorker(0)
	w.SetTickPeriodMillis(2)
	// keep auto-quarantine out of the way - this test injects failures
	w.SetErrorThreshold(1000)

	var fail atomic.Bool
	svc := scheduler.NewService(scheduler.Settings{
		Descriptor:   scheduler.NewDescriptor("measured", "1.0.0"),
		PeriodMillis: 1,
		Step: func(ctx *scheduler.Context) error {
			if fail.Load() {
				return errors.New("step failure")
			}
			return nil
		},
	})
	w.AddService(svc)

	snapshot, ok := w.Metrics(svc)
	if !ok {
		t.Fatal("metrics record should exist for an assigned service")
	}
	if snapshot.MinStepNanos != 0 {
		t.Errorf("min should be reported as 0 before the first sample, but was %d", snapshot.MinStepNanos)
	}
	if snapshot.MeanStepNanos() != 0 {
		t.Error("mean should be 0 before the first sample")
	}

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer func() {
		w.Stop()
		w.Wait()
	}()

	if !eventually(timeout, func() bool {
		snapshot, _ := w.Metrics(svc)
		return snapshot.StepCount >= 3
	}) {
		t.Fatal("worker should have recorded successful steps")
	}

	snapshot, _ = w.Metrics(svc)
	if snapshot.MinStepNanos <= 0 {
		t.Error("min should be set after the first sample")
	}
	if snapshot.MaxStepNanos < snapshot.MinStepNanos {
		t.Error("max should be >= min")
	}
	if snapshot.TotalStepNanos < snapshot.MaxStepNanos {
		t.Error("total should be >= max")
	}
	if snapshot.ConsecutiveErrors != 0 {
		t.Errorf("consecutive errors should be 0 after successful steps, but was %d", snapshot.ConsecutiveErrors)
	}

	// one failure, then a success resets the consecutive count
	fail.Store(true)
	if !eventually(timeout, func() bool {
		snapshot, _ := w.Metrics(svc)
		return snapshot.ErrorCount >= 1
	}) {
		t.Fatal("worker should have recorded the step failure")
	}
	fail.Store(false)
	if !eventually(timeout, func() bool {
		snapshot, _ := w.Metrics(svc)
		return snapshot.ConsecutiveErrors == 0 && snapshot.ErrorCount >= 1
	}) {
		t.Error("a successful step should reset consecutive errors to 0")
	}
}
