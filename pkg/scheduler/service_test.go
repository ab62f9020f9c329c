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
	"testing"
	"time"

	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/scheduler"
)

// timeout bounds every asynchronous wait in these tests
const timeout = 2 * time.Second

// eventually polls cond until it reports true or the timeout elapses
func eventually(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return cond()
}

func TestNewService_Defaults(t *testing.T) {
	svc := scheduler.NewService(scheduler.Settings{
		Descriptor: scheduler.NewDescriptor("defaults", "1.0.0"),
	})

	if !svc.Running() {
		t.Error("a new service should be running")
	}
	if svc.PeriodMillis() != scheduler.DefaultPeriodMillis {
		t.Errorf("period should default to %d, but was %d", scheduler.DefaultPeriodMillis, svc.PeriodMillis())
	}
	if svc.Inbox().Capacity() != scheduler.DefaultInboxCapacity {
		t.Errorf("inbox capacity should default to %d, but was %d", scheduler.DefaultInboxCapacity, svc.Inbox().Capacity())
	}
	if svc.Complete() {
		t.Error("a running service should not be complete by default")
	}
}

func TestNewService_InvalidPeriodReplacedByDefault(t *testing.T) {
	svc := scheduler.NewService(scheduler.Settings{
		Descriptor:   scheduler.NewDescriptor("bad-period", "1.0.0"),
		PeriodMillis: -20,
	})
	if svc.PeriodMillis() != scheduler.DefaultPeriodMillis {
		t.Errorf("invalid period should be replaced by %d, but was %d", scheduler.DefaultPeriodMillis, svc.PeriodMillis())
	}
}

func TestNewService_MissingDescriptorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewService without a Descriptor should panic")
		}
	}()
	scheduler.NewService(scheduler.Settings{})
}

func TestService_StopIsMonotonic(t *testing.T) {
	svc := scheduler.NewService(scheduler.Settings{
		Descriptor: scheduler.NewDescriptor("stopper", "1.0.0"),
	})
	svc.Stop()
	if svc.Running() {
		t.Error("service should not be running after Stop")
	}
	if !svc.Complete() {
		t.Error("a stopped service should be complete by default")
	}
	// stopping twice causes no issues
	svc.Stop()
	if svc.Running() {
		t.Error("service should stay stopped")
	}
}

func TestService_CompletePanicFallsBackToRunningFlag(t *testing.T) {
	svc := scheduler.NewService(scheduler.Settings{
		Descriptor: scheduler.NewDescriptor("panicky-complete", "1.0.0"),
		Complete: func(ctx *scheduler.Context) bool {
			panic("boom")
		},
	})
	if svc.Complete() {
		t.Error("a running service whose Complete panics should not report complete")
	}
	svc.Stop()
	if !svc.Complete() {
		t.Error("a stopped service whose Complete panics should report complete")
	}
}

func TestService_SendBeforeRegistrationReturnsFalse(t *testing.T) {
	svc := scheduler.NewService(scheduler.Settings{
		Descriptor: scheduler.NewDescriptor("unregistered", "1.0.0"),
	})
	if svc.Send("anywhere", newTextMessage("x")) {
		t.Error("Send before registration should return false")
	}
}
