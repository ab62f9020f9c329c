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
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/scheduler"
)

func newIdleService(name string) *scheduler.Service {
	return scheduler.NewService(scheduler.Settings{
		Descriptor:   scheduler.NewDescriptor(name, "1.0.0"),
		PeriodMillis: 20,
	})
}

func fastScheduler(maxWorkers int) *scheduler.Scheduler {
	sched := scheduler.NewScheduler(maxWorkers)
	for _, w := range sched.Workers() {
		w.SetTickPeriodMillis(2)
	}
	return sched
}

func TestNewScheduler_InvalidWorkerCountClampedToOne(t *testing.T) {
	sched := scheduler.NewScheduler(0)
	if sched.WorkerCount() != 1 {
		t.Errorf("worker count should be clamped to 1, but was %d", sched.WorkerCount())
	}
}

func TestScheduler_PinnedPlacement(t *testing.T) {
	sched := scheduler.NewScheduler(4)
	svc := newIdleService("pinned")
	if err := sched.Register(svc, 2); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < sched.WorkerCount(); i++ {
		w := sched.Worker(i)
		assigned := false
		for _, s := range w.Services() {
			if s == svc {
				assigned = true
			}
		}
		if i == 2 && !assigned {
			t.Error("worker 2's snapshot should contain the pinned service")
		}
		if i != 2 && assigned {
			t.Errorf("worker %d should not contain the pinned service", i)
		}
	}
}

func TestScheduler_LeastLoadedPlacement(t *testing.T) {
	sched := scheduler.NewScheduler(3)
	for i := 0; i < 6; i++ {
		if err := sched.Register(newIdleService(fmt.Sprintf("svc-%d", i)), scheduler.NoPreferredWorker); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < sched.WorkerCount(); i++ {
		if count := sched.Worker(i).ServiceCount(); count != 2 {
			t.Errorf("worker %d should manage exactly 2 services, but manages %d", i, count)
		}
	}
}

func TestScheduler_OutOfRangePreferenceFallsBackToLeastLoaded(t *testing.T) {
	sched := scheduler.NewScheduler(2)
	if err := sched.Register(newIdleService("wanderer"), 17); err != nil {
		t.Fatal(err)
	}
	total := sched.Worker(0).ServiceCount() + sched.Worker(1).ServiceCount()
	if total != 1 {
		t.Errorf("service should be assigned to exactly one worker, total = %d", total)
	}
}

func TestScheduler_RegisterNilService(t *testing.T) {
	sched := scheduler.NewScheduler(1)
	if err := sched.Register(nil, scheduler.NoPreferredWorker); err != scheduler.ErrServiceNil {
		t.Errorf("registering nil should return ErrServiceNil, but was %v", err)
	}
}

func TestScheduler_DuplicateNameOverwritesAndStopsPrior(t *testing.T) {
	sched := scheduler.NewScheduler(2)

	var cleanups atomic.Uint64
	prior := scheduler.NewService(scheduler.Settings{
		Descriptor: scheduler.NewDescriptor("dup", "1.0.0"),
		Cleanup: func(ctx *scheduler.Context) error {
			cleanups.Add(1)
			return nil
		},
	})
	replacement := newIdleService("dup")

	if err := sched.Register(prior, 0); err != nil {
		t.Fatal(err)
	}
	if err := sched.Register(replacement, 1); err != nil {
		t.Fatal(err)
	}

	if sched.Get("dup") != replacement {
		t.Error("the directory should hold the replacement service")
	}
	if prior.Running() {
		t.Error("the displaced service should have been stopped")
	}
	if cleanups.Load() != 1 {
		t.Errorf("the displaced service should have been cleaned up once, but %d times", cleanups.Load())
	}
	if count := sched.Worker(0).ServiceCount(); count != 0 {
		t.Errorf("the displaced service should have left worker 0, count = %d", count)
	}
	if sched.ServiceCount() != 1 {
		t.Errorf("exactly one service should be registered, but was %d", sched.ServiceCount())
	}
}

func TestScheduler_RegisterSameServiceTwiceIsANoOp(t *testing.T) {
	sched := scheduler.NewScheduler(2)
	svc := newIdleService("once")
	if err := sched.Register(svc, 0); err != nil {
		t.Fatal(err)
	}
	if err := sched.Register(svc, 1); err != nil {
		t.Fatal(err)
	}
	if sched.Worker(0).ServiceCount() != 1 || sched.Worker(1).ServiceCount() != 0 {
		t.Error("re-registering a service should not move or duplicate it")
	}
}

func TestScheduler_Get(t *testing.T) {
	sched := scheduler.NewScheduler(1)
	svc := newIdleService("findable")
	sched.Register(svc, scheduler.NoPreferredWorker)

	if sched.Get("findable") != svc {
		t.Error("Get should return the registered service")
	}
	if sched.Get("missing") != nil {
		t.Error("Get should return nil for an unknown name")
	}
}

func TestScheduler_SendValidation(t *testing.T) {
	sched := scheduler.NewScheduler(1)
	sched.Register(newIdleService("target"), scheduler.NoPreferredWorker)

	if sched.Send("target", nil) {
		t.Error("sending a nil message should return false")
	}
	if sched.Send("", newTextMessage("x")) {
		t.Error("sending to a blank name should return false")
	}
	if sched.Send("unknown", newTextMessage("x")) {
		t.Error("sending to an unknown service should return false")
	}
	if !sched.Send("target", newTextMessage("x")) {
		t.Error("sending to a registered service should succeed")
	}
}

func TestScheduler_SendToFullInboxDropsMessage(t *testing.T) {
	sched := scheduler.NewScheduler(1)
	svc := scheduler.NewService(scheduler.Settings{
		Descriptor:    scheduler.NewDescriptor("tiny", "1.0.0"),
		InboxCapacity: 2,
	})
	sched.Register(svc, scheduler.NoPreferredWorker)

	if !sched.Send("tiny", newTextMessage("1")) || !sched.Send("tiny", newTextMessage("2")) {
		t.Fatal("the first two sends should succeed")
	}
	if sched.Send("tiny", newTextMessage("3")) {
		t.Error("a send to a full inbox should return false")
	}
	if svc.Inbox().Size() != 2 {
		t.Error("the dropped message should not be delivered")
	}
}

func TestScheduler_StatusLog(t *testing.T) {
	sched := scheduler.NewScheduler(3)
	sched.Register(newIdleService("alpha"), 1)
	sched.Register(newIdleService("beta"), 1)

	status := sched.StatusLog()
	if len(status) != 1 {
		t.Fatalf("empty workers should be omitted, status = %v", status)
	}
	summary := status["worker-1"]
	if !strings.HasPrefix(summary, "worker-1 manages 2 services:") {
		t.Errorf("unexpected status summary : %q", summary)
	}
	if !strings.Contains(summary, "alpha") || !strings.Contains(summary, "beta") {
		t.Errorf("status summary should list the service names : %q", summary)
	}
}

func TestScheduler_ReapCompleted(t *testing.T) {
	sched := fastScheduler(2)

	var cleanups, steps atomic.Uint64
	var done atomic.Bool
	oneShot := scheduler.NewService(scheduler.Settings{
		Descriptor:   scheduler.NewDescriptor("one-shot", "1.0.0"),
		PeriodMillis: 1,
		Step: func(ctx *scheduler.Context) error {
			steps.Add(1)
			done.Store(true)
			return nil
		},
		Complete: func(ctx *scheduler.Context) bool {
			return done.Load()
		},
		Cleanup: func(ctx *scheduler.Context) error {
			cleanups.Add(1)
			return nil
		},
	})
	sched.Register(oneShot, scheduler.NoPreferredWorker)
	sched.StartAll()
	defer sched.StopAll()

	if !eventually(timeout, func() bool { return done.Load() }) {
		t.Fatal("the one-shot service should have run")
	}
	if reaped := sched.ReapCompleted(); reaped != 1 {
		t.Errorf("exactly one service should have been reaped, but was %d", reaped)
	}

	if sched.Get("one-shot") != nil {
		t.Error("a reaped service should be absent from the directory")
	}
	for _, w := range sched.Workers() {
		if w.ServiceCount() != 0 {
			t.Error("a reaped service should be absent from every worker's snapshot")
		}
	}
	if cleanups.Load() != 1 {
		t.Errorf("cleanup should have been invoked exactly once, but was %d", cleanups.Load())
	}
	if len(sched.StatusLog()) != 0 {
		t.Error("the status log should be empty after the sweep")
	}

	// reaping again changes nothing
	if reaped := sched.ReapCompleted(); reaped != 0 {
		t.Errorf("a second sweep should reap nothing, but reaped %d", reaped)
	}
	if cleanups.Load() != 1 {
		t.Error("a second sweep should not run cleanup again")
	}
}

func TestScheduler_AllMetrics(t *testing.T) {
	sched := fastScheduler(2)

	var aSteps, bSteps atomic.Uint64
	sched.Register(newCountingService("metered-a", 1, &aSteps), scheduler.NoPreferredWorker)
	sched.Register(newCountingService("metered-b", 1, &bSteps), scheduler.NoPreferredWorker)
	sched.StartAll()
	defer sched.StopAll()

	if !eventually(timeout, func() bool { return aSteps.Load() >= 2 && bSteps.Load() >= 2 }) {
		t.Fatal("both services should have been stepped")
	}

	all := sched.AllMetrics()
	if len(all) != 2 {
		t.Fatalf("metrics should be aggregated across workers, got %d entries", len(all))
	}
	for _, name := range []string{"metered-a", "metered-b"} {
		if all[name].StepCount == 0 {
			t.Errorf("%s should report recorded steps", name)
		}
	}
}

func TestScheduler_StopAllJoinsWorkers(t *testing.T) {
	sched := fastScheduler(3)

	var steps atomic.Uint64
	sched.Register(newCountingService("busy", 1, &steps), scheduler.NoPreferredWorker)
	sched.StartAll()

	if !eventually(timeout, func() bool { return steps.Load() >= 1 }) {
		t.Fatal("service should have been stepped")
	}

	sched.StopAll()
	count := steps.Load()
	time.Sleep(30 * time.Millisecond)
	if steps.Load() != count {
		t.Error("no steps should run after StopAll returns")
	}

	// a second StartAll warning-path and a second StopAll cause no issues
	sched.StartAll()
	sched.StopAll()
}

// end-to-end: A parses and forwards to B
func TestScheduler_BasicRouting(t *testing.T) {
	sched := fastScheduler(2)

	type parsed struct {
		scheduler.Envelope
		Payload string
	}

	received := make(chan string, 1)
	a := scheduler.NewService(scheduler.Settings{
		Descriptor:   scheduler.NewDescriptor("A", "1.0.0"),
		PeriodMillis: 20,
		Handle: func(ctx *scheduler.Context, msg scheduler.Message) error {
			raw := msg.(*textMessage)
			ctx.Send("B", &parsed{Envelope: scheduler.NewEnvelope("parsed"), Payload: raw.Text + "!"})
			return nil
		},
	})
	b := scheduler.NewService(scheduler.Settings{
		Descriptor:   scheduler.NewDescriptor("B", "1.0.0"),
		PeriodMillis: 20,
		Handle: func(ctx *scheduler.Context, msg scheduler.Message) error {
			received <- msg.(*parsed).Payload
			return nil
		},
	})
	sched.Register(a, scheduler.NoPreferredWorker)
	sched.Register(b, scheduler.NoPreferredWorker)
	sched.StartAll()
	defer sched.StopAll()

	if !sched.Send("A", newTextMessage("x")) {
		t.Fatal("send to A should succeed")
	}

	select {
	case payload := <-received:
		if payload != "x!" {
			t.Errorf("B should have received \"x!\", but was %q", payload)
		}
	case <-time.After(timeout):
		t.Fatal("B should have received the forwarded message")
	}

	time.Sleep(50 * time.Millisecond)
	if len(received) != 0 {
		t.Error("B should have received exactly one message")
	}
}

// end-to-end: overflow before the consumer starts, then drain in offer order
func TestScheduler_InboxOverflow(t *testing.T) {
	sched := fastScheduler(1)

	var mutex sync.Mutex
	var handled []string
	consumer := scheduler.NewService(scheduler.Settings{
		Descriptor:    scheduler.NewDescriptor("consumer", "1.0.0"),
		PeriodMillis:  1,
		InboxCapacity: 4,
		Handle: func(ctx *scheduler.Context, msg scheduler.Message) error {
			mutex.Lock()
			handled = append(handled, msg.(*textMessage).Text)
			mutex.Unlock()
			return nil
		},
	})
	sched.Register(consumer, scheduler.NoPreferredWorker)

	for i := 0; i < 4; i++ {
		if !sched.Send("consumer", newTextMessage(fmt.Sprintf("msg-%d", i))) {
			t.Fatalf("send %d should have succeeded", i)
		}
	}
	if sched.Send("consumer", newTextMessage("msg-4")) {
		t.Error("the 5th send should return false")
	}

	sched.StartAll()
	defer sched.StopAll()

	if !eventually(timeout, func() bool {
		mutex.Lock()
		defer mutex.Unlock()
		return len(handled) >= 4
	}) {
		t.Fatal("the consumer should have drained its inbox")
	}

	mutex.Lock()
	defer mutex.Unlock()
	if len(handled) != 4 {
		t.Fatalf("exactly 4 messages should have been handled, but was %d", len(handled))
	}
	for i, text := range handled {
		if text != fmt.Sprintf("msg-%d", i) {
			t.Errorf("messages should be handled in offer order : position %d was %q", i, text)
		}
	}
}

// cooperative stop: the drain loop checks the running flag between messages
func TestScheduler_StopBreaksDrainLoop(t *testing.T) {
	w := scheduler.NewWorker(0)
	w.SetTickPeriodMillis(2)

	var handled atomic.Uint64
	svc := scheduler.NewService(scheduler.Settings{
		Descriptor:   scheduler.NewDescriptor("self-stopper", "1.0.0"),
		PeriodMillis: 1,
		Handle: func(ctx *scheduler.Context, msg scheduler.Message) error {
			handled.Add(1)
			ctx.Stop()
			return nil
		},
	})
	for i := 0; i < 3; i++ {
		svc.Inbox().Offer(newTextMessage(fmt.Sprintf("m-%d", i)))
	}
	w.AddService(svc)

	if err := w.Start(); err != nil {
		t.Fatal(err)
	}
	defer stopWorker(t, w)

	if !eventually(timeout, func() bool { return !svc.Running() }) {
		t.Fatal("the service should have stopped itself")
	}
	time.Sleep(20 * time.Millisecond)
	if handled.Load() != 1 {
		t.Errorf("the drain loop should break after the stop, handled = %d", handled.Load())
	}
	if svc.Inbox().Size() != 2 {
		t.Errorf("the remaining messages should stay enqueued, size = %d", svc.Inbox().Size())
	}
}
