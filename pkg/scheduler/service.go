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
	"io"
	"sync"
	"sync/atomic"

	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/logging"
	"github.com/rs/zerolog"
)

// DefaultPeriodMillis is used when a service requests a non-positive period
const DefaultPeriodMillis = 10

// Context is the service context that is exposed to the lifecycle functions
type Context struct {
	*Service
}

// Setup is called at most once, before the first work step
type Setup func(*Context) error

// Step performs one unit of work. It is invoked by the owning worker each
// time the service's period has elapsed. It must return promptly.
type Step func(*Context) error

// Handle processes one inbox message. It is invoked by the default Step for
// each dequeued message.
type Handle func(*Context, Message) error

// Cleanup is called at most once, after the service leaves its worker
type Cleanup func(*Context) error

// Complete reports whether the service has finished its work and may be
// reaped. The default is !Running().
type Complete func(*Context) bool

// LogSettings groups the log settings for the service
type LogSettings struct {
	// OPTIONAL - used to specify an alternative writer for the service logger
	LogOutput io.Writer

	// OPTIONAL - if not specified then the global default log level is used
	LogLevel *zerolog.Level
}

// Settings is used by NewService to create a new service instance
type Settings struct {
	// REQUIRED - the service name must be unique across the runtime
	*Descriptor

	// OPTIONAL - requested minimum interval between work steps.
	// Non-positive values are replaced by DefaultPeriodMillis.
	PeriodMillis int64

	// OPTIONAL - inbox capacity, DefaultInboxCapacity when non-positive
	InboxCapacity int

	// OPTIONAL - functions that define the service lifecycle.
	// Any panic that occurs in the supplied functions is converted to a PanicError.
	Setup    Setup
	Step     Step
	Handle   Handle
	Cleanup  Cleanup
	Complete Complete

	LogSettings
}

// Service is a unit of user code driven by a worker.
//
// The running flag is monotonic: it starts true and becomes false on Stop,
// and never resets. All lifecycle functions run on the single worker the
// service is assigned to.
//
// use NewService() to create a new instance
type Service struct {
	*Descriptor

	periodMillis int64
	running      atomic.Bool
	inbox        *Inbox

	// non-owning back-reference, set at registration, used only for Send
	scheduler *Scheduler

	logger zerolog.Logger

	setup    Setup
	step     Step
	handle   Handle
	cleanup  Cleanup
	complete Complete

	cleanupOnce sync.Once
}

// NewService creates and returns a new Service in the running state.
//
// The Descriptor with a name and version is required - the function panics
// without it. All lifecycle functions are optional: the default Step drains
// the inbox, invoking Handle per dequeued message until the inbox is empty
// or the service is stopped.
func NewService(settings Settings) *Service {
	checkServiceSettings(&settings)

	svcLog := logging.NewServiceLogger("scheduler", settings.Name())
	if settings.LogOutput != nil {
		svcLog = svcLog.Output(settings.LogOutput)
	}
	if settings.LogLevel != nil {
		svcLog = svcLog.Level(*settings.LogLevel)
	}

	periodMillis := settings.PeriodMillis
	if periodMillis <= 0 {
		svcLog.Warn().Str(logging.FUNC, "NewService").
			Int64(logging.PERIOD, periodMillis).
			Msgf("invalid period - using default : %d ms", DefaultPeriodMillis)
		periodMillis = DefaultPeriodMillis
	}

	svc := &Service{
		Descriptor:   settings.Descriptor,
		periodMillis: periodMillis,
		inbox:        NewInbox(inboxCapacity(settings.InboxCapacity)),
		logger:       svcLog,
		setup:        trapPanics(settings.Setup, "Service.setup()"),
		handle:       trapHandlePanics(settings.Handle),
		cleanup:      trapPanics(settings.Cleanup, "Service.cleanup()"),
	}
	if settings.Step == nil {
		svc.step = drainInbox
	} else {
		svc.step = trapPanics(settings.Step, "Service.step()")
	}
	svc.complete = settings.Complete
	svc.running.Store(true)

	svcLog.Info().Str(logging.FUNC, "NewService").
		Int64(logging.PERIOD, periodMillis).
		Str("version", svc.Version().String()).
		Msg("")

	return svc
}

// panics if settings are invalid
func checkServiceSettings(settings *Settings) {
	if settings.Descriptor == nil {
		logger.Panic().Err(ErrDescriptorRequired).Msg("")
	}
	if settings.Name() == "" {
		logger.Panic().Err(ErrNameRequired).Msg("")
	}
	if settings.Version() == nil {
		logger.Panic().Str(logging.SERVICE, settings.Name()).Err(ErrVersionRequired).Msg("")
	}
}

func inboxCapacity(capacity int) int {
	if capacity <= 0 {
		return DefaultInboxCapacity
	}
	return capacity
}

func trapPanics(f func(*Context) error, msg string) func(*Context) error {
	if f == nil {
		return func(ctx *Context) error { return nil }
	}
	return func(ctx *Context) (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = &PanicError{Panic: p, Message: msg}
			}
		}()
		return f(ctx)
	}
}

func trapHandlePanics(f Handle) Handle {
	if f == nil {
		return nil
	}
	return func(ctx *Context, msg Message) (err error) {
		defer func() {
			if p := recover(); p != nil {
				err = &PanicError{Panic: p, Message: "Service.handle()"}
			}
		}()
		return f(ctx, msg)
	}
}

// drainInbox is the default Step: poll the inbox repeatedly, handing each
// message to Handle. The running flag is checked between messages - it is
// the cooperative stop-point.
func drainInbox(ctx *Context) error {
	for ctx.Running() {
		msg, ok := ctx.inbox.Poll()
		if !ok {
			return nil
		}
		if ctx.handle == nil {
			ctx.logger.Debug().Str(logging.FUNC, "drainInbox").
				Str("msg_type", msg.Type()).
				Msg("no handler - message discarded")
			continue
		}
		if err := ctx.handle(ctx, msg); err != nil {
			return err
		}
	}
	return nil
}

// PeriodMillis returns the requested minimum interval between work steps
func (a *Service) PeriodMillis() int64 {
	return a.periodMillis
}

// Running returns true until Stop has been requested
func (a *Service) Running() bool {
	return a.running.Load()
}

// Stop requests the service to stop. The flag is observed by the worker
// before the next step and between inbox drain iterations. Stop is
// monotonic: a stopped service cannot be restarted.
func (a *Service) Stop() {
	if a.running.CompareAndSwap(true, false) {
		a.logger.Info().Str(logging.FUNC, "Stop").Msg("stop requested")
	}
}

// Inbox returns the service's inbox
func (a *Service) Inbox() *Inbox {
	return a.inbox
}

// Complete reports whether the service has finished and may be reaped
func (a *Service) Complete() (complete bool) {
	if a.complete == nil {
		return !a.Running()
	}
	defer func() {
		if p := recover(); p != nil {
			a.logger.Error().Err(&PanicError{Panic: p, Message: "Service.complete()"}).Msg("")
			complete = !a.Running()
		}
	}()
	return a.complete(&Context{a})
}

// Send routes a message to the named service via the owning Scheduler.
// It returns false if the service has not been registered yet, the target
// is unknown, or the target's inbox is full.
func (a *Service) Send(target string, msg Message) bool {
	if a.scheduler == nil {
		a.logger.Warn().Str(logging.FUNC, "Send").
			Str(logging.TARGET, target).
			Msg("service is not registered - message dropped")
		return false
	}
	return a.scheduler.Send(target, msg)
}

// Logger returns the service's logger
func (a *Service) Logger() zerolog.Logger {
	return a.logger
}

// runSetup invokes the setup function. Invoked by the owning worker.
func (a *Service) runSetup(ctx *Context) error {
	return a.setup(ctx)
}

// runStep invokes the step function. Invoked by the owning worker.
func (a *Service) runStep(ctx *Context) error {
	return a.step(ctx)
}

// runCleanup invokes the cleanup function at most once.
// Subsequent calls are no-ops returning nil.
func (a *Service) runCleanup() (err error) {
	a.cleanupOnce.Do(func() {
		err = a.cleanup(&Context{a})
	})
	return err
}
