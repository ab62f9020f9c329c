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

package logging

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// logger fields
const (
	PACKAGE = "pkg"
	FUNC    = "func"
	SERVICE = "svc"
	WORKER  = "worker"
	NAME    = "name"
	EVENT   = "event"
	STATE   = "state"
	TARGET  = "target"
	PERIOD  = "period_ms"
)

// event values logged under the EVENT field
const (
	EventQuarantined       = "quarantined"
	EventSetupFailed       = "setup_failed"
	EventStepFailed        = "step_failed"
	EventCleanupFailed     = "cleanup_failed"
	EventInboxFull         = "inbox_full"
	EventNameOverwritten   = "name_overwritten"
	EventServiceReaped     = "reaped"
	EventWorkerStarted     = "worker_started"
	EventWorkerStopped     = "worker_stopped"
	EventServiceRegistered = "registered"
)

// NewPackageLogger returns a new logger with pkg={pkg}
func NewPackageLogger(pkg string) zerolog.Logger {
	return log.With().Str(PACKAGE, pkg).Logger()
}

// NewServiceLogger returns a new logger with pkg={pkg}, svc={name}
func NewServiceLogger(pkg string, name string) zerolog.Logger {
	return log.With().Str(PACKAGE, pkg).Str(SERVICE, name).Logger()
}

// NewWorkerLogger returns a new logger with pkg={pkg}, worker={worker}
func NewWorkerLogger(pkg string, worker string) zerolog.Logger {
	return log.With().Str(PACKAGE, pkg).Str(WORKER, worker).Logger()
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339Nano
}
