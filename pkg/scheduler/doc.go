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

// Package scheduler is an in-process service runtime.
//
// A fixed pool of workers cooperatively drives a set of long-lived
// services. Each worker runs in its own goroutine and polls its assigned
// services on a tick: a service whose requested period has elapsed gets one
// work step. Services exchange messages by logical name through bounded
// per-service inboxes; routing is performed by the Scheduler, which also
// places services onto workers (pinned or least-loaded), sweeps completed
// services, and aggregates per-service metrics.
//
// Features
// ========
// 1. Services have a lifecycle defined by Setup, Step, Cleanup and Complete functions
//   - all of a service's callbacks run on the single worker it is assigned to
//   - callback panics are trapped and surface as setup/step/cleanup failures
//
// 2. Each worker measures every work step and auto-quarantines a service
//    once its consecutive failures reach the worker's error threshold.
// 3. Each service and worker has its own logger.
//
// Services must return promptly from their callbacks: a blocking callback
// stalls every other service pinned to the same worker. Pin long-running
// services to a dedicated worker.
package scheduler
