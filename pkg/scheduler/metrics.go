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
	"math"
	"sync/atomic"
	"time"

	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// prometheus metric namespace / subsystem for the runtime
const (
	MetricNamespace = "dmtp"
	MetricSubsystem = "scheduler"
)

var (
	stepCounters = metrics.GetOrMustRegisterCounterVec(&metrics.CounterVecOpts{
		CounterOpts: &prometheus.CounterOpts{
			Namespace: MetricNamespace,
			Subsystem: MetricSubsystem,
			Name:      "service_steps_total",
			Help:      "Number of successful service work steps",
		},
		Labels: []string{"svc", "worker"},
	})

	stepErrorCounters = metrics.GetOrMustRegisterCounterVec(&metrics.CounterVecOpts{
		CounterOpts: &prometheus.CounterOpts{
			Namespace: MetricNamespace,
			Subsystem: MetricSubsystem,
			Name:      "service_step_errors_total",
			Help:      "Number of failed service work steps",
		},
		Labels: []string{"svc", "worker"},
	})

	stepDurations = metrics.GetOrMustRegisterHistogramVec(&metrics.HistogramVecOpts{
		HistogramOpts: &prometheus.HistogramOpts{
			Namespace: MetricNamespace,
			Subsystem: MetricSubsystem,
			Name:      "service_step_duration_seconds",
			Help:      "Service work step duration",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		},
		Labels: []string{"svc", "worker"},
	})

	assignedServiceCounts = metrics.GetOrMustRegisterGaugeVec(&metrics.GaugeVecOpts{
		GaugeOpts: &prometheus.GaugeOpts{
			Namespace: MetricNamespace,
			Subsystem: MetricSubsystem,
			Name:      "worker_assigned_services",
			Help:      "Number of services currently assigned to the worker",
		},
		Labels: []string{"worker"},
	})
)

// minUnset marks minStepNanos before the first sample
const minUnset = int64(math.MaxInt64)

// ServiceMetrics tracks work step performance and error behavior for one
// (service, worker) association.
//
// Mutation is performed only by the owning worker. Reads may occur from any
// goroutine; each field is an atomic, and Snapshot copies them out.
type ServiceMetrics struct {
	stepCount         atomic.Uint64
	totalStepNanos    atomic.Int64
	minStepNanos      atomic.Int64
	maxStepNanos      atomic.Int64
	errorCount        atomic.Uint64
	consecutiveErrors atomic.Uint32

	steps        prometheus.Counter
	stepErrors   prometheus.Counter
	stepDuration prometheus.Observer
}

func newServiceMetrics(service string, worker string) *ServiceMetrics {
	m := &ServiceMetrics{
		steps:        stepCounters.WithLabelValues(service, worker),
		stepErrors:   stepErrorCounters.WithLabelValues(service, worker),
		stepDuration: stepDurations.WithLabelValues(service, worker),
	}
	m.minStepNanos.Store(minUnset)
	return m
}

// RecordStep records a successful work step and resets the consecutive error count
func (a *ServiceMetrics) RecordStep(nanos int64) {
	a.stepCount.Add(1)
	a.totalStepNanos.Add(nanos)
	if nanos < a.minStepNanos.Load() {
		a.minStepNanos.Store(nanos)
	}
	if nanos > a.maxStepNanos.Load() {
		a.maxStepNanos.Store(nanos)
	}
	a.consecutiveErrors.Store(0)

	a.steps.Inc()
	a.stepDuration.Observe(float64(nanos) / float64(time.Second))
}

// RecordError records a failed work step
func (a *ServiceMetrics) RecordError() {
	a.errorCount.Add(1)
	a.consecutiveErrors.Add(1)
	a.stepErrors.Inc()
}

// ConsecutiveErrors returns the current consecutive error count
func (a *ServiceMetrics) ConsecutiveErrors() uint32 {
	return a.consecutiveErrors.Load()
}

// Reset zeroes all counters. The registered prometheus counters are
// monotonic and are left alone.
func (a *ServiceMetrics) Reset() {
	a.stepCount.Store(0)
	a.totalStepNanos.Store(0)
	a.minStepNanos.Store(minUnset)
	a.maxStepNanos.Store(0)
	a.errorCount.Store(0)
	a.consecutiveErrors.Store(0)
}

// Snapshot copies the counters out into a consistent read-only view
func (a *ServiceMetrics) Snapshot() MetricsSnapshot {
	min := a.minStepNanos.Load()
	if min == minUnset {
		min = 0
	}
	return MetricsSnapshot{
		StepCount:         a.stepCount.Load(),
		TotalStepNanos:    a.totalStepNanos.Load(),
		MinStepNanos:      min,
		MaxStepNanos:      a.maxStepNanos.Load(),
		ErrorCount:        a.errorCount.Load(),
		ConsecutiveErrors: a.consecutiveErrors.Load(),
	}
}

// MetricsSnapshot is a point-in-time copy of a ServiceMetrics record.
// MinStepNanos is 0 until the first sample has been recorded.
type MetricsSnapshot struct {
	StepCount         uint64
	TotalStepNanos    int64
	MinStepNanos      int64
	MaxStepNanos      int64
	ErrorCount        uint64
	ConsecutiveErrors uint32
}

// MeanStepNanos returns the mean step duration, or 0 when no steps have been recorded
func (a MetricsSnapshot) MeanStepNanos() int64 {
	if a.StepCount == 0 {
		return 0
	}
	return a.TotalStepNanos / int64(a.StepCount)
}
