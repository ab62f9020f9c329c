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

// Package metrics centralizes prometheus metric registration for the process.
//
// All runtime components register their collectors through the
// GetOrMustRegister functions, which cache collectors by fully qualified
// name. Registering the same metric twice with the same opts returns the
// cached collector; registering it with different opts panics, because that
// is a programming error.
package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Counter pairs the registered collector with its opts
type Counter struct {
	prometheus.Counter
	*prometheus.CounterOpts
}

// CounterVec pairs the registered collector with its opts
type CounterVec struct {
	*prometheus.CounterVec
	*CounterVecOpts
}

// GaugeVec pairs the registered collector with its opts
type GaugeVec struct {
	*prometheus.GaugeVec
	*GaugeVecOpts
}

// HistogramVec pairs the registered collector with its opts
type HistogramVec struct {
	*prometheus.HistogramVec
	*HistogramVecOpts
}

// CounterVecOpts are the opts the CounterVec was registered with
type CounterVecOpts struct {
	*prometheus.CounterOpts
	Labels []string
}

// GaugeVecOpts are the opts the GaugeVec was registered with
type GaugeVecOpts struct {
	*prometheus.GaugeOpts
	Labels []string
}

// HistogramVecOpts are the opts the HistogramVec was registered with
type HistogramVecOpts struct {
	*prometheus.HistogramOpts
	Labels []string
}

// CounterFQName returns the fully qualified name for the counter.
func CounterFQName(opts *prometheus.CounterOpts) string {
	o := prometheus.Opts(*opts)
	return MetricFQName(&o)
}

// GaugeFQName returns the fully qualified name for the gauge.
func GaugeFQName(opts *prometheus.GaugeOpts) string {
	o := prometheus.Opts(*opts)
	return MetricFQName(&o)
}

// HistogramFQName returns the fully qualified name for the histogram.
func HistogramFQName(opts *prometheus.HistogramOpts) string {
	return prometheus.BuildFQName(opts.Namespace, opts.Subsystem, opts.Name)
}

// MetricFQName returns the fully qualified metric name
func MetricFQName(opts *prometheus.Opts) string {
	return prometheus.BuildFQName(opts.Namespace, opts.Subsystem, opts.Name)
}

// FindMetricFamilyByName finds a MetricFamily by name.
// nil is returned if no match is found
func FindMetricFamilyByName(gatheredMetrics []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, m := range gatheredMetrics {
		if m.GetName() == name {
			return m
		}
	}
	return nil
}

func labelsMatch(labels1, labels2 []string) bool {
	if len(labels1) != len(labels2) {
		return false
	}
	sorted1 := make([]string, len(labels1))
	copy(sorted1, labels1)
	sorted2 := make([]string, len(labels2))
	copy(sorted2, labels2)
	sort.Strings(sorted1)
	sort.Strings(sorted2)
	for i := range sorted1 {
		if sorted1[i] != sorted2[i] {
			return false
		}
	}
	return true
}

func constLabelsMatch(labels1, labels2 prometheus.Labels) bool {
	if len(labels1) != len(labels2) {
		return false
	}
	for k, v := range labels1 {
		if labels2[k] != v {
			return false
		}
	}
	return true
}

// CounterOptsMatch returns true if the 2 opts match
func CounterOptsMatch(opts1, opts2 *prometheus.CounterOpts) bool {
	return CounterFQName(opts1) == CounterFQName(opts2) &&
		opts1.Help == opts2.Help &&
		constLabelsMatch(opts1.ConstLabels, opts2.ConstLabels)
}

// CounterVecOptsMatch returns true if the 2 opts match
func CounterVecOptsMatch(opts1, opts2 *CounterVecOpts) bool {
	return CounterOptsMatch(opts1.CounterOpts, opts2.CounterOpts) && labelsMatch(opts1.Labels, opts2.Labels)
}

// GaugeOptsMatch returns true if the 2 opts match
func GaugeOptsMatch(opts1, opts2 *prometheus.GaugeOpts) bool {
	return GaugeFQName(opts1) == GaugeFQName(opts2) &&
		opts1.Help == opts2.Help &&
		constLabelsMatch(opts1.ConstLabels, opts2.ConstLabels)
}

// GaugeVecOptsMatch returns true if the 2 opts match
func GaugeVecOptsMatch(opts1, opts2 *GaugeVecOpts) bool {
	return GaugeOptsMatch(opts1.GaugeOpts, opts2.GaugeOpts) && labelsMatch(opts1.Labels, opts2.Labels)
}

// HistogramVecOptsMatch returns true if the 2 opts match
func HistogramVecOptsMatch(opts1, opts2 *HistogramVecOpts) bool {
	if HistogramFQName(opts1.HistogramOpts) != HistogramFQName(opts2.HistogramOpts) {
		return false
	}
	if opts1.Help != opts2.Help || !constLabelsMatch(opts1.ConstLabels, opts2.ConstLabels) {
		return false
	}
	if len(opts1.Buckets) != len(opts2.Buckets) {
		return false
	}
	for i := range opts1.Buckets {
		if opts1.Buckets[i] != opts2.Buckets[i] {
			return false
		}
	}
	return labelsMatch(opts1.Labels, opts2.Labels)
}
