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

package metrics

import (
	"fmt"

	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
)

// GetOrMustRegisterCounter first checks if a counter with the same name is already registered.
// If the counter is already registered, and was registered with the same opts, then the cached counter is returned.
// If the counter is already registered, and was registered with different opts, then a panic is triggered.
// If no such counter exists, then it is registered and cached along with its opts.
func GetOrMustRegisterCounter(opts *prometheus.CounterOpts) prometheus.Counter {
	const FUNC = "GetOrMustRegisterCounter"
	mutex.Lock()
	defer mutex.Unlock()
	name := CounterFQName(opts)
	if counter := countersMap[name]; counter != nil {
		if CounterOptsMatch(opts, counter.CounterOpts) {
			return counter.Counter
		}
		logger.Panic().Str(logging.FUNC, FUNC).
			Str("registered", fmt.Sprintf("%v", counter.CounterOpts)).
			Str("dup", fmt.Sprintf("%v", opts)).
			Err(ErrMetricAlreadyRegisteredWithDifferentOpts).
			Msg("")
	}

	if registered(name) {
		logger.Panic().Str(logging.FUNC, FUNC).
			Str("name", name).
			Err(ErrMetricNameUsedByDifferentMetricType).
			Msg("")
	}

	counter := prometheus.NewCounter(*opts)
	Registry.MustRegister(counter)
	countersMap[name] = &Counter{counter, opts}
	return counter
}

// GetOrMustRegisterCounterVec behaves as GetOrMustRegisterCounter, for a CounterVec.
func GetOrMustRegisterCounterVec(opts *CounterVecOpts) *prometheus.CounterVec {
	const FUNC = "GetOrMustRegisterCounterVec"
	mutex.Lock()
	defer mutex.Unlock()
	name := CounterFQName(opts.CounterOpts)
	if counterVec := counterVecsMap[name]; counterVec != nil {
		if CounterVecOptsMatch(opts, counterVec.CounterVecOpts) {
			return counterVec.CounterVec
		}
		logger.Panic().Str(logging.FUNC, FUNC).
			Str("registered", fmt.Sprintf("%v", counterVec.CounterVecOpts)).
			Str("dup", fmt.Sprintf("%v", opts)).
			Err(ErrMetricAlreadyRegisteredWithDifferentOpts).
			Msg("")
	}

	if registered(name) {
		logger.Panic().Str(logging.FUNC, FUNC).
			Str("name", name).
			Err(ErrMetricNameUsedByDifferentMetricType).
			Msg("")
	}

	counterVec := prometheus.NewCounterVec(*opts.CounterOpts, opts.Labels)
	Registry.MustRegister(counterVec)
	counterVecsMap[name] = &CounterVec{counterVec, opts}
	return counterVec
}

// CounterNames returns names of all registered counters
func CounterNames() []string {
	mutex.RLock()
	defer mutex.RUnlock()
	names := make([]string, 0, len(countersMap)+len(counterVecsMap))
	for k := range countersMap {
		names = append(names, k)
	}
	for k := range counterVecsMap {
		names = append(names, k)
	}
	return names
}

// GetCounterVec looks up the CounterVec by its fully qualified name
func GetCounterVec(name string) *CounterVec {
	mutex.RLock()
	defer mutex.RUnlock()
	return counterVecsMap[name]
}
