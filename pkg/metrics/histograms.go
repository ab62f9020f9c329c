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

// GetOrMustRegisterHistogramVec first checks if a HistogramVec with the same name is already registered.
// If the HistogramVec is already registered, and was registered with the same opts, then the cached HistogramVec is returned.
// If the HistogramVec is already registered, and was registered with different opts, then a panic is triggered.
// If no such HistogramVec exists, then it is registered and cached along with its opts.
func GetOrMustRegisterHistogramVec(opts *HistogramVecOpts) *prometheus.HistogramVec {
	const FUNC = "GetOrMustRegisterHistogramVec"
	mutex.Lock()
	defer mutex.Unlock()
	name := HistogramFQName(opts.HistogramOpts)
	if histogramVec := histogramVecsMap[name]; histogramVec != nil {
		if HistogramVecOptsMatch(opts, histogramVec.HistogramVecOpts) {
			return histogramVec.HistogramVec
		}
		logger.Panic().Str(logging.FUNC, FUNC).
			Str("registered", fmt.Sprintf("%v", histogramVec.HistogramVecOpts)).
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

	histogramVec := prometheus.NewHistogramVec(*opts.HistogramOpts, opts.Labels)
	Registry.MustRegister(histogramVec)
	histogramVecsMap[name] = &HistogramVec{histogramVec, opts}
	return histogramVec
}

// GetHistogramVec looks up the HistogramVec by its fully qualified name
func GetHistogramVec(name string) *HistogramVec {
	mutex.RLock()
	defer mutex.RUnlock()
	return histogramVecsMap[name]
}
