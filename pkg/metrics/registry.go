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
	"sync"

	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var logger = logging.NewPackageLogger("metrics")

var (
	mutex sync.RWMutex

	// Registry is the global registry
	Registry = NewRegistry(true)

	countersMap      = map[string]*Counter{}
	counterVecsMap   = map[string]*CounterVec{}
	gaugeVecsMap     = map[string]*GaugeVec{}
	histogramVecsMap = map[string]*HistogramVec{}
)

// NewRegistry creates a new registry.
// If collectProcessMetrics = true, then the prometheus Go and process collectors are registered.
func NewRegistry(collectProcessMetrics bool) *prometheus.Registry {
	registry := prometheus.NewRegistry()
	if collectProcessMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return registry
}

// ResetRegistry resets the prometheus Registry and clears all cached metrics.
// Its main purpose is to support testing.
func ResetRegistry() {
	mutex.Lock()
	defer mutex.Unlock()
	Registry = NewRegistry(true)
	countersMap = map[string]*Counter{}
	counterVecsMap = map[string]*CounterVec{}
	gaugeVecsMap = map[string]*GaugeVec{}
	histogramVecsMap = map[string]*HistogramVec{}
}

func registered(name string) bool {
	_, counter := countersMap[name]
	_, counterVec := counterVecsMap[name]
	_, gaugeVec := gaugeVecsMap[name]
	_, histogramVec := histogramVecsMap[name]
	return counter || counterVec || gaugeVec || histogramVec
}
