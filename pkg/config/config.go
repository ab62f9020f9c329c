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

// Package config loads the runtime configuration blob.
//
// JSON and YAML are both accepted. Invalid values are never fatal: they are
// logged and clamped to defaults, per the runtime's configuration error
// policy.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/logging"
	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/scheduler"
	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

var logger = logging.NewPackageLogger("config")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DefaultMetricsHTTPPort is used when metrics are enabled without a port
const DefaultMetricsHTTPPort = 9090

// Config is the runtime configuration
type Config struct {
	// MaxWorkers sizes the worker pool. Clamped to the number of hardware
	// threads if larger or non-positive.
	MaxWorkers int `json:"maxWorkers" yaml:"maxWorkers"`

	// TickMillis is the polling quantum applied to every worker
	TickMillis int64 `json:"tickMillis" yaml:"tickMillis"`

	// ErrorThreshold is the consecutive-error count at which a service is auto-stopped
	ErrorThreshold uint32 `json:"errorThreshold" yaml:"errorThreshold"`

	Metrics MetricsConfig `json:"metrics" yaml:"metrics"`

	Services []ServiceConfig `json:"services" yaml:"services"`
}

// MetricsConfig configures the metrics HTTP reporter
type MetricsConfig struct {
	Enabled  bool `json:"enabled" yaml:"enabled"`
	HTTPPort int  `json:"httpPort" yaml:"httpPort"`
}

// ServiceConfig configures one service
type ServiceConfig struct {
	Name    string `json:"name" yaml:"name"`
	Enabled bool   `json:"enabled" yaml:"enabled"`

	PeriodMillis int64 `json:"periodMillis" yaml:"periodMillis"`

	// PreferredWorker pins the service to a worker index.
	// nil or -1 means no preference.
	PreferredWorker *int `json:"preferredWorker" yaml:"preferredWorker"`
}

// Preferred resolves the preferred worker index, NoPreferredWorker when unset
func (a *ServiceConfig) Preferred() int {
	if a.PreferredWorker == nil {
		return scheduler.NoPreferredWorker
	}
	return *a.PreferredWorker
}

// Default returns the configuration used when no config file is supplied
func Default() *Config {
	return (&Config{}).Normalize()
}

// Load reads and normalizes the config file at path.
// The format is chosen by extension: .json, or .yaml / .yml.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSON(data)
	case ".yaml", ".yml":
		return ReadYAML(data)
	default:
		return nil, fmt.Errorf("unsupported config format : %v", path)
	}
}

// ReadJSON parses a JSON config blob and normalizes it
func ReadJSON(data []byte) (*Config, error) {
	config := &Config{}
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}
	return config.Normalize(), nil
}

// ReadYAML parses a YAML config blob and normalizes it
func ReadYAML(data []byte) (*Config, error) {
	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}
	return config.Normalize(), nil
}

// Normalize clamps invalid values to defaults, logging each clamp.
// It returns the receiver.
func (a *Config) Normalize() *Config {
	const FUNC = "Normalize"

	hardwareThreads := runtime.NumCPU()
	if a.MaxWorkers <= 0 || a.MaxWorkers > hardwareThreads {
		logger.Warn().Str(logging.FUNC, FUNC).
			Int("max_workers", a.MaxWorkers).
			Msgf("worker count clamped to hardware threads : %d", hardwareThreads)
		a.MaxWorkers = hardwareThreads
	}
	if a.TickMillis <= 0 {
		logger.Warn().Str(logging.FUNC, FUNC).
			Int64("tick_ms", a.TickMillis).
			Msgf("invalid tick period - using default : %d ms", scheduler.DefaultTickPeriodMillis)
		a.TickMillis = scheduler.DefaultTickPeriodMillis
	}
	if a.ErrorThreshold == 0 {
		logger.Warn().Str(logging.FUNC, FUNC).
			Msgf("invalid error threshold - using default : %d", scheduler.DefaultErrorThreshold)
		a.ErrorThreshold = scheduler.DefaultErrorThreshold
	}
	if a.Metrics.Enabled && a.Metrics.HTTPPort <= 0 {
		logger.Warn().Str(logging.FUNC, FUNC).
			Int("http_port", a.Metrics.HTTPPort).
			Msgf("invalid metrics port - using default : %d", DefaultMetricsHTTPPort)
		a.Metrics.HTTPPort = DefaultMetricsHTTPPort
	}

	for i := range a.Services {
		svc := &a.Services[i]
		if svc.PeriodMillis <= 0 {
			logger.Warn().Str(logging.FUNC, FUNC).
				Str(logging.SERVICE, svc.Name).
				Int64(logging.PERIOD, svc.PeriodMillis).
				Msgf("invalid period - using default : %d ms", scheduler.DefaultPeriodMillis)
			svc.PeriodMillis = scheduler.DefaultPeriodMillis
		}
		if svc.PreferredWorker != nil {
			if p := *svc.PreferredWorker; p < scheduler.NoPreferredWorker || p >= a.MaxWorkers {
				logger.Warn().Str(logging.FUNC, FUNC).
					Str(logging.SERVICE, svc.Name).
					Int("preferred_worker", p).
					Msg("preferred worker out of range - using no preference")
				svc.PreferredWorker = nil
			}
		}
	}
	return a
}
