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

import "errors"

var (
	// ErrMetricAlreadyRegisteredWithDifferentOpts indicates a metric is already registered under the same name with different opts
	ErrMetricAlreadyRegisteredWithDifferentOpts = errors.New("metric is already registered with different opts")

	// ErrMetricNameUsedByDifferentMetricType indicates the metric name is already used by a different metric type
	ErrMetricNameUsedByDifferentMetricType = errors.New("metric name is already used by a different metric type")
)
