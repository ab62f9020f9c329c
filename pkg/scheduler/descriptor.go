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
	"fmt"
	"strings"

	"github.com/Masterminds/semver"
)

// Descriptor identifies a service.
// The Name is the logical name the service is registered and addressed under.
// It must be unique across the runtime.
type Descriptor struct {
	name    string
	version *semver.Version
}

// NewDescriptor creates a new service Descriptor.
// The version must be a valid semver - otherwise the function panics.
func NewDescriptor(name string, version string) *Descriptor {
	return &Descriptor{
		name:    strings.TrimSpace(name),
		version: NewVersion(version),
	}
}

// NewVersion parses the version, panicking if the version is not a valid semver
func NewVersion(version string) *semver.Version {
	v, err := semver.NewVersion(version)
	if err != nil {
		logger.Panic().Msgf("Invalid version : %v : %v", version, err)
	}
	return v
}

// Name returns the service's logical name
func (a *Descriptor) Name() string {
	return a.name
}

// Version returns the service version
func (a *Descriptor) Version() *semver.Version {
	return a.version
}

func (a *Descriptor) String() string {
	return fmt.Sprintf("%v-%v", a.name, a.version)
}
