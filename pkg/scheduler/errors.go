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
	"errors"
	"fmt"
)

var (
	// ErrServiceNil indicates a nil service was supplied
	ErrServiceNil = errors.New("service must not be nil")

	// ErrDescriptorRequired indicates the service settings are missing the Descriptor
	ErrDescriptorRequired = errors.New("service Descriptor is required")

	// ErrNameRequired indicates the service descriptor has a blank name
	ErrNameRequired = errors.New("service name must not be blank")

	// ErrVersionRequired indicates the service descriptor has no version
	ErrVersionRequired = errors.New("service version is required")
)

// PanicError is used to wrap any trapped panics along with supplemental info about the context of the panic
type PanicError struct {
	Panic interface{}
	// additional info
	Message string
}

func (e *PanicError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("panic: %v : %v", e.Panic, e.Message)
	}
	return fmt.Sprintf("panic: %v", e.Panic)
}

// IllegalStateError indicates an operation was attempted in a state that does not permit it
type IllegalStateError struct {
	Message string
}

func (e *IllegalStateError) Error() string {
	return e.Message
}

// ServiceNotFoundError occurs when no service is registered under the logical name
type ServiceNotFoundError struct {
	Name string
}

func (e *ServiceNotFoundError) Error() string {
	return fmt.Sprintf("service not found : %v", e.Name)
}
