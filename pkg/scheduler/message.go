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
	"time"

	"github.com/nats-io/nuid"
)

// Message is routed between services by logical name.
// Messages are immutable once enqueued.
type Message interface {
	// ID is the unique message id
	ID() string

	// Type is the message type tag, derived from the concrete message kind
	Type() string

	// Created is the message creation timestamp
	Created() time.Time
}

// Envelope carries the Message identity. Concrete message kinds embed it:
//
//	type RawText struct {
//		scheduler.Envelope
//		Text string
//	}
//
//	msg := RawText{Envelope: scheduler.NewEnvelope("raw"), Text: "x"}
type Envelope struct {
	id      string
	msgType string
	created time.Time
}

// NewEnvelope creates a new Envelope with a unique id and the creation timestamp set to now
func NewEnvelope(msgType string) Envelope {
	return Envelope{
		id:      nuid.Next(),
		msgType: msgType,
		created: time.Now(),
	}
}

// ID returns the unique message id
func (a Envelope) ID() string {
	return a.id
}

// Type returns the message type tag
func (a Envelope) Type() string {
	return a.msgType
}

// Created returns the message creation timestamp
func (a Envelope) Created() time.Time {
	return a.created
}
