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
	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/logging"
)

// DefaultInboxCapacity is used when an inbox is created with a non-positive capacity
const DefaultInboxCapacity = 256

// Inbox is a bounded FIFO of messages addressed to one service.
// It is safe for concurrent producers and a single consumer.
// Offer and Poll never block.
type Inbox struct {
	messages chan Message
}

// NewInbox creates an Inbox with the given capacity.
// A non-positive capacity is replaced by DefaultInboxCapacity.
func NewInbox(capacity int) *Inbox {
	if capacity <= 0 {
		logger.Warn().Str(logging.FUNC, "NewInbox").
			Int("capacity", capacity).
			Msgf("invalid capacity - using default : %d", DefaultInboxCapacity)
		capacity = DefaultInboxCapacity
	}
	return &Inbox{messages: make(chan Message, capacity)}
}

// Offer enqueues the message.
// It returns false when the message is nil or the inbox is full - the caller decides what to do with the rejected message.
func (a *Inbox) Offer(msg Message) bool {
	if msg == nil {
		logger.Warn().Str(logging.FUNC, "Offer").Msg("rejecting nil message")
		return false
	}
	select {
	case a.messages <- msg:
		return true
	default:
		return false
	}
}

// Poll dequeues the head message.
// It returns false when the inbox is empty.
func (a *Inbox) Poll() (Message, bool) {
	select {
	case msg := <-a.messages:
		return msg, true
	default:
		return nil, false
	}
}

// Size returns the number of enqueued messages
func (a *Inbox) Size() int {
	return len(a.messages)
}

// IsEmpty returns true if no messages are enqueued
func (a *Inbox) IsEmpty() bool {
	return len(a.messages) == 0
}

// Capacity returns the fixed inbox capacity
func (a *Inbox) Capacity() int {
	return cap(a.messages)
}
