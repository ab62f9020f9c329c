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

package services

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/scheduler"
)

// Recorder appends a line per received message to a writer.
type Recorder struct {
	*scheduler.Service

	mutex sync.Mutex
	out   io.Writer
	count int
}

// NewRecorder returns a recorder service writing to out. A nil writer
// counts messages without writing.
func NewRecorder(name string, out io.Writer, periodMillis int64) *Recorder {
	a := &Recorder{out: out}
	a.Service = scheduler.NewService(scheduler.Settings{
		Descriptor:   scheduler.NewDescriptor(name, "1.0.0"),
		PeriodMillis: periodMillis,
		Handle:       a.handle,
	})
	return a
}

func (a *Recorder) handle(ctx *scheduler.Context, msg scheduler.Message) error {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	if a.out != nil {
		if _, err := fmt.Fprintln(a.out, format(msg)); err != nil {
			return err
		}
	}
	a.count++
	return nil
}

// Count returns the number of messages recorded so far
func (a *Recorder) Count() int {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.count
}

func format(msg scheduler.Message) string {
	switch m := msg.(type) {
	case *ParsedText:
		return fmt.Sprintf("%s %s", m.Type(), strings.Join(m.Fields, " "))
	case *RawText:
		return fmt.Sprintf("%s %s", m.Type(), m.Text)
	default:
		return msg.Type()
	}
}
