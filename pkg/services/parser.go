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

	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/logging"
	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/scheduler"
)

// NewParser returns a service that parses RawText messages from its inbox
// and forwards the ParsedText result to the target service.
//
// A message of any other kind is a step failure. A full target inbox is
// logged and the parsed message is dropped.
func NewParser(name string, target string, periodMillis int64) *scheduler.Service {
	return scheduler.NewService(scheduler.Settings{
		Descriptor:   scheduler.NewDescriptor(name, "1.0.0"),
		PeriodMillis: periodMillis,
		Handle: func(ctx *scheduler.Context, msg scheduler.Message) error {
			raw, ok := msg.(*RawText)
			if !ok {
				return fmt.Errorf("unexpected message type : %v", msg.Type())
			}
			if !ctx.Send(target, NewParsedText(raw)) {
				log := ctx.Logger()
				log.Warn().Str(logging.TARGET, target).
					Str("msg_id", raw.ID()).
					Msg("forward failed - parsed message dropped")
			}
			return nil
		},
	})
}
