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

// Package services provides concrete services built on the runtime: a
// parser that transforms raw text messages and a recorder that appends
// received payloads to a writer.
package services

import (
	"strings"

	"github.com/SebastianCikes/DynamicMultithreadingProcessing/pkg/scheduler"
)

// message type tags
const (
	RawTextType    = "raw_text"
	ParsedTextType = "parsed_text"
)

// RawText is an unparsed text payload
type RawText struct {
	scheduler.Envelope
	Text string
}

// NewRawText creates a RawText message
func NewRawText(text string) *RawText {
	return &RawText{Envelope: scheduler.NewEnvelope(RawTextType), Text: text}
}

// ParsedText is the parser's output: the source text tokenized into fields
type ParsedText struct {
	scheduler.Envelope
	// SourceID is the id of the RawText message this was parsed from
	SourceID string
	Fields   []string
}

// NewParsedText tokenizes the raw message's text
func NewParsedText(raw *RawText) *ParsedText {
	return &ParsedText{
		Envelope: scheduler.NewEnvelope(ParsedTextType),
		SourceID: raw.ID(),
		Fields:   strings.Fields(raw.Text),
	}
}
