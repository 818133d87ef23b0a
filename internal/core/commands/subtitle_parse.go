// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package commands

import (
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/model"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/subtitle"
)

// SubtitleParseCommand turns the raw SRT bytes of an ingestion request into
// validated, shifted, normalized subtitle entries. It runs first in the
// pipeline so a malformed subtitle file fails the run before any phrase rows
// or media files exist.
type SubtitleParseCommand struct {
	cor.BaseCommand
	maxEntries int
}

// NewSubtitleParseCommand creates the parse step. maxEntries caps how many
// subtitle entries a single run will process; entries past the cap are
// silently dropped.
func NewSubtitleParseCommand(name string, maxEntries int) *SubtitleParseCommand {
	return &SubtitleParseCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		maxEntries:  maxEntries,
	}
}

func (c *SubtitleParseCommand) GetInputParam() string {
	return ParamIngestionRequest
}

func (c *SubtitleParseCommand) Execute(context cor.Context) {
	request := context.Get(c.GetInputParam()).(*model.SceneIngestionRequest)

	entries, err := subtitle.Parse(request.Subtitles, request.StartShift, request.EndShift, c.maxEntries)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, entries)
}
