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
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/services"
)

// PhraseCreateCommand bulk-inserts one inactive phrase row per subtitle
// entry. Rows are created before any media work happens; the upload step
// activates them one by one as clips land in storage. Rows that never get
// activated are left behind on failure and ignored by search.
type PhraseCreateCommand struct {
	cor.BaseCommand
	phrases *services.PhraseService
}

func NewPhraseCreateCommand(name string, phrases *services.PhraseService) *PhraseCreateCommand {
	return &PhraseCreateCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		phrases:     phrases,
	}
}

func (c *PhraseCreateCommand) Execute(context cor.Context) {
	entries := context.Get(c.GetInputParam()).([]*model.SubtitleEntry)
	request := context.Get(ParamIngestionRequest).(*model.SceneIngestionRequest)

	creates := make([]*model.PhraseCreate, 0, len(entries))
	for _, entry := range entries {
		creates = append(creates, &model.PhraseCreate{
			MovieID:        request.MovieID,
			FullText:       entry.Text,
			NormalizedText: entry.NormalizedText,
			StartInMovie:   entry.Start,
			EndInMovie:     entry.End,
			Active:         false,
		})
	}

	phrases, err := c.phrases.BulkCreate(context.GetContext(), creates)
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(ParamPhrases, phrases)
	context.Add(cor.CtxOut, phrases)
}
