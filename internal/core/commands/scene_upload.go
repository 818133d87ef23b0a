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
	"fmt"
	"os"

	"github.com/jaycherian/gcp-go-phrase-search/internal/cloud"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/model"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/services"
)

// SceneUploadCommand streams each trimmed clip to object storage and
// activates its phrase. Upload and activation happen per phrase, in order,
// so a failure partway leaves earlier phrases fully live and later ones
// inactive; there is never an active phrase without its clip in storage.
type SceneUploadCommand struct {
	cor.BaseCommand
	scenes       cloud.SceneStorage
	phrases      *services.PhraseService
	moviesPrefix string
}

func NewSceneUploadCommand(name string, scenes cloud.SceneStorage, phrases *services.PhraseService, moviesPrefix string) *SceneUploadCommand {
	return &SceneUploadCommand{
		BaseCommand:  *cor.NewBaseCommand(name),
		scenes:       scenes,
		phrases:      phrases,
		moviesPrefix: moviesPrefix,
	}
}

func (c *SceneUploadCommand) Execute(context cor.Context) {
	cuts := context.Get(c.GetInputParam()).([]*model.SceneCut)
	request := context.Get(ParamIngestionRequest).(*model.SceneIngestionRequest)
	extension := context.Get(ParamMediaExtension).(string)

	uploaded := 0
	for _, cut := range cuts {
		key := cloud.SceneKey(c.moviesPrefix, request.MovieID, cut.PhraseID, extension)
		if err := c.upload(context, cut, key); err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), err)
			return
		}
		uploaded++
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, uploaded)
}

func (c *SceneUploadCommand) upload(context cor.Context, cut *model.SceneCut, key string) error {
	clip, err := os.Open(cut.Output)
	if err != nil {
		return fmt.Errorf("open clip for phrase %q: %w", cut.PhraseID, err)
	}
	defer func() { _ = clip.Close() }()

	if err := c.scenes.Put(context.GetContext(), key, clip); err != nil {
		return fmt.Errorf("upload clip for phrase %q: %w", cut.PhraseID, err)
	}
	if err := c.phrases.Activate(context.GetContext(), cut.PhraseID, key); err != nil {
		return fmt.Errorf("activate phrase %q: %w", cut.PhraseID, err)
	}
	return nil
}
