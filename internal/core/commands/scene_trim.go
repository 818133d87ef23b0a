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
	"bytes"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/jaycherian/gcp-go-phrase-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/model"
)

// SceneTrimCommand cuts one clip per phrase out of the staged movie with
// FFmpeg. Cuts are grouped into batches and each batch becomes a single
// FFmpeg invocation with one input and many trimmed outputs, so the source
// file is opened and probed once per batch instead of once per phrase.
// Batches run sequentially; FFmpeg already saturates its cores on one run.
type SceneTrimCommand struct {
	cor.BaseCommand
	commandPath string
	batchSize   int
	audioGain   float64
}

// NewSceneTrimCommand creates the trim step. commandPath locates the FFmpeg
// binary, batchSize caps cuts per invocation, and audioGain is the volume
// multiplier applied to every clip's audio track.
func NewSceneTrimCommand(name, commandPath string, batchSize int, audioGain float64) *SceneTrimCommand {
	if batchSize < 1 {
		batchSize = 1
	}
	return &SceneTrimCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		commandPath: commandPath,
		batchSize:   batchSize,
		audioGain:   audioGain,
	}
}

func (c *SceneTrimCommand) GetInputParam() string {
	return ParamMediaFile
}

func (c *SceneTrimCommand) Execute(context cor.Context) {
	source := context.Get(c.GetInputParam()).(string)
	phrases := context.Get(ParamPhrases).([]*model.Phrase)
	workDir := context.Get(ParamWorkDir).(string)
	extension := context.Get(ParamMediaExtension).(string)

	cuts := make([]*model.SceneCut, 0, len(phrases))
	for _, phrase := range phrases {
		cuts = append(cuts, &model.SceneCut{
			PhraseID: phrase.ID,
			Start:    phrase.StartInMovie,
			End:      phrase.EndInMovie,
			Output:   filepath.Join(workDir, phrase.ID+extension),
		})
	}

	for start := 0; start < len(cuts); start += c.batchSize {
		end := min(start+c.batchSize, len(cuts))
		if err := c.runBatch(context, source, cuts[start:end]); err != nil {
			c.GetErrorCounter().Add(context.GetContext(), 1)
			context.AddError(c.GetName(), err)
			return
		}
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(cor.CtxOut, cuts)
}

func (c *SceneTrimCommand) runBatch(context cor.Context, source string, batch []*model.SceneCut) error {
	args := TrimArgs(source, batch, c.audioGain)
	cmd := exec.CommandContext(context.GetContext(), c.commandPath, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg trim failed: %w: %s", err, stderr.String())
	}
	return nil
}

// TrimArgs builds the FFmpeg argument list for one batch: a single input
// followed by a seek/volume/stop/output group per cut.
func TrimArgs(source string, cuts []*model.SceneCut, audioGain float64) []string {
	args := []string{"-y", "-i", source}
	for _, cut := range cuts {
		args = append(args,
			"-ss", formatSeconds(cut.Start),
			"-filter:a", fmt.Sprintf("volume=%g", audioGain),
			"-to", formatSeconds(cut.End),
			cut.Output,
		)
	}
	return args
}

func formatSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
