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

package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-phrase-search/internal/core/commands"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/model"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/subtitle"
)

// newCreateScenesCommand cuts one clip per subtitle entry from a local movie
// file, the same way the server pipeline does, writing the clips into an
// output directory. With --write-subtitles each clip also gets a sidecar SRT
// containing its entry re-timed to the clip.
func newCreateScenesCommand() *cobra.Command {
	var (
		moviePath     string
		subtitlePath  string
		outDir        string
		ffmpegPath    string
		volume        float64
		limit         int
		batchSize     int
		startShift    float64
		endShift      float64
		withSubtitles bool
	)

	cmd := &cobra.Command{
		Use:   "create-scenes",
		Short: "Cut a clip per subtitle entry from a local movie file",
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(subtitlePath)
			if err != nil {
				return fmt.Errorf("read subtitles: %w", err)
			}
			entries, err := subtitle.Parse(content, startShift, endShift, limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("no subtitle entries in %s", subtitlePath)
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			extension := filepath.Ext(moviePath)
			cuts := make([]*model.SceneCut, 0, len(entries))
			for i, entry := range entries {
				cuts = append(cuts, &model.SceneCut{
					PhraseID: fmt.Sprintf("scene-%04d", i+1),
					Start:    entry.Start,
					End:      entry.End,
					Output:   filepath.Join(outDir, fmt.Sprintf("scene-%04d%s", i+1, extension)),
				})
			}

			for start := 0; start < len(cuts); start += batchSize {
				end := min(start+batchSize, len(cuts))
				if err := runTrim(cmd, ffmpegPath, moviePath, cuts[start:end], volume); err != nil {
					return err
				}
			}

			if withSubtitles {
				if err := writeSidecars(outDir, entries); err != nil {
					return err
				}
			}

			cmd.Printf("wrote %d clips to %s\n", len(cuts), outDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&moviePath, "movie", "", "path to the movie file (required)")
	cmd.Flags().StringVar(&subtitlePath, "subtitles", "", "path to the SRT subtitle file (required)")
	cmd.Flags().StringVar(&outDir, "out", "scenes", "output directory for clips")
	cmd.Flags().StringVar(&ffmpegPath, "ffmpeg", "ffmpeg", "path to the ffmpeg binary")
	cmd.Flags().Float64Var(&volume, "volume", 1.5, "audio volume multiplier applied to each clip")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of subtitle entries to process")
	cmd.Flags().IntVar(&batchSize, "batch-size", 4, "cuts per ffmpeg invocation")
	cmd.Flags().Float64Var(&startShift, "start-shift", 0, "seconds added to every start time (may be negative)")
	cmd.Flags().Float64Var(&endShift, "end-shift", 0, "seconds added to every end time (may be negative)")
	cmd.Flags().BoolVar(&withSubtitles, "write-subtitles", false, "write a clip-relative SRT sidecar next to each clip")
	_ = cmd.MarkFlagRequired("movie")
	_ = cmd.MarkFlagRequired("subtitles")

	return cmd
}

func runTrim(cmd *cobra.Command, ffmpegPath, source string, batch []*model.SceneCut, volume float64) error {
	args := commands.TrimArgs(source, batch, volume)
	trim := exec.CommandContext(cmd.Context(), ffmpegPath, args...)

	var stderr bytes.Buffer
	trim.Stderr = &stderr
	if err := trim.Run(); err != nil {
		return fmt.Errorf("ffmpeg trim failed: %w: %s", err, stderr.String())
	}
	return nil
}

// writeSidecars emits one single-entry SRT per clip, re-timed so the entry
// starts at zero.
func writeSidecars(outDir string, entries []*model.SubtitleEntry) error {
	for i, entry := range entries {
		relative := &model.SubtitleEntry{
			Start:          0,
			End:            entry.End - entry.Start,
			Text:           entry.Text,
			NormalizedText: entry.NormalizedText,
		}
		path := filepath.Join(outDir, fmt.Sprintf("scene-%04d.srt", i+1))
		content := subtitle.Compose([]*model.SubtitleEntry{relative})
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write sidecar %s: %w", path, err)
		}
	}
	return nil
}
