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
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jaycherian/gcp-go-phrase-search/internal/core/subtitle"
)

// newShiftSubtitlesCommand rewrites an SRT file with every timing shifted by
// a fixed offset, for fixing subtitles that run ahead of or behind the video.
func newShiftSubtitlesCommand() *cobra.Command {
	var (
		inPath  string
		outPath string
		shift   float64
	)

	cmd := &cobra.Command{
		Use:   "shift-subtitles",
		Short: "Shift every timing in an SRT file by a fixed offset",
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(inPath)
			if err != nil {
				return fmt.Errorf("read subtitles: %w", err)
			}
			// No entry cap here: a timing fix must cover the whole file.
			entries, err := subtitle.Parse(content, shift, shift, 0)
			if err != nil {
				return err
			}

			target := outPath
			if target == "" {
				target = inPath
			}
			if err := os.WriteFile(target, []byte(subtitle.Compose(entries)), 0o644); err != nil {
				return fmt.Errorf("write subtitles: %w", err)
			}

			cmd.Printf("shifted %d entries by %gs into %s\n", len(entries), shift, target)
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "path to the SRT file to shift (required)")
	cmd.Flags().StringVar(&outPath, "out", "", "output path (defaults to rewriting --in)")
	cmd.Flags().Float64Var(&shift, "shift", 0, "seconds added to every timing (may be negative)")
	_ = cmd.MarkFlagRequired("in")

	return cmd
}
