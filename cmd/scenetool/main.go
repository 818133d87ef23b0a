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

// Package main implements scenetool, a local command-line companion to the
// phrase catalog server. It runs the same subtitle parsing and FFmpeg
// trimming as the server pipeline, but entirely on local files: useful for
// previewing cuts before an upload and for fixing subtitle timing offsets.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "scenetool",
		Short:         "Cut scene clips and adjust subtitle timing on local files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newCreateScenesCommand())
	root.AddCommand(newShiftSubtitlesCommand())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
