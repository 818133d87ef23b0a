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

package commands_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/gcp-go-phrase-search/internal/core/commands"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/model"
)

func TestTrimArgsSingleCut(t *testing.T) {
	cuts := []*model.SceneCut{{
		PhraseID: "p1",
		Start:    30 * time.Second,
		End:      33*time.Second + 500*time.Millisecond,
		Output:   "/work/p1.mp4",
	}}

	args := commands.TrimArgs("/work/source.mp4", cuts, 1.5)
	assert.Equal(t, []string{
		"-y", "-i", "/work/source.mp4",
		"-ss", "30.000",
		"-filter:a", "volume=1.5",
		"-to", "33.500",
		"/work/p1.mp4",
	}, args)
}

// One invocation carries every cut of the batch against a single input.
func TestTrimArgsBatch(t *testing.T) {
	cuts := []*model.SceneCut{
		{PhraseID: "p1", Start: time.Second, End: 2 * time.Second, Output: "/work/p1.mkv"},
		{PhraseID: "p2", Start: 3 * time.Second, End: 4 * time.Second, Output: "/work/p2.mkv"},
	}

	args := commands.TrimArgs("/work/source.mkv", cuts, 2)
	assert.Equal(t, "volume=2", args[6])
	assert.Contains(t, args, "/work/p1.mkv")
	assert.Contains(t, args, "/work/p2.mkv")
	// Exactly one input flag.
	count := 0
	for _, a := range args {
		if a == "-i" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
