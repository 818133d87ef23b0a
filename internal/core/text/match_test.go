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

package text_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/gcp-go-phrase-search/internal/core/text"
)

func TestExtractMatchSingleWord(t *testing.T) {
	got := text.ExtractMatch(text.Normalize("bananas"), "Bananas!")
	assert.Equal(t, "Bananas", got)
}

// The extracted span keeps the original casing, punctuation, and line break.
func TestExtractMatchMultiWordAcrossLineBreak(t *testing.T) {
	full := "I would trust Hagrid\nwith my life."
	got := text.ExtractMatch(text.Normalize("hagrid with my life"), full)
	assert.Equal(t, "Hagrid\nwith my life", got)
}

func TestExtractMatchPunctuatedGap(t *testing.T) {
	full := "Well, well... Potter."
	got := text.ExtractMatch(text.Normalize("well potter"), full)
	assert.Equal(t, "Well, well... Potter", got)
}

func TestExtractMatchNoMatch(t *testing.T) {
	assert.Equal(t, "", text.ExtractMatch(text.Normalize("dragon"), "Bananas!"))
}

func TestExtractMatchEmptyQuery(t *testing.T) {
	assert.Equal(t, "", text.ExtractMatch(text.Normalize("?!"), "Bananas!"))
}

// A single-word highlight may land inside a longer word; the store's
// padded-containment filter is what enforces word boundaries, not the
// highlighter.
func TestExtractMatchInsideLongerWord(t *testing.T) {
	assert.Equal(t, "hat", text.ExtractMatch(text.Normalize("hat"), "That one"))
}

func TestSubphrases(t *testing.T) {
	got := text.Subphrases(text.Normalize("hello brave world"))
	assert.ElementsMatch(t, []string{
		"hello", "brave", "world",
		"hello brave", "brave world",
		"hello brave world",
	}, got)
}

// Sub-phrases never span a sentence terminator.
func TestSubphrasesSentenceBound(t *testing.T) {
	got := text.Subphrases(text.Normalize("Hi. There"))
	assert.ElementsMatch(t, []string{"hi", "there"}, got)
	assert.NotContains(t, got, "hi there")
}
