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

// Package text_test contains unit tests for phrase normalization: the
// canonical form, its idempotency and totality guarantees, and the
// word-boundary property the space padding provides.
package text_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jaycherian/gcp-go-phrase-search/internal/core/text"
)

func TestNormalizeCanonicalForm(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"simple sentence", "Hello, World!", " hello world . "},
		{"terminator run", "What?! No...", " what . no . "},
		{"punctuation flattened", "co-operate (quietly)", " co operate quietly "},
		{"real newline", "I would trust Hagrid\nwith my life.", " i would trust hagrid with my life . "},
		{"escaped newline", `first\nsecond`, " first second "},
		{"whitespace runs", "  a \t b  ", " a b "},
		{"apostrophe preserved", "Don't panic", " don't panic "},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, text.Normalize(tc.in))
		})
	}
}

// Every output must be lower-case and space padded, for any input.
func TestNormalizeTotality(t *testing.T) {
	inputs := []string{"", "   ", "!!!", "...", "\\n", "ümlaut ÉTÉ", "1234"}
	for _, in := range inputs {
		out := text.Normalize(in)
		assert.True(t, strings.HasPrefix(out, " "), "missing leading pad for %q", in)
		assert.True(t, strings.HasSuffix(out, " "), "missing trailing pad for %q", in)
		assert.Equal(t, strings.ToLower(out), out, "not lower-cased for %q", in)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Hello, World!",
		"What?! No...",
		"I would trust Hagrid\nwith my life.",
		"",
		"Don't panic",
	}
	for _, in := range inputs {
		once := text.Normalize(in)
		assert.Equal(t, once, text.Normalize(once), "not idempotent for %q", in)
	}
}

// The space padding turns word-boundary search into plain containment:
// " hat " must not be found inside " that ", but must be found when "hat"
// stands alone.
func TestNormalizeWordBoundaries(t *testing.T) {
	needle := text.Normalize("hat")
	assert.NotContains(t, text.Normalize("that"), needle)
	assert.Contains(t, text.Normalize("a hat b"), needle)
	assert.Contains(t, text.Normalize("Hat!"), needle)
}

// Terminators must keep containment from crossing sentence boundaries.
func TestNormalizeSentenceBoundary(t *testing.T) {
	phrase := text.Normalize("I agree. Completely wrong.")
	assert.NotContains(t, phrase, text.Normalize("agree completely"))
	assert.Contains(t, phrase, text.Normalize("completely wrong"))
}

func TestQueryWords(t *testing.T) {
	assert.Equal(t, []string{"hello", "world"}, text.QueryWords(text.Normalize("Hello, World!")))
	assert.Equal(t, []string{"hi", "there"}, text.QueryWords(text.Normalize("Hi. There")))
	assert.Empty(t, text.QueryWords(text.Normalize("?!")))
	assert.Empty(t, text.QueryWords(text.Normalize("")))
}
