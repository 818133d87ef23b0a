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

// Package text implements the canonical phrase normalization used for search
// filtering, and the matched-substring extraction used for highlighting
// search hits. Both the ingestion pipeline (to populate a phrase's
// normalized text at creation time) and the catalog's search path (to
// normalize the query and highlight results) depend on this package, so it
// has to stay pure and deterministic.
package text

import (
	"regexp"
	"strings"
)

// The normalizer runs a fixed sequence of replacements. Every pattern is
// compiled once at init; Normalize itself does no allocation beyond the
// rewritten string.
var (
	// punctuationPattern matches the fixed set of punctuation characters that
	// are flattened to spaces. Sentence terminators (!?.) are handled
	// separately so they can become terminator tokens instead.
	punctuationPattern = regexp.MustCompile("[#$%&()*+,/:;<=>@\\[\\]^\\\\_`{|}~\\-\"]")

	// terminatorPattern collapses any run of sentence-ending punctuation into
	// a single ". " terminator.
	terminatorPattern = regexp.MustCompile(`[?!.]+`)

	// whitespacePattern collapses runs of whitespace (including the newlines
	// introduced in step one) into a single space.
	whitespacePattern = regexp.MustCompile(`\s+`)

	// terminatorSpacing pads every terminator with exactly one space on each
	// side so a word-boundary containment check can never match across a
	// sentence boundary.
	terminatorSpacing = regexp.MustCompile(`\s*\.\s*`)
)

// Terminator is the sentence-boundary token emitted by Normalize. Search
// queries strip it before word splitting.
const Terminator = "."

// Normalize converts raw subtitle or query text into its canonical search
// form. It is total (never fails, any input accepted) and idempotent:
// Normalize(Normalize(s)) == Normalize(s).
//
// The resulting string is lower-case, has all configured punctuation
// flattened to spaces, has runs of !?. collapsed into a single padded "."
// terminator, and is padded with one leading and one trailing space. The
// padding means a word-boundary check is a plain substring test: searching
// for " hat " inside " that " cannot match, while " a hat b " contains it.
func Normalize(phrase string) string {
	// Literal backslash-n sequences show up in subtitle text that has been
	// through JSON or srt escaping; treat them like real newlines.
	phrase = strings.ReplaceAll(phrase, `\n`, " ")

	phrase = punctuationPattern.ReplaceAllString(phrase, " ")
	phrase = terminatorPattern.ReplaceAllString(phrase, ". ")
	phrase = whitespacePattern.ReplaceAllString(phrase, " ")
	phrase = terminatorSpacing.ReplaceAllString(phrase, " . ")

	phrase = strings.TrimSpace(strings.ToLower(phrase))

	return " " + phrase + " "
}

// QueryWords splits a normalized query into its search words, dropping
// terminator tokens. The result is what the match extractor builds its
// pattern from; an empty slice means the query has no searchable content.
func QueryWords(normalizedQuery string) []string {
	stripped := strings.ReplaceAll(normalizedQuery, " "+Terminator+" ", " ")
	stripped = strings.Trim(stripped, " "+Terminator)
	return strings.Fields(stripped)
}
