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

// Package text implements phrase normalization and search-hit highlighting.
// This file contains the matched-substring extractor. Filtering itself
// happens in the catalog store via normalized-text containment; the
// extractor's only job is display quality: given a candidate row that
// already matched, return the span of its *original* text that satisfies
// the query, with original casing, punctuation, and line breaks intact.
package text

import (
	"regexp"
	"strings"
)

// ExtractMatch returns the substring of fullText that satisfies the
// normalized query, or the empty string when nothing matches.
//
// A single-word query becomes a case-insensitive search over the original
// text. A multi-word query becomes a sequential pattern requiring each word
// to appear in order, separated by short non-greedy gaps, so a phrase that
// spans a line break or minor punctuation in the original still comes back
// as one contiguous highlight. A query with no words yields no match.
func ExtractMatch(normalizedQuery, fullText string) string {
	words := QueryWords(normalizedQuery)
	if len(words) == 0 {
		return ""
	}

	var pattern strings.Builder
	// (?i) for case-insensitive matching of the original text, (?s) so the
	// gaps can cross line breaks inside the subtitle block.
	pattern.WriteString(`(?is)(`)
	pattern.WriteString(regexp.QuoteMeta(words[0]))
	for _, word := range words[1:] {
		// Non-greedy gap: tolerate intervening characters and words, but
		// take the shortest span that still reaches the next query word.
		pattern.WriteString(`.*?`)
		pattern.WriteString(regexp.QuoteMeta(word))
	}
	pattern.WriteString(`)`)

	re, err := regexp.Compile(pattern.String())
	if err != nil {
		// Query words are quoted, so this only trips on a pathological
		// pattern-size blowup; treat it as no match rather than failing the
		// search request.
		return ""
	}

	if m := re.FindStringSubmatch(fullText); m != nil {
		return m[1]
	}
	return ""
}
