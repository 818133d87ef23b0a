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

package text

import "strings"

// Subphrases enumerates every contiguous word sequence of the normalized
// text, one sentence at a time. Terminator tokens bound the enumeration the
// same way they bound word-boundary search, so a sub-phrase never spans a
// sentence break. The analytics service counts the distinct results across a
// movie's phrases as a rough vocabulary-richness signal.
func Subphrases(normalizedText string) []string {
	out := make([]string, 0)
	for _, sentence := range strings.Split(normalizedText, Terminator) {
		words := strings.Fields(sentence)
		for i := 0; i < len(words); i++ {
			for j := i + 1; j <= len(words); j++ {
				out = append(out, strings.Join(words[i:j], " "))
			}
		}
	}
	return out
}
