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

// Package subtitle decodes SubRip (.srt) subtitle files into timed entries
// for the scene-extraction pipeline.
//
// The expected grammar is the conventional .srt block sequence:
//
//	1
//	00:01:02,500 --> 00:01:05,000
//	free text, possibly
//	over multiple lines
//	<blank line>
//
// Parsing also applies the optional global time shifts and truncates the
// result to a configured maximum entry count.
package subtitle

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-phrase-search/internal/core/model"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/text"
)

// timingPattern matches the srt timing line "HH:MM:SS,mmm --> HH:MM:SS,mmm".
// Some files in the wild use a dot as the millisecond separator; accept both.
var timingPattern = regexp.MustCompile(`^(\d+):(\d{2}):(\d{2})[,.](\d{1,3})\s*-->\s*(\d+):(\d{2}):(\d{2})[,.](\d{1,3})$`)

// ParseError reports malformed subtitle content. The orchestrator treats it
// as a pipeline failure.
type ParseError struct {
	Line   int
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("subtitle parse error at line %d: %s", e.Line, e.Reason)
}

// Parse decodes srt content into subtitle entries, applying the signed
// start/end shifts (in seconds) to every entry and truncating the result to
// maxEntries taken from the start of the file in original order. Entry text
// is normalized via the text package so the result can flow straight into
// phrase creation.
//
// An entry whose shifted interval is empty or inverted fails the interval
// invariant and surfaces as a parse error before anything else runs.
func Parse(content []byte, startShift, endShift float64, maxEntries int) ([]*model.SubtitleEntry, error) {
	scanner := bufio.NewScanner(bytes.NewReader(content))
	// Subtitle text lines stay well under the default token limit, but give
	// the scanner room for the occasional oversized block.
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	entries := make([]*model.SubtitleEntry, 0)
	line := 0

	for {
		// Skip blank separator lines between blocks.
		header, ok, n := nextNonBlank(scanner, line)
		line = n
		if !ok {
			break
		}

		// Block index. Tolerate a BOM on the first block.
		if _, err := strconv.Atoi(strings.TrimPrefix(header, "\uFEFF")); err != nil {
			return nil, &ParseError{Line: line, Reason: fmt.Sprintf("expected block index, got %q", header)}
		}

		if !scanner.Scan() {
			return nil, &ParseError{Line: line, Reason: "unexpected end of file after block index"}
		}
		line++
		timing := strings.TrimSpace(scanner.Text())
		m := timingPattern.FindStringSubmatch(timing)
		if m == nil {
			return nil, &ParseError{Line: line, Reason: fmt.Sprintf("malformed timing line %q", timing)}
		}

		start := timestamp(m[1], m[2], m[3], m[4])
		end := timestamp(m[5], m[6], m[7], m[8])

		// Collect the text block up to the next blank line or EOF.
		var textLines []string
		for scanner.Scan() {
			line++
			t := scanner.Text()
			if strings.TrimSpace(t) == "" {
				break
			}
			textLines = append(textLines, t)
		}
		if len(textLines) == 0 {
			return nil, &ParseError{Line: line, Reason: "subtitle block has no text"}
		}
		raw := strings.Join(textLines, "\n")

		start = applyShift(start, startShift)
		end = applyShift(end, endShift)

		entry, err := model.NewSubtitleEntry(start, end, raw, text.Normalize(raw))
		if err != nil {
			return nil, &ParseError{Line: line, Reason: err.Error()}
		}
		entries = append(entries, entry)

		// maxEntries == 0 means no cap.
		if maxEntries > 0 && len(entries) >= maxEntries {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read subtitle content: %w", err)
	}

	return entries, nil
}

// nextNonBlank advances the scanner past blank lines. It returns the first
// non-blank line, whether one was found, and the updated line counter.
func nextNonBlank(scanner *bufio.Scanner, line int) (string, bool, int) {
	for scanner.Scan() {
		line++
		t := strings.TrimSpace(scanner.Text())
		if t != "" {
			return t, true, line
		}
	}
	return "", false, line
}

// applyShift adds (positive) or subtracts (negative) the absolute shift to a
// timestamp. A zero shift leaves the value untouched; a shift past the start
// of the file clamps at zero so downstream trim offsets stay non-negative.
func applyShift(d time.Duration, shiftSeconds float64) time.Duration {
	if shiftSeconds == 0 {
		return d
	}
	delta := time.Duration(shiftSeconds * float64(time.Second))
	if d+delta < 0 {
		return 0
	}
	return d + delta
}

// timestamp assembles a duration from the captured hour, minute, second and
// millisecond fields. The fields already matched \d groups, so the
// conversions cannot fail.
func timestamp(h, m, s, ms string) time.Duration {
	hours, _ := strconv.Atoi(h)
	minutes, _ := strconv.Atoi(m)
	seconds, _ := strconv.Atoi(s)
	// Normalize 1-3 digit millisecond fields: "5" means 500ms in srt.
	for len(ms) < 3 {
		ms += "0"
	}
	millis, _ := strconv.Atoi(ms)

	return time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
}

// Compose renders entries back into srt text. The scenetool CLI uses it to
// rewrite subtitle files after shifting.
func Compose(entries []*model.SubtitleEntry) string {
	var b strings.Builder
	for i, e := range entries {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, FormatTimestamp(e.Start), FormatTimestamp(e.End), e.Text)
	}
	return b.String()
}

// FormatTimestamp renders a duration in the srt "HH:MM:SS,mmm" form.
func FormatTimestamp(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
