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

// Package model defines the core data structures for the application.
// This file, `transient.go`, contains struct definitions for data models that
// are only used in memory while a pipeline run is executing. These objects
// are never persisted in their current form; they serve as intermediate
// containers for data as it is parsed, transformed, and passed between the
// commands of a workflow chain.
package model

import (
	"io"
	"time"
)

// These objects are used in memory via workflows, but are not persisted.

// SubtitleEntry is a single timed text block decoded from a subtitle file.
// The subtitle parser produces a bounded list of these; the orchestrator
// consumes them immediately to build phrase-creation requests and then
// discards them.
type SubtitleEntry struct {
	Start          time.Duration
	End            time.Duration
	Text           string
	NormalizedText string
}

// NewSubtitleEntry constructs an entry and enforces the interval invariant.
// Shift application can invert an interval, so the check runs after shifting.
func NewSubtitleEntry(start, end time.Duration, text, normalizedText string) (*SubtitleEntry, error) {
	if start >= end {
		return nil, ErrInvalidInterval
	}
	return &SubtitleEntry{Start: start, End: end, Text: text, NormalizedText: normalizedText}, nil
}

// SceneIngestionRequest is the input to one scene-extraction pipeline run.
// Media is a stream so large uploads are staged to disk in bounded chunks
// rather than buffered whole in memory.
type SceneIngestionRequest struct {
	MovieID       string
	Media         io.Reader
	MediaFilename string
	Subtitles     []byte
	// StartShift and EndShift are signed offsets, in seconds, applied
	// uniformly to every entry's start and end time respectively.
	StartShift float64
	EndShift   float64
}

// SceneCut pairs a created phrase with the clip file the scene extractor must
// produce for it. Output names are derived from the phrase ID plus the source
// media's extension so the upload step can find each clip deterministically.
type SceneCut struct {
	PhraseID string
	Start    time.Duration
	End      time.Duration
	Output   string
}
