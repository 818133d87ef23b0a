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

// Package model defines the core data structures for the application. This
// file contains the persistent entities of the phrase catalog: movies, the
// phrases extracted from their subtitles, and user-reported phrase issues.
// These structs map directly onto rows in the relational catalog store.
package model

import (
	"errors"
	"fmt"
	"time"
)

// MovieStatus is the coarse processing state of a movie's scene-extraction
// pipeline. The pipeline orchestrator is the only writer of this value while
// an extraction run is in flight.
type MovieStatus string

// Movie processing states. A movie starts as pending, is moved to processing
// when a pipeline run begins, and ends in either processed or error. There is
// no cancelled state; a failed run is retried from scratch.
const (
	MovieStatusPending    MovieStatus = "pending"
	MovieStatusProcessing MovieStatus = "processing"
	MovieStatusProcessed  MovieStatus = "processed"
	MovieStatusError      MovieStatus = "error"
)

// ErrInvalidInterval is returned whenever a phrase or subtitle entry is
// constructed with a start offset that is not strictly before its end offset.
// The check runs at construction time, before any persistence or file I/O.
var ErrInvalidInterval = errors.New("start time must be less than end time")

// Movie is a catalog entry that phrases belong to.
type Movie struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Status    MovieStatus `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Phrase is a subtitle-aligned text span within a movie, optionally backed by
// a short video clip ("scene") stored in object storage.
//
// Lifecycle: phrases are created inactive, in a batch, at pipeline start.
// They are mutated exactly once afterwards, by the orchestrator, to attach
// the scene key and flip Active. A phrase with Active set always carries a
// non-empty SceneKey.
type Phrase struct {
	ID             string        `json:"id"`
	MovieID        string        `json:"movie_id"`
	FullText       string        `json:"full_text"`
	NormalizedText string        `json:"normalized_text"`
	StartInMovie   time.Duration `json:"start_in_movie"`
	EndInMovie     time.Duration `json:"end_in_movie"`
	SceneKey       string        `json:"scene_key,omitempty"`
	Active         bool          `json:"active"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`

	// MatchedText is only populated on search results. It holds the span of
	// FullText that satisfied the query, preserving original casing and
	// punctuation for display. Never persisted.
	MatchedText string `json:"matched_text,omitempty"`
}

// Duration returns the length of the phrase's interval within the movie.
func (p *Phrase) Duration() time.Duration {
	return p.EndInMovie - p.StartInMovie
}

// PhraseCreate carries the fields needed to insert a new phrase row. The
// interval invariant is enforced by Validate before anything is written.
type PhraseCreate struct {
	MovieID        string        `json:"movie_id"`
	FullText       string        `json:"full_text"`
	NormalizedText string        `json:"normalized_text"`
	StartInMovie   time.Duration `json:"start_in_movie"`
	EndInMovie     time.Duration `json:"end_in_movie"`
	Active         bool          `json:"active"`
}

// Validate checks the interval invariant for a new phrase.
func (p *PhraseCreate) Validate() error {
	if p.StartInMovie >= p.EndInMovie {
		return fmt.Errorf("phrase %q: %w", p.FullText, ErrInvalidInterval)
	}
	return nil
}

// PhraseTransfer is the serialized form used by the export/import endpoints
// for backup and migration. Offsets travel as fractional seconds. The ID is
// optional on import; records without one are inserted as new rows. Import is
// a pure metadata bulk-insert and never re-runs the extraction pipeline.
type PhraseTransfer struct {
	ID             string  `json:"id,omitempty"`
	FullText       string  `json:"full_text"`
	NormalizedText string  `json:"normalized_text"`
	StartInMovie   float64 `json:"start_in_movie"`
	EndInMovie     float64 `json:"end_in_movie"`
	SceneKey       string  `json:"scene_key,omitempty"`
}

// PhraseIssue is a user report that a phrase or its scene clip is wrong
// (bad timing, missing audio, mismatched text).
type PhraseIssue struct {
	ID        string    `json:"id"`
	PhraseID  string    `json:"phrase_id"`
	IssuerIP  string    `json:"issuer_ip"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// MovieAnalytics aggregates phrase statistics for a single movie.
type MovieAnalytics struct {
	MovieID              string        `json:"movie_id"`
	PhrasesCount         int           `json:"phrases_count"`
	PhrasesDuration      time.Duration `json:"phrases_duration"`
	UniqueSubphraseCount int           `json:"unique_subphrases_count"`
}
