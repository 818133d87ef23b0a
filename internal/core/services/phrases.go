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

package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-phrase-search/internal/cloud"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/model"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/text"
)

// PhraseService manages phrase rows and the scene clips attached to them.
// Row deletion also removes the corresponding clip from object storage, so
// the catalog never points at objects that exist without a row, only the
// reverse (orphaned inactive rows are tolerated after failed pipeline runs).
type PhraseService struct {
	store        *Store
	scenes       cloud.SceneStorage
	moviesPrefix string
}

// NewPhraseService creates a phrase service on top of the given store and
// scene storage. moviesPrefix is the object-key prefix clips live under.
func NewPhraseService(store *Store, scenes cloud.SceneStorage, moviesPrefix string) *PhraseService {
	return &PhraseService{store: store, scenes: scenes, moviesPrefix: moviesPrefix}
}

// Get returns the phrase with the given id, or ErrNotFound.
func (s *PhraseService) Get(ctx context.Context, id string) (*model.Phrase, error) {
	row := s.store.db.QueryRowContext(ctx, QryFindPhraseByID, id)
	phrase, err := scanPhrase(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("phrase %q: %w", id, ErrNotFound)
	}
	return phrase, err
}

// GetByMovieID returns every phrase of a movie ordered by start offset,
// active or not.
func (s *PhraseService) GetByMovieID(ctx context.Context, movieID string) ([]*model.Phrase, error) {
	rows, err := s.store.db.QueryContext(ctx, QryFindPhrasesByMovieID, movieID)
	if err != nil {
		return nil, fmt.Errorf("list phrases for movie %q: %w", movieID, err)
	}
	defer func() { _ = rows.Close() }()
	return collectPhrases(rows)
}

// BulkCreate inserts a batch of phrases in one transaction. Every record is
// validated before anything is written, so a bad interval anywhere in the
// batch leaves the catalog untouched.
func (s *PhraseService) BulkCreate(ctx context.Context, creates []*model.PhraseCreate) ([]*model.Phrase, error) {
	for _, c := range creates {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}

	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin phrase insert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	phrases := make([]*model.Phrase, 0, len(creates))
	for _, c := range creates {
		phrase := &model.Phrase{
			ID:             uuid.NewString(),
			MovieID:        c.MovieID,
			FullText:       c.FullText,
			NormalizedText: c.NormalizedText,
			StartInMovie:   c.StartInMovie,
			EndInMovie:     c.EndInMovie,
			Active:         c.Active,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		_, err := tx.ExecContext(ctx, QryInsertPhrase,
			phrase.ID, phrase.MovieID, phrase.FullText, phrase.NormalizedText,
			phrase.StartInMovie.Milliseconds(), phrase.EndInMovie.Milliseconds(),
			phrase.SceneKey, boolToInt(phrase.Active), timestamp(now), timestamp(now))
		if err != nil {
			return nil, fmt.Errorf("insert phrase %q: %w", phrase.FullText, err)
		}
		phrases = append(phrases, phrase)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit phrase insert: %w", err)
	}
	return phrases, nil
}

// Activate attaches a scene key to a phrase and makes it searchable. This is
// the only mutation a phrase receives after creation.
func (s *PhraseService) Activate(ctx context.Context, id, sceneKey string) error {
	if sceneKey == "" {
		return fmt.Errorf("phrase %q: scene key must not be empty", id)
	}
	res, err := s.store.db.ExecContext(ctx, QryActivatePhrase, sceneKey, timestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("activate phrase: %w", err)
	}
	return requireRow(res, fmt.Sprintf("phrase %q", id))
}

// Delete removes a phrase row and, if a scene clip is attached, the clip
// object. A storage failure after the row is gone is logged, not returned;
// the row is the source of truth.
func (s *PhraseService) Delete(ctx context.Context, id string) error {
	phrase, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	res, err := s.store.db.ExecContext(ctx, QryDeletePhrase, id)
	if err != nil {
		return fmt.Errorf("delete phrase: %w", err)
	}
	if err := requireRow(res, fmt.Sprintf("phrase %q", id)); err != nil {
		return err
	}
	if phrase.SceneKey != "" {
		if err := s.scenes.Delete(ctx, phrase.SceneKey); err != nil {
			slog.WarnContext(ctx, "failed to delete scene object",
				"phrase_id", id, "scene_key", phrase.SceneKey, "error", err)
		}
	}
	return nil
}

// DeleteByMovieID removes every phrase of a movie along with the movie's
// whole scene folder in object storage.
func (s *PhraseService) DeleteByMovieID(ctx context.Context, movieID string) error {
	if _, err := s.store.db.ExecContext(ctx, QryDeletePhrasesByMovieID, movieID); err != nil {
		return fmt.Errorf("delete phrases for movie %q: %w", movieID, err)
	}
	folder := s.moviesPrefix + "/" + movieID
	if err := s.scenes.DeleteFolder(ctx, folder); err != nil {
		slog.WarnContext(ctx, "failed to delete scene folder",
			"movie_id", movieID, "folder", folder, "error", err)
	}
	return nil
}

// Search returns active phrases whose normalized text contains the
// normalized query, one page at a time (page is 1-based). Each result
// carries MatchedText, the span of the original text that satisfied the
// query, for highlighting.
func (s *PhraseService) Search(ctx context.Context, query string, page, pageSize int) ([]*model.Phrase, error) {
	if page < 1 {
		page = 1
	}
	// Punctuation-only input normalizes to a bare terminator, which would
	// match nearly everything; a query with no words returns nothing.
	normalized := text.Normalize(query)
	if len(text.QueryWords(normalized)) == 0 {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx, QrySearchPhrases,
		escapeLike(normalized), pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, fmt.Errorf("search phrases: %w", err)
	}
	defer func() { _ = rows.Close() }()

	phrases, err := collectPhrases(rows)
	if err != nil {
		return nil, err
	}
	for _, p := range phrases {
		p.MatchedText = text.ExtractMatch(normalized, p.FullText)
	}
	return phrases, nil
}

// Export serializes every phrase of a movie for backup or migration.
func (s *PhraseService) Export(ctx context.Context, movieID string) ([]model.PhraseTransfer, error) {
	phrases, err := s.GetByMovieID(ctx, movieID)
	if err != nil {
		return nil, err
	}
	transfers := make([]model.PhraseTransfer, 0, len(phrases))
	for _, p := range phrases {
		transfers = append(transfers, model.PhraseTransfer{
			ID:             p.ID,
			FullText:       p.FullText,
			NormalizedText: p.NormalizedText,
			StartInMovie:   p.StartInMovie.Seconds(),
			EndInMovie:     p.EndInMovie.Seconds(),
			SceneKey:       p.SceneKey,
		})
	}
	return transfers, nil
}

// Import bulk-inserts previously exported phrase records into a movie. It is
// pure metadata transfer: no scene extraction runs, and a record is active
// only if it already names a scene key. Records without an id get a new one.
// Returns the number of rows inserted.
func (s *PhraseService) Import(ctx context.Context, movieID string, transfers []model.PhraseTransfer) (int, error) {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin phrase import: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, t := range transfers {
		start := secondsToDuration(t.StartInMovie)
		end := secondsToDuration(t.EndInMovie)
		if start >= end {
			return 0, fmt.Errorf("phrase %q: %w", t.FullText, model.ErrInvalidInterval)
		}
		id := t.ID
		if id == "" {
			id = uuid.NewString()
		}
		normalized := t.NormalizedText
		if normalized == "" {
			normalized = text.Normalize(t.FullText)
		}
		active := 0
		if t.SceneKey != "" {
			active = 1
		}
		_, err := tx.ExecContext(ctx, QryInsertPhrase,
			id, movieID, t.FullText, normalized,
			start.Milliseconds(), end.Milliseconds(),
			t.SceneKey, active, timestamp(now), timestamp(now))
		if err != nil {
			return 0, fmt.Errorf("import phrase %q: %w", t.FullText, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit phrase import: %w", err)
	}
	return len(transfers), nil
}

func scanPhrase(row rowScanner) (*model.Phrase, error) {
	var (
		phrase             model.Phrase
		startMs, endMs     int64
		active             int
		createdAt, updated string
	)
	err := row.Scan(&phrase.ID, &phrase.MovieID, &phrase.FullText, &phrase.NormalizedText,
		&startMs, &endMs, &phrase.SceneKey, &active, &createdAt, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan phrase: %w", err)
	}
	phrase.StartInMovie = time.Duration(startMs) * time.Millisecond
	phrase.EndInMovie = time.Duration(endMs) * time.Millisecond
	phrase.Active = active != 0
	if phrase.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if phrase.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return nil, err
	}
	return &phrase, nil
}

func collectPhrases(rows *sql.Rows) ([]*model.Phrase, error) {
	var phrases []*model.Phrase
	for rows.Next() {
		phrase, err := scanPhrase(rows)
		if err != nil {
			return nil, err
		}
		phrases = append(phrases, phrase)
	}
	return phrases, rows.Err()
}

// escapeLike protects LIKE metacharacters in user queries; the search
// statement declares '\' as its escape character.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
