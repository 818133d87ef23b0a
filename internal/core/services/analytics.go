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
	"fmt"
	"time"

	"github.com/jaycherian/gcp-go-phrase-search/internal/core/model"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/text"
)

// AnalyticsService aggregates phrase statistics per movie. Counts and
// durations come straight from SQL; the unique-subphrase count enumerates
// every contiguous word run in each phrase in Go, since that expansion has no
// reasonable SQL form.
type AnalyticsService struct {
	store *Store
}

// NewAnalyticsService creates an analytics service on top of the given store.
func NewAnalyticsService(store *Store) *AnalyticsService {
	return &AnalyticsService{store: store}
}

// ForMovie computes phrase statistics for one movie.
func (s *AnalyticsService) ForMovie(ctx context.Context, movieID string) (*model.MovieAnalytics, error) {
	var (
		count      int
		durationMs int64
	)
	if err := s.store.db.QueryRowContext(ctx, QryMoviePhraseStats, movieID).Scan(&count, &durationMs); err != nil {
		return nil, fmt.Errorf("movie phrase stats: %w", err)
	}

	rows, err := s.store.db.QueryContext(ctx, QryMoviePhraseTexts, movieID)
	if err != nil {
		return nil, fmt.Errorf("movie phrase texts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	unique := make(map[string]struct{})
	for rows.Next() {
		var normalized string
		if err := rows.Scan(&normalized); err != nil {
			return nil, fmt.Errorf("scan phrase text: %w", err)
		}
		for _, sub := range text.Subphrases(normalized) {
			unique[sub] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &model.MovieAnalytics{
		MovieID:              movieID,
		PhrasesCount:         count,
		PhrasesDuration:      time.Duration(durationMs) * time.Millisecond,
		UniqueSubphraseCount: len(unique),
	}, nil
}
