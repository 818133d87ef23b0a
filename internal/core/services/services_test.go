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

// Package services_test contains tests for the catalog services, run against
// an in-memory SQLite store and an in-memory scene storage.
package services_test

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-phrase-search/internal/core/model"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/services"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/text"
	test "github.com/jaycherian/gcp-go-phrase-search/internal/testutil"
)

// catalog bundles a fresh in-memory store with every service under test.
type catalog struct {
	store     *services.Store
	scenes    *test.FakeSceneStorage
	movies    *services.MovieService
	phrases   *services.PhraseService
	issues    *services.IssueService
	analytics *services.AnalyticsService
}

func newCatalog(t *testing.T) *catalog {
	t.Helper()
	store, err := services.OpenStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	scenes := test.NewFakeSceneStorage()
	return &catalog{
		store:     store,
		scenes:    scenes,
		movies:    services.NewMovieService(store),
		phrases:   services.NewPhraseService(store, scenes, "movies"),
		issues:    services.NewIssueService(store, 60, 10),
		analytics: services.NewAnalyticsService(store),
	}
}

// newPhrase inserts one phrase via BulkCreate and returns it.
func (c *catalog) newPhrase(t *testing.T, movieID, fullText string, start, end time.Duration) *model.Phrase {
	t.Helper()
	phrases, err := c.phrases.BulkCreate(context.Background(), []*model.PhraseCreate{{
		MovieID:        movieID,
		FullText:       fullText,
		NormalizedText: text.Normalize(fullText),
		StartInMovie:   start,
		EndInMovie:     end,
	}})
	require.NoError(t, err)
	require.Len(t, phrases, 1)
	return phrases[0]
}

func bytesReader(s string) io.Reader {
	return strings.NewReader(s)
}
