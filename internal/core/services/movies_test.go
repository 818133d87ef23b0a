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

package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-phrase-search/internal/core/model"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/services"
)

func TestMovieLifecycle(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	movie, err := c.movies.Create(ctx, "The Philosopher's Stone")
	require.NoError(t, err)
	assert.NotEmpty(t, movie.ID)
	assert.Equal(t, model.MovieStatusPending, movie.Status)

	got, err := c.movies.Get(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, movie.Title, got.Title)
	assert.WithinDuration(t, time.Now(), got.CreatedAt, time.Minute)

	require.NoError(t, c.movies.Rename(ctx, movie.ID, "The Sorcerer's Stone"))
	require.NoError(t, c.movies.UpdateStatus(ctx, movie.ID, model.MovieStatusProcessing))

	got, err = c.movies.Get(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, "The Sorcerer's Stone", got.Title)
	assert.Equal(t, model.MovieStatusProcessing, got.Status)

	all, err := c.movies.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, c.movies.Delete(ctx, movie.ID))
	_, err = c.movies.Get(ctx, movie.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}

func TestMovieNotFound(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	_, err := c.movies.Get(ctx, "missing")
	assert.ErrorIs(t, err, services.ErrNotFound)
	assert.ErrorIs(t, c.movies.Rename(ctx, "missing", "x"), services.ErrNotFound)
	assert.ErrorIs(t, c.movies.UpdateStatus(ctx, "missing", model.MovieStatusError), services.ErrNotFound)
	assert.ErrorIs(t, c.movies.Delete(ctx, "missing"), services.ErrNotFound)
}

func TestMovieEmptyTitleRejected(t *testing.T) {
	c := newCatalog(t)
	_, err := c.movies.Create(context.Background(), "")
	assert.Error(t, err)
}

// Re-applying the current status is a no-op, not an error, so pipeline
// retries stay idempotent.
func TestMovieStatusIdempotent(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	movie, err := c.movies.Create(ctx, "Chamber of Secrets")
	require.NoError(t, err)

	require.NoError(t, c.movies.UpdateStatus(ctx, movie.ID, model.MovieStatusProcessed))
	require.NoError(t, c.movies.UpdateStatus(ctx, movie.ID, model.MovieStatusProcessed))

	got, err := c.movies.Get(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MovieStatusProcessed, got.Status)
}

// Deleting a movie cascades to its phrases through the schema.
func TestMovieDeleteCascadesPhrases(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	movie, err := c.movies.Create(ctx, "Prisoner of Azkaban")
	require.NoError(t, err)
	phrase := c.newPhrase(t, movie.ID, "Bananas!", 10*time.Second, 12*time.Second)

	require.NoError(t, c.movies.Delete(ctx, movie.ID))
	_, err = c.phrases.Get(ctx, phrase.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
}
