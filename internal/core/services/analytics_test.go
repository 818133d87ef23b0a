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

	"github.com/stretchr/testify/require"
	"github.com/zeebo/assert"
)

func TestAnalyticsForMovie(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	movie, err := c.movies.Create(ctx, "Analytics")
	require.NoError(t, err)
	c.newPhrase(t, movie.ID, "hello world", 10*time.Second, 12*time.Second)
	c.newPhrase(t, movie.ID, "hello again", 20*time.Second, 23*time.Second)

	got, err := c.analytics.ForMovie(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, movie.ID, got.MovieID)
	assert.Equal(t, 2, got.PhrasesCount)
	assert.Equal(t, 5*time.Second, got.PhrasesDuration)
	// Distinct sub-phrases: hello, world, again, hello world, hello again.
	assert.Equal(t, 5, got.UniqueSubphraseCount)
}

func TestAnalyticsEmptyMovie(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	movie, err := c.movies.Create(ctx, "Empty")
	require.NoError(t, err)

	got, err := c.analytics.ForMovie(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.PhrasesCount)
	assert.Equal(t, time.Duration(0), got.PhrasesDuration)
	assert.Equal(t, 0, got.UniqueSubphraseCount)
}
