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
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/text"
)

func TestPhraseBulkCreateAllOrNothing(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	movie, err := c.movies.Create(ctx, "Goblet of Fire")
	require.NoError(t, err)

	// Second record is invalid, so nothing may be written.
	_, err = c.phrases.BulkCreate(ctx, []*model.PhraseCreate{
		{MovieID: movie.ID, FullText: "ok", NormalizedText: " ok ", StartInMovie: time.Second, EndInMovie: 2 * time.Second},
		{MovieID: movie.ID, FullText: "bad", NormalizedText: " bad ", StartInMovie: 2 * time.Second, EndInMovie: time.Second},
	})
	require.ErrorIs(t, err, model.ErrInvalidInterval)

	all, err := c.phrases.GetByMovieID(ctx, movie.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestPhraseActivation(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	movie, err := c.movies.Create(ctx, "Order of the Phoenix")
	require.NoError(t, err)
	phrase := c.newPhrase(t, movie.ID, "Bananas!", 10*time.Second, 12*time.Second)
	assert.False(t, phrase.Active)

	require.NoError(t, c.phrases.Activate(ctx, phrase.ID, "movies/m/p.mp4"))

	got, err := c.phrases.Get(ctx, phrase.ID)
	require.NoError(t, err)
	assert.True(t, got.Active)
	assert.Equal(t, "movies/m/p.mp4", got.SceneKey)

	// Activation needs a scene key.
	assert.Error(t, c.phrases.Activate(ctx, phrase.ID, ""))
}

func TestPhraseSearch(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	movie, err := c.movies.Create(ctx, "Half-Blood Prince")
	require.NoError(t, err)

	match := c.newPhrase(t, movie.ID, "I would trust Hagrid\nwith my life.", 30*time.Second, 35*time.Second)
	inactive := c.newPhrase(t, movie.ID, "Hagrid is late.", 40*time.Second, 42*time.Second)
	other := c.newPhrase(t, movie.ID, "Bananas!", 50*time.Second, 51*time.Second)
	require.NoError(t, c.phrases.Activate(ctx, match.ID, "movies/m/a.mp4"))
	require.NoError(t, c.phrases.Activate(ctx, other.ID, "movies/m/b.mp4"))

	// Only active phrases whose normalized text contains the query match;
	// results carry the original-text highlight.
	results, err := c.phrases.Search(ctx, "hagrid with my life", 1, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, match.ID, results[0].ID)
	assert.Equal(t, "Hagrid\nwith my life", results[0].MatchedText)

	// The inactive phrase also mentions Hagrid but is invisible.
	results, err = c.phrases.Search(ctx, "Hagrid", 1, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.NotEqual(t, inactive.ID, results[0].ID)

	// Word-boundary semantics: "ban" is not a word of "bananas".
	results, err = c.phrases.Search(ctx, "ban", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	// Blank queries return nothing rather than everything.
	results, err = c.phrases.Search(ctx, "?!", 1, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestPhraseSearchPagination(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	movie, err := c.movies.Create(ctx, "Deathly Hallows")
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		p := c.newPhrase(t, movie.ID, "Expecto patronum!",
			time.Duration(i)*10*time.Second, time.Duration(i)*10*time.Second+2*time.Second)
		require.NoError(t, c.phrases.Activate(ctx, p.ID, "movies/m/"+p.ID+".mp4"))
	}

	page1, err := c.phrases.Search(ctx, "patronum", 1, 2)
	require.NoError(t, err)
	assert.Len(t, page1, 2)

	page2, err := c.phrases.Search(ctx, "patronum", 2, 2)
	require.NoError(t, err)
	assert.Len(t, page2, 1)

	page3, err := c.phrases.Search(ctx, "patronum", 3, 2)
	require.NoError(t, err)
	assert.Empty(t, page3)
}

func TestPhraseDeleteRemovesClip(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	movie, err := c.movies.Create(ctx, "Fantastic Beasts")
	require.NoError(t, err)
	phrase := c.newPhrase(t, movie.ID, "Bananas!", 10*time.Second, 12*time.Second)

	key := "movies/" + movie.ID + "/" + phrase.ID + ".mp4"
	require.NoError(t, c.scenes.Put(ctx, key, bytesReader("clip")))
	require.NoError(t, c.phrases.Activate(ctx, phrase.ID, key))

	require.NoError(t, c.phrases.Delete(ctx, phrase.ID))
	_, err = c.phrases.Get(ctx, phrase.ID)
	assert.ErrorIs(t, err, services.ErrNotFound)
	_, ok := c.scenes.Get(key)
	assert.False(t, ok)
}

func TestPhraseDeleteByMovieRemovesFolder(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	movie, err := c.movies.Create(ctx, "Casablanca")
	require.NoError(t, err)
	p1 := c.newPhrase(t, movie.ID, "Here's looking at you.", 10*time.Second, 12*time.Second)
	p2 := c.newPhrase(t, movie.ID, "Round up the usual suspects.", 20*time.Second, 23*time.Second)
	for _, p := range []*model.Phrase{p1, p2} {
		key := "movies/" + movie.ID + "/" + p.ID + ".mp4"
		require.NoError(t, c.scenes.Put(ctx, key, bytesReader("clip")))
		require.NoError(t, c.phrases.Activate(ctx, p.ID, key))
	}

	require.NoError(t, c.phrases.DeleteByMovieID(ctx, movie.ID))

	all, err := c.phrases.GetByMovieID(ctx, movie.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Empty(t, c.scenes.Keys())
}

func TestPhraseExportImport(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	source, err := c.movies.Create(ctx, "Source")
	require.NoError(t, err)
	withClip := c.newPhrase(t, source.ID, "Bananas!", 10*time.Second, 12*time.Second)
	require.NoError(t, c.phrases.Activate(ctx, withClip.ID, "movies/s/x.mp4"))
	c.newPhrase(t, source.ID, "No clip here.", 20*time.Second, 21*time.Second)

	transfers, err := c.phrases.Export(ctx, source.ID)
	require.NoError(t, err)
	require.Len(t, transfers, 2)
	assert.InDelta(t, 10.0, transfers[0].StartInMovie, 0.001)
	assert.InDelta(t, 12.0, transfers[0].EndInMovie, 0.001)

	target, err := c.movies.Create(ctx, "Target")
	require.NoError(t, err)
	// Strip IDs so the import mints new rows.
	for i := range transfers {
		transfers[i].ID = ""
	}
	count, err := c.phrases.Import(ctx, target.ID, transfers)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	imported, err := c.phrases.GetByMovieID(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, imported, 2)
	// A record with a scene key comes back active; one without stays
	// inactive.
	assert.True(t, imported[0].Active)
	assert.Equal(t, "movies/s/x.mp4", imported[0].SceneKey)
	assert.False(t, imported[1].Active)
}

func TestPhraseImportRejectsInvalidInterval(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	movie, err := c.movies.Create(ctx, "Target")
	require.NoError(t, err)
	_, err = c.phrases.Import(ctx, movie.ID, []model.PhraseTransfer{
		{FullText: "bad", StartInMovie: 5, EndInMovie: 5},
	})
	assert.ErrorIs(t, err, model.ErrInvalidInterval)
}

// Import derives missing normalized text from the full text.
func TestPhraseImportNormalizes(t *testing.T) {
	c := newCatalog(t)
	ctx := context.Background()

	movie, err := c.movies.Create(ctx, "Target")
	require.NoError(t, err)
	_, err = c.phrases.Import(ctx, movie.ID, []model.PhraseTransfer{
		{FullText: "Hello, World!", StartInMovie: 1, EndInMovie: 2},
	})
	require.NoError(t, err)

	imported, err := c.phrases.GetByMovieID(ctx, movie.ID)
	require.NoError(t, err)
	require.Len(t, imported, 1)
	assert.Equal(t, text.Normalize("Hello, World!"), imported[0].NormalizedText)
}
