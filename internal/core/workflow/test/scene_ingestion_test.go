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

// Package workflow_test contains integration tests for the scene-ingestion
// pipeline. The tests run the real chain end to end against an in-memory
// catalog store and scene storage, with a shell script standing in for the
// FFmpeg binary so trimming happens without real video files.
package workflow_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-phrase-search/internal/cloud"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/model"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/services"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/workflow"
	test "github.com/jaycherian/gcp-go-phrase-search/internal/testutil"
)

// harness wires a full pipeline over in-memory backends.
type harness struct {
	config  *cloud.Config
	scenes  *test.FakeSceneStorage
	movies  *services.MovieService
	phrases *services.PhraseService
	flow    *workflow.SceneIngestionWorkflow
}

func newHarness(t *testing.T, failTrim bool) *harness {
	t.Helper()

	store, err := services.OpenStore(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	config := test.NewPipelineConfig(t, test.WriteTrimScript(t, failTrim))
	scenes := test.NewFakeSceneStorage()
	clients := &cloud.ServiceClients{Scenes: scenes}

	movies := services.NewMovieService(store)
	phrases := services.NewPhraseService(store, scenes, config.Storage.MoviesPrefix)

	return &harness{
		config:  config,
		scenes:  scenes,
		movies:  movies,
		phrases: phrases,
		flow:    workflow.NewSceneIngestionWorkflow(config, clients, movies, phrases),
	}
}

func (h *harness) request(movieID string) *model.SceneIngestionRequest {
	return &model.SceneIngestionRequest{
		MovieID:       movieID,
		Media:         strings.NewReader("not a real movie, but enough bytes to stage"),
		MediaFilename: "movie.mp4",
		Subtitles:     []byte(test.SampleSRT()),
	}
}

func TestSceneIngestionSuccess(t *testing.T) {
	h := newHarness(t, false)
	ctx, span := tracer.Start(context.Background(), "scene-ingestion-test")
	defer span.End()

	movie, err := h.movies.Create(ctx, "Philosopher's Stone")
	require.NoError(t, err)

	require.NoError(t, h.flow.Run(ctx, h.request(movie.ID)))

	// Movie ends processed.
	got, err := h.movies.Get(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MovieStatusProcessed, got.Status)

	// One active phrase per subtitle entry, each backed by a stored clip.
	phrases, err := h.phrases.GetByMovieID(ctx, movie.ID)
	require.NoError(t, err)
	require.Len(t, phrases, 3)
	for _, p := range phrases {
		assert.True(t, p.Active, "phrase %q not active", p.FullText)
		assert.Equal(t, "movies/"+movie.ID+"/"+p.ID+".mp4", p.SceneKey)
		_, ok := h.scenes.Get(p.SceneKey)
		assert.True(t, ok, "clip missing for phrase %q", p.FullText)
	}

	// The per-movie working directory is cleaned up.
	_, err = os.Stat(filepath.Join(h.config.Pipeline.TempDir, movie.ID))
	assert.True(t, os.IsNotExist(err))

	// The phrases are immediately searchable.
	results, err := h.phrases.Search(ctx, "bananas", 1, 10)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSceneIngestionTrimFailure(t *testing.T) {
	h := newHarness(t, true)
	ctx := context.Background()

	movie, err := h.movies.Create(ctx, "Broken Reel")
	require.NoError(t, err)

	err = h.flow.Run(ctx, h.request(movie.ID))
	require.Error(t, err)

	var pipelineErr *workflow.PipelineError
	require.ErrorAs(t, err, &pipelineErr)
	assert.Equal(t, movie.ID, pipelineErr.MovieID)

	// Movie ends in the error state.
	got, err := h.movies.Get(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MovieStatusError, got.Status)

	// Phrase rows from the failed run survive, inactive and without scene
	// keys, and nothing reached storage.
	phrases, err := h.phrases.GetByMovieID(ctx, movie.ID)
	require.NoError(t, err)
	require.Len(t, phrases, 3)
	for _, p := range phrases {
		assert.False(t, p.Active)
		assert.Empty(t, p.SceneKey)
	}
	assert.Empty(t, h.scenes.Keys())

	// Working files are cleaned up on failure too.
	_, err = os.Stat(filepath.Join(h.config.Pipeline.TempDir, movie.ID))
	assert.True(t, os.IsNotExist(err))
}

func TestSceneIngestionUploadFailure(t *testing.T) {
	h := newHarness(t, false)
	h.scenes.PutErr = assert.AnError
	ctx := context.Background()

	movie, err := h.movies.Create(ctx, "Storage Down")
	require.NoError(t, err)

	err = h.flow.Run(ctx, h.request(movie.ID))
	require.Error(t, err)

	got, err := h.movies.Get(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MovieStatusError, got.Status)

	phrases, err := h.phrases.GetByMovieID(ctx, movie.ID)
	require.NoError(t, err)
	for _, p := range phrases {
		assert.False(t, p.Active)
	}
}

func TestSceneIngestionMalformedSubtitles(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	movie, err := h.movies.Create(ctx, "Bad Subs")
	require.NoError(t, err)

	request := h.request(movie.ID)
	request.Subtitles = []byte("definitely not srt")

	err = h.flow.Run(ctx, request)
	require.Error(t, err)

	// The parse step runs first, so no phrase rows exist at all.
	phrases, err := h.phrases.GetByMovieID(ctx, movie.ID)
	require.NoError(t, err)
	assert.Empty(t, phrases)

	got, err := h.movies.Get(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MovieStatusError, got.Status)
}

// Only one run per movie may be in flight.
func TestSceneIngestionLockBusy(t *testing.T) {
	h := newHarness(t, false)
	ctx := context.Background()

	movie, err := h.movies.Create(ctx, "Contended")
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(h.config.Pipeline.TempDir, 0o755))
	lock := flock.New(filepath.Join(h.config.Pipeline.TempDir, "movie-"+movie.ID+".lock"))
	locked, err := lock.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = lock.Unlock() }()

	err = h.flow.Run(ctx, h.request(movie.ID))
	assert.ErrorIs(t, err, workflow.ErrPipelineBusy)

	// The refused run must not have touched the movie's status.
	got, err := h.movies.Get(ctx, movie.ID)
	require.NoError(t, err)
	assert.Equal(t, model.MovieStatusPending, got.Status)
}
