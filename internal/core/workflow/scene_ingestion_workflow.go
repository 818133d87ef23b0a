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

// Package workflow defines the high-level business logic orchestrations,
// combining various commands into coherent pipelines. This file implements
// the scene-ingestion workflow: it takes an uploaded movie file and its
// subtitles, registers one phrase per subtitle entry, cuts a clip per phrase
// with FFmpeg, and uploads the clips to object storage.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/jaycherian/gcp-go-phrase-search/internal/cloud"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/commands"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/model"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/services"
)

// ErrPipelineBusy is returned when an ingestion run is requested for a movie
// that already has one in flight.
var ErrPipelineBusy = errors.New("an ingestion run is already in progress for this movie")

// PipelineError wraps whatever step failed during an ingestion run so
// callers get a single error carrying the movie it belongs to.
type PipelineError struct {
	MovieID string
	Err     error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("scene ingestion for movie %q failed: %v", e.MovieID, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// SceneIngestionWorkflow orchestrates a full extraction run for one movie:
// parse subtitles, bulk-create inactive phrases, stage the movie locally,
// trim clips in FFmpeg batches, and upload-and-activate phrase by phrase.
//
// Only one run per movie may be in flight; a file lock keyed by movie id
// enforces that across processes. The movie's status tracks the run:
// processing while it executes, processed on success, error on any failure.
// Phrase rows created by a failed run are kept but stay inactive.
type SceneIngestionWorkflow struct {
	cor.BaseCommand
	config  *cloud.Config
	movies  *services.MovieService
	phrases *services.PhraseService
	chain   cor.Chain
}

// NewSceneIngestionWorkflow builds the ingestion pipeline from its command
// chain and the services it drives.
func NewSceneIngestionWorkflow(
	config *cloud.Config,
	serviceClients *cloud.ServiceClients,
	movies *services.MovieService,
	phrases *services.PhraseService) *SceneIngestionWorkflow {

	out := &SceneIngestionWorkflow{
		BaseCommand: *cor.NewBaseCommand("scene-ingestion-workflow"),
		config:      config,
		movies:      movies,
		phrases:     phrases,
	}

	chain := cor.NewBaseChain(out.GetName())
	chain.AddCommand(commands.NewSubtitleParseCommand("subtitle-parse", config.Pipeline.MaxSubtitleEntries))
	chain.AddCommand(commands.NewPhraseCreateCommand("phrase-create", phrases))
	chain.AddCommand(commands.NewMediaStageCommand("media-stage", config.Pipeline.TempDir, config.Pipeline.UploadChunkSizeBytes))
	chain.AddCommand(commands.NewSceneTrimCommand("scene-trim", config.FFmpeg.CommandPath, config.FFmpeg.BatchSize, config.FFmpeg.AudioGain))
	chain.AddCommand(commands.NewSceneUploadCommand("scene-upload", serviceClients.Scenes, phrases, config.Storage.MoviesPrefix))
	out.chain = chain

	return out
}

// Execute runs the underlying command chain against an already-seeded
// context. Most callers want Run, which owns locking, status transitions,
// and cleanup.
func (w *SceneIngestionWorkflow) Execute(context cor.Context) {
	w.chain.Execute(context)
}

// Run executes a full ingestion for the given request. On success the movie
// ends in the processed state with every phrase active; on failure it ends in
// the error state, local working files are removed, and a *PipelineError is
// returned.
func (w *SceneIngestionWorkflow) Run(ctx context.Context, request *model.SceneIngestionRequest) error {
	lock, err := w.acquireLock(request.MovieID)
	if err != nil {
		return err
	}
	defer func() { _ = lock.Unlock() }()

	if err := w.movies.UpdateStatus(ctx, request.MovieID, model.MovieStatusProcessing); err != nil {
		return &PipelineError{MovieID: request.MovieID, Err: err}
	}

	corCtx := cor.NewBaseContext()
	corCtx.SetContext(ctx)
	corCtx.Add(commands.ParamIngestionRequest, request)
	corCtx.Add(cor.CtxIn, request)
	// Close removes the staged movie and trimmed clips whether or not the
	// chain finished.
	defer corCtx.Close()

	w.chain.Execute(corCtx)

	if corCtx.HasErrors() {
		return w.rollback(ctx, request.MovieID, corCtx.FirstError())
	}

	if err := w.movies.UpdateStatus(ctx, request.MovieID, model.MovieStatusProcessed); err != nil {
		return w.rollback(ctx, request.MovieID, err)
	}

	slog.InfoContext(ctx, "scene ingestion complete", "movie_id", request.MovieID)
	return nil
}

// acquireLock takes the per-movie file lock. The lock directory doubles as
// the pipeline working area, so it exists for the life of the process.
func (w *SceneIngestionWorkflow) acquireLock(movieID string) (*flock.Flock, error) {
	if err := os.MkdirAll(w.config.Pipeline.TempDir, 0o755); err != nil {
		return nil, &PipelineError{MovieID: movieID, Err: err}
	}
	lock := flock.New(filepath.Join(w.config.Pipeline.TempDir, "movie-"+movieID+".lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, &PipelineError{MovieID: movieID, Err: err}
	}
	if !locked {
		return nil, fmt.Errorf("movie %q: %w", movieID, ErrPipelineBusy)
	}
	return lock, nil
}

// rollback marks the movie failed and reports the causing error. Phrase rows
// from this run are left in place: inactive rows are invisible to search and
// a later successful run supersedes them.
func (w *SceneIngestionWorkflow) rollback(ctx context.Context, movieID string, cause error) error {
	if err := w.movies.UpdateStatus(ctx, movieID, model.MovieStatusError); err != nil {
		slog.ErrorContext(ctx, "failed to mark movie as errored", "movie_id", movieID, "error", err)
	}
	return &PipelineError{MovieID: movieID, Err: cause}
}
