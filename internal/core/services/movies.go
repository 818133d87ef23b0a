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
	"time"

	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-phrase-search/internal/core/model"
)

// MovieService manages the movie rows of the catalog.
type MovieService struct {
	store *Store
}

// NewMovieService creates a movie service on top of the given store.
func NewMovieService(store *Store) *MovieService {
	return &MovieService{store: store}
}

// Create inserts a new movie in the pending state and returns it.
func (s *MovieService) Create(ctx context.Context, title string) (*model.Movie, error) {
	if title == "" {
		return nil, errors.New("movie title must not be empty")
	}
	now := time.Now().UTC()
	movie := &model.Movie{
		ID:        uuid.NewString(),
		Title:     title,
		Status:    model.MovieStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err := s.store.db.ExecContext(ctx, QryInsertMovie,
		movie.ID, movie.Title, string(movie.Status), timestamp(now), timestamp(now))
	if err != nil {
		return nil, fmt.Errorf("insert movie: %w", err)
	}
	return movie, nil
}

// Get returns the movie with the given id, or ErrNotFound.
func (s *MovieService) Get(ctx context.Context, id string) (*model.Movie, error) {
	row := s.store.db.QueryRowContext(ctx, QryFindMovieByID, id)
	movie, err := scanMovie(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("movie %q: %w", id, ErrNotFound)
	}
	return movie, err
}

// List returns every movie, newest first.
func (s *MovieService) List(ctx context.Context) ([]*model.Movie, error) {
	rows, err := s.store.db.QueryContext(ctx, QryListMovies)
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var movies []*model.Movie
	for rows.Next() {
		movie, err := scanMovie(rows)
		if err != nil {
			return nil, err
		}
		movies = append(movies, movie)
	}
	return movies, rows.Err()
}

// Rename updates a movie's title.
func (s *MovieService) Rename(ctx context.Context, id, title string) error {
	if title == "" {
		return errors.New("movie title must not be empty")
	}
	res, err := s.store.db.ExecContext(ctx, QryUpdateMovieTitle, title, timestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("rename movie: %w", err)
	}
	return requireRow(res, fmt.Sprintf("movie %q", id))
}

// UpdateStatus transitions a movie's processing state. Setting the status it
// already has is a harmless no-op, so pipeline retries stay idempotent.
func (s *MovieService) UpdateStatus(ctx context.Context, id string, status model.MovieStatus) error {
	res, err := s.store.db.ExecContext(ctx, QryUpdateMovieStatus, string(status), timestamp(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update movie status: %w", err)
	}
	return requireRow(res, fmt.Sprintf("movie %q", id))
}

// Delete removes a movie. Its phrases and their issues go with it through
// the foreign-key cascade; scene objects in storage are the caller's problem
// since this service has no storage handle.
func (s *MovieService) Delete(ctx context.Context, id string) error {
	res, err := s.store.db.ExecContext(ctx, QryDeleteMovie, id)
	if err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	return requireRow(res, fmt.Sprintf("movie %q", id))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMovie(row rowScanner) (*model.Movie, error) {
	var (
		movie              model.Movie
		status             string
		createdAt, updated string
	)
	if err := row.Scan(&movie.ID, &movie.Title, &status, &createdAt, &updated); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan movie: %w", err)
	}
	movie.Status = model.MovieStatus(status)
	var err error
	if movie.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if movie.UpdatedAt, err = parseTimestamp(updated); err != nil {
		return nil, err
	}
	return &movie, nil
}

// requireRow turns a zero-row update or delete into ErrNotFound.
func requireRow(res sql.Result, label string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", label, ErrNotFound)
	}
	return nil
}
