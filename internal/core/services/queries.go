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

// Package services contains the business logic for interacting with the
// phrase catalog. This file, `queries.go`, centralizes all the SQL statements
// used by the services. Storing queries as constants in a dedicated file
// improves maintainability, readability, and reusability. All statements use
// `?` placeholders bound at execution time; none interpolate user input.
package services

// Schema migrations, applied in order when the store is opened. Each
// statement is idempotent so reopening an existing database is a no-op.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS movies (
		id         TEXT PRIMARY KEY,
		title      TEXT NOT NULL,
		status     TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS phrases (
		id              TEXT PRIMARY KEY,
		movie_id        TEXT NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
		full_text       TEXT NOT NULL,
		normalized_text TEXT NOT NULL,
		start_ms        INTEGER NOT NULL,
		end_ms          INTEGER NOT NULL,
		scene_key       TEXT NOT NULL DEFAULT '',
		active          INTEGER NOT NULL DEFAULT 0,
		created_at      TEXT NOT NULL,
		updated_at      TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_phrases_movie_id ON phrases(movie_id)`,
	`CREATE INDEX IF NOT EXISTS idx_phrases_normalized_text ON phrases(normalized_text)`,
	`CREATE TABLE IF NOT EXISTS phrase_issues (
		id         TEXT PRIMARY KEY,
		phrase_id  TEXT NOT NULL REFERENCES phrases(id) ON DELETE CASCADE,
		issuer_ip  TEXT NOT NULL,
		active     INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_phrase_issues_phrase_id ON phrase_issues(phrase_id)`,
}

const (
	// Movie statements.
	QryInsertMovie       = `INSERT INTO movies (id, title, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`
	QryFindMovieByID     = `SELECT id, title, status, created_at, updated_at FROM movies WHERE id = ?`
	QryListMovies        = `SELECT id, title, status, created_at, updated_at FROM movies ORDER BY created_at DESC`
	QryUpdateMovieTitle  = `UPDATE movies SET title = ?, updated_at = ? WHERE id = ?`
	QryUpdateMovieStatus = `UPDATE movies SET status = ?, updated_at = ? WHERE id = ?`
	QryDeleteMovie       = `DELETE FROM movies WHERE id = ?`

	// Phrase statements. Offsets are stored as integer milliseconds;
	// timestamps as RFC 3339 text.
	QryInsertPhrase = `INSERT INTO phrases
		(id, movie_id, full_text, normalized_text, start_ms, end_ms, scene_key, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	QryFindPhraseByID = `SELECT id, movie_id, full_text, normalized_text, start_ms, end_ms, scene_key, active, created_at, updated_at
		FROM phrases WHERE id = ?`
	QryFindPhrasesByMovieID = `SELECT id, movie_id, full_text, normalized_text, start_ms, end_ms, scene_key, active, created_at, updated_at
		FROM phrases WHERE movie_id = ? ORDER BY start_ms ASC`

	// QrySearchPhrases performs a case-normalized containment search. Both
	// the stored normalized_text and the query are padded with spaces by the
	// normalizer, so whole-word queries match on word boundaries without a
	// separate token index. Only phrases with an attached scene are returned.
	QrySearchPhrases = `SELECT id, movie_id, full_text, normalized_text, start_ms, end_ms, scene_key, active, created_at, updated_at
		FROM phrases WHERE active = 1 AND normalized_text LIKE '%' || ? || '%' ESCAPE '\'
		ORDER BY created_at ASC LIMIT ? OFFSET ?`

	// QryActivatePhrase is the single post-creation mutation a phrase ever
	// receives: it attaches the scene key and makes the phrase searchable.
	QryActivatePhrase = `UPDATE phrases SET scene_key = ?, active = 1, updated_at = ? WHERE id = ?`

	QryDeletePhrase           = `DELETE FROM phrases WHERE id = ?`
	QryDeletePhrasesByMovieID = `DELETE FROM phrases WHERE movie_id = ?`

	// Issue statements.
	QryInsertIssue       = `INSERT INTO phrase_issues (id, phrase_id, issuer_ip, active, created_at) VALUES (?, ?, ?, ?, ?)`
	QryListIssues        = `SELECT id, phrase_id, issuer_ip, active, created_at FROM phrase_issues WHERE active = 1 ORDER BY created_at DESC`
	QryResolveIssue      = `UPDATE phrase_issues SET active = 0 WHERE id = ? AND active = 1`
	QryCountActiveIssues = `SELECT COUNT(*) FROM phrase_issues WHERE phrase_id = ? AND issuer_ip = ? AND active = 1`

	// Analytics statements, aggregated per movie.
	QryMoviePhraseStats = `SELECT COUNT(*), COALESCE(SUM(end_ms - start_ms), 0) FROM phrases WHERE movie_id = ?`
	QryMoviePhraseTexts = `SELECT normalized_text FROM phrases WHERE movie_id = ?`
)
