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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, plus the container of external service clients.
//
// This file centralizes all configuration-related structs. Every tunable the
// scene-extraction pipeline depends on — the subtitle entry cap, the ffmpeg
// batch size, chunk sizes, file-size limits — is a named value here rather
// than a literal buried in the code.
package cloud

// Storage holds the object-storage settings for scene clips.
type Storage struct {
	SceneBucket string `toml:"scene_bucket"` // The GCS bucket scene clips are uploaded to.
	// MoviesPrefix is the leading path segment of every scene key. A clip is
	// stored under "<movies_prefix>/<movie id>/<phrase id><ext>".
	MoviesPrefix              string `toml:"movies_prefix"`
	SignerServiceAccountEmail string `toml:"signer_service_account_email"` // Service account used to sign streaming URLs.
	SignedURLTTLMinutes       int    `toml:"signed_url_ttl_minutes"`       // Validity window for streaming URLs.
}

// Database holds the settings for the relational catalog store.
type Database struct {
	Path string `toml:"path"` // Filesystem path of the sqlite database. ":memory:" is valid for tests.
}

// FFmpeg holds the settings for the external media-trimming tool.
type FFmpeg struct {
	CommandPath string `toml:"command_path"` // Path to the ffmpeg executable.
	// BatchSize is the number of clip outputs passed to a single ffmpeg
	// invocation. One process decodes the source once per batch, which is
	// what amortizes the decode cost; don't set it to 1 unless debugging.
	BatchSize int `toml:"batch_size"`
	// AudioGain is the volume multiplier applied to every extracted clip.
	// Subtitle-aligned dialog tends to be quiet relative to the full mix.
	AudioGain float64 `toml:"audio_gain"`
}

// Pipeline holds the knobs of the scene-extraction pipeline itself.
type Pipeline struct {
	// MaxSubtitleEntries caps how many entries a single run will take from a
	// subtitle file, counted from the start of the file. The pipeline runs
	// synchronously inside the triggering request, so this bounds worst-case
	// wall time. Observed deployments use values in the low tens.
	MaxSubtitleEntries int `toml:"max_subtitle_entries"`
	// TempDir is the root under which per-movie staging directories are
	// created. Empty means the OS default temp location.
	TempDir string `toml:"temp_dir"`
	// UploadChunkSizeBytes bounds how much of the uploaded source media is
	// held in memory at once while staging it to disk.
	UploadChunkSizeBytes  int   `toml:"upload_chunk_size_bytes"`
	MaxMovieFileBytes     int64 `toml:"max_movie_file_bytes"`
	MaxSubtitlesFileBytes int64 `toml:"max_subtitles_file_bytes"`
}

// Search holds the settings for the phrase search surface.
type Search struct {
	PageSize int `toml:"page_size"` // Number of phrases per search result page.
}

// Issues holds the flood-control settings for phrase-issue reporting.
type Issues struct {
	// ReportsPerMinute limits how many issue reports a single IP can file.
	ReportsPerMinute int `toml:"reports_per_minute"`
	// Burst is the instantaneous allowance before the limiter kicks in.
	Burst int `toml:"burst"`
}

// Config is the root of the application configuration, loaded from TOML.
type Config struct {
	Application struct {
		Name            string `toml:"name"`
		GoogleProjectId string `toml:"google_project_id"`
		Port            int    `toml:"port"`
	} `toml:"application"`
	Storage  Storage  `toml:"storage"`
	Database Database `toml:"database"`
	FFmpeg   FFmpeg   `toml:"ffmpeg"`
	Pipeline Pipeline `toml:"pipeline"`
	Search   Search   `toml:"search"`
	Issues   Issues   `toml:"issues"`
}

// NewConfig creates a Config with the defaults that hold wherever a TOML
// file doesn't say otherwise.
func NewConfig() *Config {
	c := &Config{}
	c.Application.Port = 8080
	c.Storage.MoviesPrefix = "movies"
	c.Storage.SignedURLTTLMinutes = 15
	c.FFmpeg.CommandPath = "ffmpeg"
	c.FFmpeg.BatchSize = 4
	c.FFmpeg.AudioGain = 1.5
	c.Pipeline.MaxSubtitleEntries = 50
	c.Pipeline.UploadChunkSizeBytes = 100 * 1024 * 1024
	c.Pipeline.MaxMovieFileBytes = 4 * 1024 * 1024 * 1024
	c.Pipeline.MaxSubtitlesFileBytes = 1024 * 1024
	c.Search.PageSize = 20
	c.Issues.ReportsPerMinute = 5
	c.Issues.Burst = 5
	return c
}
