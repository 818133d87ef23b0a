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

// Package commands provides the concrete implementations of the Chain of
// Responsibility (COR) pattern's Command interface for the scene-extraction
// pipeline: parsing subtitles, registering phrases, staging media, trimming
// scene clips with FFmpeg, and uploading the clips to object storage.
//
// This file names the shared context parameters the commands read and write
// beyond the default chain piping keys.
package commands

// Context parameter names shared across pipeline commands. The ingestion
// request is seeded by the workflow before the chain runs; the rest are
// produced by commands for their successors.
const (
	ParamIngestionRequest = "INGESTION_REQUEST"
	ParamPhrases          = "PHRASES"
	ParamMediaFile        = "MEDIA_FILE"
	ParamMediaExtension   = "MEDIA_EXTENSION"
	ParamWorkDir          = "WORK_DIR"
)
