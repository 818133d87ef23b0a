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

package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"

	"github.com/jaycherian/gcp-go-phrase-search/internal/core/cor"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/model"
)

// MediaStageCommand streams the uploaded movie file into a per-movie working
// directory on local disk, where FFmpeg can seek in it. The whole directory
// is registered with the context for cleanup, so the staged movie and every
// trimmed clip disappear together when the run ends, successful or not.
//
// The staged file keeps the upload's extension. FFmpeg infers the container
// format from it, and the clips inherit it in turn. When the upload has no
// extension the first bytes are sniffed with the filetype library.
type MediaStageCommand struct {
	cor.BaseCommand
	workRoot  string
	chunkSize int
}

// NewMediaStageCommand creates the staging step. workRoot is the directory
// per-movie working directories are created under; chunkSize bounds the copy
// buffer so large uploads stream without large allocations.
func NewMediaStageCommand(name string, workRoot string, chunkSize int) *MediaStageCommand {
	return &MediaStageCommand{
		BaseCommand: *cor.NewBaseCommand(name),
		workRoot:    workRoot,
		chunkSize:   chunkSize,
	}
}

func (c *MediaStageCommand) GetInputParam() string {
	return ParamIngestionRequest
}

func (c *MediaStageCommand) Execute(context cor.Context) {
	request := context.Get(c.GetInputParam()).(*model.SceneIngestionRequest)

	staged, workDir, extension, err := c.stage(request)
	if workDir != "" {
		context.AddTempDir(workDir)
	}
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), err)
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(ParamMediaFile, staged)
	context.Add(ParamMediaExtension, extension)
	context.Add(ParamWorkDir, workDir)
	context.Add(cor.CtxOut, staged)
}

func (c *MediaStageCommand) stage(request *model.SceneIngestionRequest) (staged, workDir, extension string, err error) {
	workDir = filepath.Join(c.workRoot, request.MovieID)
	if err := os.MkdirAll(workDir, 0o755); err != nil {
		return "", "", "", fmt.Errorf("create work dir: %w", err)
	}

	// Sniff enough of the stream to classify it before committing to disk.
	header := make([]byte, 261)
	n, err := io.ReadFull(request.Media, header)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", workDir, "", fmt.Errorf("read media header: %w", err)
	}
	header = header[:n]

	extension = strings.ToLower(filepath.Ext(request.MediaFilename))
	if extension == "" {
		kind, _ := filetype.Match(header)
		if kind == filetype.Unknown {
			return "", workDir, "", fmt.Errorf("media file %q: unrecognized format", request.MediaFilename)
		}
		extension = "." + kind.Extension
	}

	staged = filepath.Join(workDir, "source"+extension)
	out, err := os.Create(staged)
	if err != nil {
		return "", workDir, "", fmt.Errorf("create staged media: %w", err)
	}
	defer func() { _ = out.Close() }()

	if _, err := out.Write(header); err != nil {
		return "", workDir, "", fmt.Errorf("write staged media: %w", err)
	}
	buf := make([]byte, c.chunkSize)
	if _, err := io.CopyBuffer(out, request.Media, buf); err != nil {
		return "", workDir, "", fmt.Errorf("write staged media: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", workDir, "", fmt.Errorf("flush staged media: %w", err)
	}
	return staged, workDir, extension, nil
}
