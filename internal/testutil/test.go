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

// Package test provides utility functions and mock data to support the
// application's test suite: a cached test configuration, an in-memory scene
// storage, a fake trimming executable, and sample subtitle data.
package test

import (
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/jaycherian/gcp-go-phrase-search/internal/cloud"
)

// StateManager acts as a simple in-memory cache for the application
// configuration during test runs, so the TOML files are parsed once per
// test binary.
type StateManager struct {
	config *cloud.Config
}

var state = &StateManager{}

// HandleErr fails the test if err is not nil. A convenience to reduce
// boilerplate error checking in tests.
func HandleErr(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// SetupOS points the configuration loader at the test configuration files
// (configs/.env.toml overridden by configs/.env.test.toml).
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "test")
	return err
}

// GetConfig is a singleton accessor for the test configuration.
func GetConfig() *cloud.Config {
	if state.config == nil {
		if err := SetupOS(); err != nil {
			log.Fatalf("failed to setup environment for test: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// NewPipelineConfig returns a configuration wired for a fully local pipeline
// test: working files under t.TempDir, single-cut batches, and the fake trim
// executable created by WriteTrimScript.
func NewPipelineConfig(t *testing.T, trimScript string) *cloud.Config {
	t.Helper()
	config := cloud.NewConfig()
	config.Pipeline.TempDir = filepath.Join(t.TempDir(), "work")
	config.Pipeline.UploadChunkSizeBytes = 64 * 1024
	config.FFmpeg.CommandPath = trimScript
	config.FFmpeg.BatchSize = 2
	return config
}

// WriteTrimScript creates a stand-in for the FFmpeg binary. The success
// variant writes every output path named in its arguments (skipping the
// input after -i); the failing variant exits non-zero without producing
// anything, like FFmpeg on an unreadable source.
func WriteTrimScript(t *testing.T, fail bool) string {
	t.Helper()
	script := `#!/bin/sh
prev=""
for a in "$@"; do
  if [ "$prev" != "-i" ]; then
    case "$a" in
      */*.*) printf 'clip' > "$a" ;;
    esac
  fi
  prev="$a"
done
`
	if fail {
		script = "#!/bin/sh\nexit 1\n"
	}
	path := filepath.Join(t.TempDir(), "trim.sh")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("failed to write trim script: %v", err)
	}
	return path
}

// SampleSRT returns a small, well-formed subtitle file covering three
// entries, including a multi-line cue.
func SampleSRT() string {
	return `1
00:00:30,000 --> 00:00:33,500
I solemnly swear that I am up to no good.

2
00:01:00,250 --> 00:01:02,000
Bananas!

3
00:01:30,000 --> 00:01:35,750
I would trust Hagrid
with my life.
`
}
