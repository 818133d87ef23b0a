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

// This file provides the shared setup for the pipeline integration tests:
// test configuration on disk, structured logging, and the package-level
// tracer and logger used by individual test cases.
package workflow_test

import (
	"log"
	"testing"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"

	"github.com/jaycherian/gcp-go-phrase-search/internal/telemetry"
	test "github.com/jaycherian/gcp-go-phrase-search/internal/testutil"
)

const tName = "github.com/jaycherian/gcp-go-phrase-search/tests/workflow"

var (
	tracer = otel.Tracer(tName)
	logger = otelslog.NewLogger(tName)
)

// TestMain runs before any test in the package. It points the configuration
// loader at the test config files and installs the structured log handler so
// pipeline log output during tests matches what the server emits.
func TestMain(m *testing.M) {
	if err := test.SetupOS(); err != nil {
		log.Fatalf("failed to set up test environment: %v", err)
	}

	telemetry.SetupLogging()
	logger.Info("completed test setup")

	m.Run()
}
