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

// Package cor (Chain of Responsibility) provides the building blocks for
// workflows: commands that perform one unit of work, chains that sequence
// them, and a shared context that carries data, errors, and temp-resource
// bookkeeping through a single workflow execution.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys that drive the data pipeline inside a chain:
// a command writes its primary output under CtxOut, and the chain moves that
// value to CtxIn before the next command runs.
const (
	CtxIn  = "__IN__"
	CtxOut = "__OUT__"
)

// Context is the shared state object passed through a chain of commands.
// It is a property bag for a single workflow execution, carrying data,
// errors, and the temporary files and directories that need cleanup.
type Context interface {
	// SetContext and GetContext manage the standard Go context, which
	// carries cancellation and OpenTelemetry trace information.
	SetContext(context context.Context)
	GetContext() context.Context

	// Add stores a key-value pair; it returns the Context for chaining.
	Add(key string, value interface{}) Context
	Get(key string) interface{}
	Remove(key string)

	// AddError records a failure, keyed by the command that produced it.
	AddError(key string, err error)
	GetErrors() map[string]error
	HasErrors() bool
	// FirstError returns one recorded error (any of them) or nil. Workflows
	// use it to build their single wrapped pipeline error.
	FirstError() error

	// AddTempFile and AddTempDir track temporary resources created during
	// the workflow so Close can remove them, including after a failure.
	AddTempFile(file string)
	GetTempFiles() []string
	AddTempDir(dir string)
	GetTempDirs() []string

	// Close removes all tracked temporary files and directories. Removal is
	// best effort: resources that are already gone are not an error.
	Close()
}

// Executable is anything with a core execution step.
type Executable interface {
	Execute(context Context)
}

// Command is an atomic, testable unit of work within a workflow.
type Command interface {
	Executable

	GetName() string

	// GetInputParam and GetOutputParam name the context keys this command
	// reads its primary input from and writes its primary output to.
	GetInputParam() string
	GetOutputParam() string

	// IsExecutable is a precondition check run by the chain before Execute.
	IsExecutable(context Context) bool

	GetTracer() trace.Tracer
	GetMeter() metric.Meter
	GetSuccessCounter() metric.Int64Counter
	GetErrorCounter() metric.Int64Counter
}

// Chain is a sequence of commands. A Chain is itself a Command, so chains
// can nest (composite pattern).
type Chain interface {
	Command

	// ContinueOnFailure configures whether the chain keeps executing after
	// a command records an error. Pipelines that must roll back leave this
	// false so the first failure stops the run.
	ContinueOnFailure(bool) Chain
	AddCommand(command Command) Chain
}
