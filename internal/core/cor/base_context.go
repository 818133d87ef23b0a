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

// Package cor provides the workflow building blocks. This file defines
// BaseContext, the default Context implementation: maps for data and errors,
// slices tracking temporary files and directories, and the embedded Go
// context used for cancellation and tracing.
package cor

import (
	"context"
	"log/slog"
	"os"
)

// BaseContext is the default implementation of the Context interface.
type BaseContext struct {
	data      map[string]interface{}
	errors    map[string]error
	tempFiles []string
	tempDirs  []string
	context   context.Context
}

// NewBaseContext returns an empty, ready-to-use context.
func NewBaseContext() Context {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make(map[string]error),
		tempFiles: make([]string, 0),
		tempDirs:  make([]string, 0),
	}
}

func (c *BaseContext) SetContext(context context.Context) {
	c.context = context
}

func (c *BaseContext) GetContext() context.Context {
	return c.context
}

// Close removes every tracked temporary file and directory. Removal is best
// effort: a resource that is already gone is fine, anything else is logged
// and skipped so cleanup of the remaining resources still happens.
func (c *BaseContext) Close() {
	for _, file := range c.tempFiles {
		if err := os.Remove(file); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove temporary file", "path", file, "error", err)
		}
	}
	for _, dir := range c.tempDirs {
		if err := os.RemoveAll(dir); err != nil {
			slog.Warn("failed to remove temporary directory", "path", dir, "error", err)
		}
	}
}

// Add stores a key-value pair and returns the context for fluent chaining.
func (c *BaseContext) Add(key string, value interface{}) Context {
	c.data[key] = value
	return c
}

func (c *BaseContext) Get(key string) interface{} {
	return c.data[key]
}

func (c *BaseContext) Remove(key string) {
	delete(c.data, key)
}

// AddTempFile tracks a file for removal when the context is closed.
func (c *BaseContext) AddTempFile(file string) {
	c.tempFiles = append(c.tempFiles, file)
}

func (c *BaseContext) GetTempFiles() []string {
	return c.tempFiles
}

// AddTempDir tracks a directory tree for removal when the context is closed.
// The ingestion pipeline registers its movie-scoped staging directory here so
// both the success path and rollback share one cleanup mechanism.
func (c *BaseContext) AddTempDir(dir string) {
	c.tempDirs = append(c.tempDirs, dir)
}

func (c *BaseContext) GetTempDirs() []string {
	return c.tempDirs
}

// AddError records an error under the name of the command that produced it.
func (c *BaseContext) AddError(key string, err error) {
	c.errors[key] = err
}

func (c *BaseContext) GetErrors() map[string]error {
	return c.errors
}

func (c *BaseContext) HasErrors() bool {
	return len(c.errors) > 0
}

// FirstError returns one of the recorded errors, or nil when the workflow
// ran clean. With ContinueOnFailure left false a chain stops at the first
// failure, so there is at most one entry to return.
func (c *BaseContext) FirstError() error {
	for _, err := range c.errors {
		return err
	}
	return nil
}
