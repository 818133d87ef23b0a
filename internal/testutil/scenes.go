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

package test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// FakeSceneStorage is an in-memory SceneStorage for tests. Objects live in a
// map; PutErr, when set, makes every Put fail to exercise rollback paths.
type FakeSceneStorage struct {
	mu      sync.Mutex
	objects map[string][]byte

	PutErr error
}

// NewFakeSceneStorage creates an empty in-memory scene storage.
func NewFakeSceneStorage() *FakeSceneStorage {
	return &FakeSceneStorage{objects: make(map[string][]byte)}
}

func (f *FakeSceneStorage) Put(_ context.Context, key string, r io.Reader) error {
	if f.PutErr != nil {
		return f.PutErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *FakeSceneStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[key]; !ok {
		return fmt.Errorf("object %q does not exist", key)
	}
	delete(f.objects, key)
	return nil
}

func (f *FakeSceneStorage) DeleteFolder(_ context.Context, prefix string) error {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for key := range f.objects {
		if strings.HasPrefix(key, prefix) {
			delete(f.objects, key)
		}
	}
	return nil
}

func (f *FakeSceneStorage) SignedURL(_ context.Context, key string, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.objects[key]; !ok {
		return "", fmt.Errorf("object %q does not exist", key)
	}
	return "https://storage.invalid/" + key, nil
}

// Keys returns the stored object keys, for assertions.
func (f *FakeSceneStorage) Keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	keys := make([]string, 0, len(f.objects))
	for key := range f.objects {
		keys = append(keys, key)
	}
	return keys
}

// Get returns a stored object's bytes and whether it exists.
func (f *FakeSceneStorage) Get(key string) ([]byte, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	return data, ok
}
