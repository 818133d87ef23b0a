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

// Package model_test contains unit tests for the data models: the interval
// invariant on phrase creation and subtitle entries, and the derived phrase
// duration.
package model_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-phrase-search/internal/core/model"
)

func TestPhraseCreateValidate(t *testing.T) {
	create := &model.PhraseCreate{
		MovieID:      "m1",
		FullText:     "Bananas!",
		StartInMovie: 10 * time.Second,
		EndInMovie:   12 * time.Second,
	}
	assert.NoError(t, create.Validate())

	create.EndInMovie = 10 * time.Second
	assert.ErrorIs(t, create.Validate(), model.ErrInvalidInterval)

	create.EndInMovie = 9 * time.Second
	assert.ErrorIs(t, create.Validate(), model.ErrInvalidInterval)
}

func TestNewSubtitleEntry(t *testing.T) {
	entry, err := model.NewSubtitleEntry(time.Second, 2*time.Second, "hi", " hi ")
	require.NoError(t, err)
	assert.Equal(t, time.Second, entry.Start)
	assert.Equal(t, 2*time.Second, entry.End)

	_, err = model.NewSubtitleEntry(2*time.Second, time.Second, "hi", " hi ")
	assert.ErrorIs(t, err, model.ErrInvalidInterval)

	_, err = model.NewSubtitleEntry(time.Second, time.Second, "hi", " hi ")
	assert.ErrorIs(t, err, model.ErrInvalidInterval)
}

func TestPhraseDuration(t *testing.T) {
	phrase := &model.Phrase{
		StartInMovie: 90 * time.Second,
		EndInMovie:   95*time.Second + 750*time.Millisecond,
	}
	assert.Equal(t, 5*time.Second+750*time.Millisecond, phrase.Duration())
}
