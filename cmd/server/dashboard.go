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

// Package main contains the API route definitions for the server. This file
// defines the catalog-wide statistics endpoint used by the dashboard.
package main

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Dashboard configures the statistics routes. GET /stats returns catalog
// totals: movie count, phrase count, and the summed duration of all phrases.
func Dashboard(r *gin.RouterGroup) {
	stats := r.Group("/stats")
	{
		stats.GET("", func(c *gin.Context) {
			movies, err := state.movieService.List(c)
			if err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}

			var (
				phraseCount   int
				totalDuration time.Duration
			)
			for _, movie := range movies {
				analytics, err := state.analyticsService.ForMovie(c, movie.ID)
				if err != nil {
					c.JSON(errStatus(err), gin.H{"error": err.Error()})
					return
				}
				phraseCount += analytics.PhrasesCount
				totalDuration += analytics.PhrasesDuration
			}

			c.JSON(http.StatusOK, gin.H{
				"movies":           len(movies),
				"phrases":          phraseCount,
				"phrases_duration": totalDuration.String(),
			})
		})
	}
}
