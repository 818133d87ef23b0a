// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is the entry point for the phrase catalog backend server.
//
// This application sets up and runs a web server using the Gin framework. It
// provides a REST API for managing movies, triggering the scene-extraction
// pipeline from uploaded movie and subtitle files, searching phrases,
// streaming scene clips through signed URLs, reporting issues, and
// exporting or importing phrase metadata. The server is instrumented with
// OpenTelemetry for logging, tracing, and metrics.
package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-phrase-search/internal/core/model"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/services"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/subtitle"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/workflow"
	"github.com/jaycherian/gcp-go-phrase-search/internal/telemetry"
)

// main sets up logging, telemetry, configuration, the application state, the
// API routes, and runs the HTTP server until interrupted.
func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	defer CloseState()
	slog.Info("Initialized State")

	r := gin.Default()
	r.Use(otelgin.Middleware(config.Application.Name))
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		MovieRouter(apiV1)
		PhraseRouter(apiV1)
		IssueRouter(apiV1)
		Dashboard(apiV1)
	}

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(config.Application.Port),
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to listen", "error", err)
		}
	}()
	slog.Info("Server Ready", "port", config.Application.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed", "error", err)
	}

	log.Println("Server exiting")
}

// errStatus maps service and pipeline errors onto HTTP status codes.
func errStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, services.ErrDuplicateIssue), errors.Is(err, workflow.ErrPipelineBusy):
		return http.StatusConflict
	case errors.Is(err, model.ErrInvalidInterval):
		return http.StatusBadRequest
	default:
		var parseErr *subtitle.ParseError
		if errors.As(err, &parseErr) {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
}

// MovieRouter sets up the movie endpoints: CRUD on the catalog entries plus
// the per-movie sub-resources (phrases, analytics, export/import, and the
// scene-extraction trigger).
func MovieRouter(r *gin.RouterGroup) {
	movies := r.Group("/movies")
	{
		// POST /movies creates a catalog entry in the pending state.
		movies.POST("", func(c *gin.Context) {
			var body struct {
				Title string `json:"title" binding:"required"`
			}
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			movie, err := state.movieService.Create(c, body.Title)
			if err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, movie)
		})

		movies.GET("", func(c *gin.Context) {
			out, err := state.movieService.List(c)
			if err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		movies.GET("/:id", func(c *gin.Context) {
			out, err := state.movieService.Get(c, c.Param("id"))
			if err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		movies.PUT("/:id", func(c *gin.Context) {
			var body struct {
				Title string `json:"title" binding:"required"`
			}
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			if err := state.movieService.Rename(c, c.Param("id"), body.Title); err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.Status(http.StatusNoContent)
		})

		// DELETE /movies/:id removes the movie, its phrases and issues, and
		// the movie's scene folder in object storage.
		movies.DELETE("/:id", func(c *gin.Context) {
			id := c.Param("id")
			if err := state.phraseService.DeleteByMovieID(c, id); err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			if err := state.movieService.Delete(c, id); err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.Status(http.StatusNoContent)
		})

		movies.GET("/:id/phrases", func(c *gin.Context) {
			out, err := state.phraseService.GetByMovieID(c, c.Param("id"))
			if err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		movies.GET("/:id/analytics", func(c *gin.Context) {
			out, err := state.analyticsService.ForMovie(c, c.Param("id"))
			if err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// GET /movies/:id/export serializes the movie's phrases for backup.
		movies.GET("/:id/export", func(c *gin.Context) {
			out, err := state.phraseService.Export(c, c.Param("id"))
			if err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// POST /movies/:id/import bulk-inserts previously exported phrase
		// records. Pure metadata transfer; no pipeline run.
		movies.POST("/:id/import", func(c *gin.Context) {
			var transfers []model.PhraseTransfer
			if err := c.ShouldBindJSON(&transfers); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			count, err := state.phraseService.Import(c, c.Param("id"), transfers)
			if err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, gin.H{"imported": count})
		})

		// POST /movies/:id/create-from-movie-files runs the full
		// scene-extraction pipeline on an uploaded movie and subtitle file.
		movies.POST("/:id/create-from-movie-files", SceneIngestionHandler)
	}
}

// SceneIngestionHandler accepts a multipart upload with a "movie" video file
// and a "subtitles" SRT file, plus optional "start_shift" and "end_shift"
// form fields (fractional seconds, may be negative), and runs the
// scene-extraction pipeline synchronously. On success it returns the movie
// with its newly active phrases.
func SceneIngestionHandler(c *gin.Context) {
	id := c.Param("id")
	movie, err := state.movieService.Get(c, id)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	movieHeader, err := c.FormFile("movie")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing movie file"})
		return
	}
	subsHeader, err := c.FormFile("subtitles")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing subtitles file"})
		return
	}
	config := state.config
	if movieHeader.Size > config.Pipeline.MaxMovieFileBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "movie file too large"})
		return
	}
	if subsHeader.Size > config.Pipeline.MaxSubtitlesFileBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "subtitles file too large"})
		return
	}

	startShift, err := strconv.ParseFloat(c.DefaultPostForm("start_shift", "0"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start_shift"})
		return
	}
	endShift, err := strconv.ParseFloat(c.DefaultPostForm("end_shift", "0"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end_shift"})
		return
	}

	subsFile, err := subsHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer func() { _ = subsFile.Close() }()
	subtitles, err := io.ReadAll(subsFile)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	mediaFile, err := movieHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer func() { _ = mediaFile.Close() }()

	// Reject non-video uploads before any pipeline work starts.
	head := make([]byte, 261)
	n, _ := mediaFile.Read(head)
	if !filetype.IsVideo(head[:n]) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "movie file is not a recognized video format"})
		return
	}
	if _, err := mediaFile.Seek(0, io.SeekStart); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	request := &model.SceneIngestionRequest{
		MovieID:       movie.ID,
		Media:         mediaFile,
		MediaFilename: movieHeader.Filename,
		Subtitles:     subtitles,
		StartShift:    startShift,
		EndShift:      endShift,
	}

	if err := state.ingestion.Run(c.Request.Context(), request); err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	phrases, err := state.phraseService.GetByMovieID(c, movie.ID)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"movie_id": movie.ID, "phrases": phrases})
}

// PhraseRouter sets up the phrase endpoints: text search, lookup, deletion,
// signed streaming URLs for scene clips, and issue reporting.
func PhraseRouter(r *gin.RouterGroup) {
	phrases := r.Group("/phrases")
	{
		// GET /phrases?s=<query>&page=<n> searches active phrases.
		phrases.GET("", func(c *gin.Context) {
			query := c.Query("s")
			if len(query) == 0 {
				c.Status(http.StatusBadRequest)
				return
			}
			page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
			if err != nil || page < 1 {
				page = 1
			}
			out, err := state.phraseService.Search(c, query, page, state.config.Search.PageSize)
			if err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		phrases.GET("/:id", func(c *gin.Context) {
			out, err := state.phraseService.Get(c, c.Param("id"))
			if err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		phrases.DELETE("/:id", func(c *gin.Context) {
			if err := state.phraseService.Delete(c, c.Param("id")); err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.Status(http.StatusNoContent)
		})

		// GET /phrases/:id/scene-url mints a time-limited streaming URL for
		// the phrase's clip.
		phrases.GET("/:id/scene-url", func(c *gin.Context) {
			phrase, err := state.phraseService.Get(c, c.Param("id"))
			if err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			if !phrase.Active || phrase.SceneKey == "" {
				c.JSON(http.StatusNotFound, gin.H{"error": "phrase has no scene clip"})
				return
			}
			ttl := time.Duration(state.config.Storage.SignedURLTTLMinutes) * time.Minute
			signedURL, err := state.cloud.Scenes.SignedURL(c, phrase.SceneKey, ttl)
			if err != nil {
				slog.ErrorContext(c, "failed to sign scene URL", "phrase_id", phrase.ID, "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate streaming URL"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": signedURL})
		})

		// POST /phrases/:id/issues reports a problem with a phrase or its
		// clip. The reporter is identified by client IP and rate limited.
		phrases.POST("/:id/issues", func(c *gin.Context) {
			if _, err := state.phraseService.Get(c, c.Param("id")); err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			issue, err := state.issueService.Report(c, c.Param("id"), c.ClientIP())
			if err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusCreated, issue)
		})
	}
}

// IssueRouter sets up the issue review endpoints.
func IssueRouter(r *gin.RouterGroup) {
	issues := r.Group("/issues")
	{
		issues.GET("", func(c *gin.Context) {
			out, err := state.issueService.List(c)
			if err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, out)
		})

		issues.POST("/:id/resolve", func(c *gin.Context) {
			if err := state.issueService.Resolve(c, c.Param("id")); err != nil {
				c.JSON(errStatus(err), gin.H{"error": err.Error()})
				return
			}
			c.Status(http.StatusNoContent)
		})
	}
}
