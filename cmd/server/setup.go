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

// Package main contains the setup and initialization logic for the
// application's state. This file creates the centralized state manager that
// holds the shared dependencies: configuration, Google Cloud service clients,
// the catalog store, the domain services, and the scene-ingestion workflow.
package main

import (
	"context"
	"log"
	"os"

	"github.com/jaycherian/gcp-go-phrase-search/internal/cloud"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/services"
	"github.com/jaycherian/gcp-go-phrase-search/internal/core/workflow"
)

// StateManager holds all the shared dependencies for the application, acting
// as a centralized container for service clients and configuration. This
// avoids globals scattered across handler files.
type StateManager struct {
	config           *cloud.Config
	cloud            *cloud.ServiceClients
	store            *services.Store
	movieService     *services.MovieService
	phraseService    *services.PhraseService
	issueService     *services.IssueService
	analyticsService *services.AnalyticsService
	ingestion        *workflow.SceneIngestionWorkflow
}

// state is the single instance of StateManager for the server process.
var state = &StateManager{}

// SetupOS sets the environment variables the configuration loader uses to
// find the TOML files: the configuration directory and the runtime name,
// which selects the override file (e.g. ".env.local.toml").
func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

// GetConfig provides a singleton instance of the application configuration,
// loaded from the TOML files on first use.
func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os environment: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState initializes the application state: cloud clients, the catalog
// store, the domain services, and the ingestion workflow, wired together in
// dependency order.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		log.Fatalf("failed to create cloud clients: %v\n", err)
	}
	state.cloud = cloudClients

	store, err := services.OpenStore(ctx, config.Database.Path)
	if err != nil {
		log.Fatalf("failed to open catalog store: %v\n", err)
	}
	state.store = store

	state.movieService = services.NewMovieService(store)
	state.phraseService = services.NewPhraseService(store, cloudClients.Scenes, config.Storage.MoviesPrefix)
	state.issueService = services.NewIssueService(store, config.Issues.ReportsPerMinute, config.Issues.Burst)
	state.analyticsService = services.NewAnalyticsService(store)

	state.ingestion = workflow.NewSceneIngestionWorkflow(config, cloudClients, state.movieService, state.phraseService)
}

// CloseState releases the state's long-lived resources on shutdown.
func CloseState() {
	if state.store != nil {
		if err := state.store.Close(); err != nil {
			log.Printf("failed to close catalog store: %v\n", err)
		}
	}
	if state.cloud != nil {
		if err := state.cloud.Close(); err != nil {
			log.Printf("failed to close cloud clients: %v\n", err)
		}
	}
}
