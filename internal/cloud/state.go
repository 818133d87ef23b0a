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

package cloud

import (
	"context"
	"fmt"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/storage"
)

// ServiceClients holds the Google Cloud clients the server shares across
// requests, plus the SceneStorage built on top of them.
type ServiceClients struct {
	StorageClient *storage.Client
	IAMClient     *credentials.IamCredentialsClient
	Scenes        SceneStorage
}

// NewCloudServiceClients creates the shared cloud clients from the given
// configuration. The caller owns the result and should Close it on shutdown.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}

	iamClient, err := credentials.NewIamCredentialsClient(ctx)
	if err != nil {
		_ = storageClient.Close()
		return nil, fmt.Errorf("failed to create IAM credentials client: %w", err)
	}

	return &ServiceClients{
		StorageClient: storageClient,
		IAMClient:     iamClient,
		Scenes: &GCSSceneStorage{
			Client:      storageClient,
			IAMClient:   iamClient,
			Bucket:      config.Storage.SceneBucket,
			SignerEmail: config.Storage.SignerServiceAccountEmail,
		},
	}, nil
}

// Close releases the underlying client connections.
func (s *ServiceClients) Close() error {
	var firstErr error
	if s.IAMClient != nil {
		if err := s.IAMClient.Close(); err != nil {
			firstErr = err
		}
	}
	if s.StorageClient != nil {
		if err := s.StorageClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
