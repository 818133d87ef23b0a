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

// Package cloud provides configuration and external service clients. This
// file defines the object-storage abstraction for scene clips and its Google
// Cloud Storage implementation.
//
// The pipeline only needs four operations — stream a clip in, delete one,
// delete a movie's whole folder, and mint a time-limited streaming URL — so
// that is the whole interface. Tests substitute an in-memory implementation.
package cloud

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	credentials "cloud.google.com/go/iam/credentials/apiv1"
	"cloud.google.com/go/iam/credentials/apiv1/credentialspb"
	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// SceneStorage is the object-storage capability the scene pipeline and the
// phrase catalog depend on.
type SceneStorage interface {
	// Put streams a clip to storage under the given key, overwriting any
	// existing object.
	Put(ctx context.Context, key string, r io.Reader) error
	// Delete removes a single object. Deleting a missing object is an error.
	Delete(ctx context.Context, key string) error
	// DeleteFolder removes every object under the given key prefix. Used
	// when a movie's phrases are purged.
	DeleteFolder(ctx context.Context, prefix string) error
	// SignedURL mints a time-limited GET URL for streaming a stored clip.
	SignedURL(ctx context.Context, key string, expires time.Duration) (string, error)
}

// SceneKey derives the storage key for a phrase's clip:
// "<prefix>/<movie id>/<phrase id><ext>". The extension comes from the
// source media file, since the trimming tool preserves the container format.
func SceneKey(prefix, movieID, phraseID, extension string) string {
	return path.Join(prefix, movieID, phraseID+extension)
}

// GCSSceneStorage implements SceneStorage on a Google Cloud Storage bucket.
// Streaming URLs are signed through the IAM Credentials API (SignBlob) so no
// service-account key file is needed on the instance.
type GCSSceneStorage struct {
	Client      *storage.Client
	IAMClient   *credentials.IamCredentialsClient
	Bucket      string
	SignerEmail string
}

func (s *GCSSceneStorage) Put(ctx context.Context, key string, r io.Reader) error {
	wc := s.Client.Bucket(s.Bucket).Object(key).NewWriter(ctx)
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return fmt.Errorf("failed to write gs://%s/%s: %w", s.Bucket, key, err)
	}
	// Close finalizes the upload; an error here means the object was not
	// durably stored.
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to finalize gs://%s/%s: %w", s.Bucket, key, err)
	}
	return nil
}

func (s *GCSSceneStorage) Delete(ctx context.Context, key string) error {
	if err := s.Client.Bucket(s.Bucket).Object(key).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete gs://%s/%s: %w", s.Bucket, key, err)
	}
	return nil
}

func (s *GCSSceneStorage) DeleteFolder(ctx context.Context, prefix string) error {
	// GCS has no real folders; list by prefix and delete each object.
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	itr := s.Client.Bucket(s.Bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := itr.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to list gs://%s/%s: %w", s.Bucket, prefix, err)
		}
		if err := s.Client.Bucket(s.Bucket).Object(attrs.Name).Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete gs://%s/%s: %w", s.Bucket, attrs.Name, err)
		}
	}
	return nil
}

func (s *GCSSceneStorage) SignedURL(ctx context.Context, key string, expires time.Duration) (string, error) {
	opts := &storage.SignedURLOptions{
		Scheme:         storage.SigningSchemeV4,
		Method:         "GET",
		Expires:        time.Now().Add(expires),
		GoogleAccessID: s.SignerEmail,
		// Sign through the IAM Credentials API using the configured service
		// account, which works on GCP infrastructure without key files.
		SignBytes: func(b []byte) ([]byte, error) {
			req := &credentialspb.SignBlobRequest{
				Name:    fmt.Sprintf("projects/-/serviceAccounts/%s", s.SignerEmail),
				Payload: b,
			}
			resp, err := s.IAMClient.SignBlob(ctx, req)
			if err != nil {
				return nil, fmt.Errorf("IAMClient.SignBlob: %w", err)
			}
			return resp.SignedBlob, nil
		},
	}

	u, err := s.Client.Bucket(s.Bucket).SignedURL(key, opts)
	if err != nil {
		return "", fmt.Errorf("Bucket(%q).SignedURL(%q): %w", s.Bucket, key, err)
	}
	return u, nil
}
