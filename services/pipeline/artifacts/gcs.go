// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package artifacts uploads pipeline outputs (model, SHAP explanations,
// EDA report) to a GCS bucket under a model-version prefix.
package artifacts

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/option"
)

// uploadConcurrency caps parallel object writes in UploadDir.
const uploadConcurrency = 4

type GCSClient struct {
	storageClient *storage.Client
	BucketName    string
}

// NewGCSClient creates a client using a service account key file.
func NewGCSClient(ctx context.Context, bucketName, saKeyPath string) (*GCSClient, error) {
	if _, err := os.Stat(saKeyPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("service account key not found at path: %s. Please ensure you have the correct key and it is accessible", saKeyPath)
	}

	storageClient, err := storage.NewClient(ctx, option.WithCredentialsFile(saKeyPath))
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS storage client: %w", err)
	}

	return &GCSClient{
		storageClient: storageClient,
		BucketName:    bucketName,
	}, nil
}

// Close releases the underlying client.
func (c *GCSClient) Close() error {
	return c.storageClient.Close()
}

// UploadFile copies one local artifact to gs://bucket/gcsPath. Object
// names include the model version, so re-running an upload overwrites
// the same objects rather than accumulating copies.
func (c *GCSClient) UploadFile(ctx context.Context, localPath, gcsPath string) error {
	localFile, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open the local file: %s: %w", localPath, err)
	}
	defer localFile.Close()

	obj := c.storageClient.Bucket(c.BucketName).Object(gcsPath)
	writer := obj.NewWriter(ctx)
	writer.ContentType = "application/json"
	writer.CacheControl = "no-cache, no-store, must-revalidate"

	if _, err := io.Copy(writer, localFile); err != nil {
		return fmt.Errorf("failed to copy local file %s to GCS object %s: %w", localPath, gcsPath, err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close GCS writer for %s: %w", gcsPath, err)
	}
	slog.Info("Uploaded artifact", "local", localPath, "object", fmt.Sprintf("gs://%s/%s", c.BucketName, gcsPath))
	return nil
}

// UploadDir uploads every regular file under localDir to the given
// version prefix. Files upload in parallel; the first failure cancels
// the rest.
func (c *GCSClient) UploadDir(ctx context.Context, localDir, versionPrefix string) error {
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(uploadConcurrency)

	err := filepath.Walk(localDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		gcsPath := filepath.Join(versionPrefix, info.Name())
		group.Go(func() error {
			return c.UploadFile(groupCtx, path, gcsPath)
		})
		return nil
	})
	if err != nil {
		return err
	}
	return group.Wait()
}
