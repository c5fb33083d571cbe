// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package pipeline orchestrates the offline steps: fetch the dataset,
// train the model, generate persona explanations, and upload artifacts.
// The CLI and the admin endpoints both drive this runner.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/AleutianAI/CredLens/pkg/config"
	"github.com/AleutianAI/CredLens/services/pipeline/artifacts"
	"github.com/AleutianAI/CredLens/services/pipeline/credit"
	"github.com/AleutianAI/CredLens/services/pipeline/eda"
	"github.com/AleutianAI/CredLens/services/pipeline/explaingen"
	"github.com/AleutianAI/CredLens/services/pipeline/model"
)

const (
	ModelFileName        = "model.json"
	ExplanationsFileName = "explanations.json"
	EDAFileName          = "eda.json"
)

// Runner holds the resolved pipeline configuration.
type Runner struct {
	cfg      config.PipelineConfig
	trainCfg model.TrainConfig
	dir      string // expanded artifact dir
}

// NewRunner builds a Runner from configuration.
func NewRunner(cfg config.PipelineConfig) *Runner {
	return &Runner{
		cfg:      cfg,
		trainCfg: model.DefaultTrainConfig(),
		dir:      config.ExpandPath(cfg.ArtifactDir),
	}
}

// ModelPath returns the local path of the trained model artifact.
func (r *Runner) ModelPath() string { return filepath.Join(r.dir, ModelFileName) }

// ExplanationsPath returns the local path of the explanations artifact.
func (r *Runner) ExplanationsPath() string { return filepath.Join(r.dir, ExplanationsFileName) }

// Fetch downloads (or reuses) the cached dataset and returns its path.
func (r *Runner) Fetch(ctx context.Context) (string, error) {
	return credit.NewFetcher(r.cfg.DatasetURL, r.dir).Fetch(ctx)
}

// Train fetches the dataset, trains the classifier, and writes the
// model and EDA artifacts.
func (r *Runner) Train(ctx context.Context) (*model.Ensemble, error) {
	ds, err := r.loadDataset(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(ds.Features))
	for i, f := range ds.Features {
		names[i] = f.Name
	}
	ens, err := model.Train(ds.X, ds.Y, names, r.trainCfg)
	if err != nil {
		return nil, fmt.Errorf("train model: %w", err)
	}
	if err := ens.Save(r.ModelPath()); err != nil {
		return nil, err
	}
	if err := eda.Summarize(ds).Write(filepath.Join(r.dir, EDAFileName)); err != nil {
		return nil, err
	}
	slog.Info("Pipeline train complete", "model_version", ens.Version, "artifact_dir", r.dir)
	return ens, nil
}

// Explain loads the trained model, scores the personas, writes the
// explanations artifact, and loads predictions into the store.
func (r *Runner) Explain(ctx context.Context, db explaingen.PredictionStore) error {
	ens, err := model.LoadEnsemble(r.ModelPath())
	if err != nil {
		return err
	}
	ds, err := r.loadDataset(ctx)
	if err != nil {
		return err
	}

	preds, err := explaingen.Generate(ens, ds)
	if err != nil {
		return fmt.Errorf("generate explanations: %w", err)
	}
	if err := explaingen.WriteArtifact(preds, r.ExplanationsPath()); err != nil {
		return err
	}
	if db != nil {
		if err := explaingen.Store(ctx, db, preds); err != nil {
			return err
		}
	}
	return nil
}

// Upload pushes the artifact directory to GCS under the model version.
func (r *Runner) Upload(ctx context.Context) error {
	ens, err := model.LoadEnsemble(r.ModelPath())
	if err != nil {
		return err
	}
	client, err := artifacts.NewGCSClient(ctx, r.cfg.GCSBucket, config.ExpandPath(r.cfg.GCSKeyPath))
	if err != nil {
		return err
	}
	defer client.Close()

	prefix := filepath.Join("credlens", ens.Version)
	if err := client.UploadDir(ctx, r.dir, prefix); err != nil {
		return fmt.Errorf("upload artifacts: %w", err)
	}
	slog.Info("Artifacts uploaded", "bucket", r.cfg.GCSBucket, "prefix", prefix)
	return nil
}

func (r *Runner) loadDataset(ctx context.Context) (*credit.Dataset, error) {
	ds, err := credit.Load(ctx, credit.NewFetcher(r.cfg.DatasetURL, r.dir))
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return ds, nil
}
