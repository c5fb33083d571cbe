// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

import "os"

type CredLensConfig struct {
	// Server: HTTP listener settings for the study API
	Server ServerConfig `yaml:"server"`

	// Database: Postgres connection for the study store
	Database DatabaseConfig `yaml:"database"`

	// Pipeline: offline ML pipeline settings (dataset, artifacts, upload)
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Narrative: backend for the narrative/chatbot explanation layer
	Narrative NarrativeConfig `yaml:"narrative"`

	// Timing: optional InfluxDB sink for step-timing events
	Timing TimingConfig `yaml:"timing"`
}

type ServerConfig struct {
	Port      string `yaml:"port"`       // e.g. "12310"
	StaticDir string `yaml:"static_dir"` // overrides the embedded survey UI when set
}

type DatabaseConfig struct {
	// URL is a pgx connection string. The CREDLENS_DATABASE_URL env var
	// takes precedence so containers never need the YAML file.
	URL string `yaml:"url"`
}

type PipelineConfig struct {
	DatasetURL   string `yaml:"dataset_url"`
	ArtifactDir  string `yaml:"artifact_dir"` // e.g. "~/.credlens/artifacts"
	GCSProjectID string `yaml:"gcs_project_id"`
	GCSBucket    string `yaml:"gcs_bucket"`
	GCSKeyPath   string `yaml:"gcs_key_path"`
}

type NarrativeConfig struct {
	// Backend can be "template" or "openai". Study mode pins "template"
	// so every participant sees identical wording.
	Backend string `yaml:"backend"`
}

type TimingConfig struct {
	URL    string `yaml:"url"`
	Org    string `yaml:"org"`
	Bucket string `yaml:"bucket"`
}

// DefaultDatasetURL is the UCI Statlog German Credit dataset used to
// train the credit model.
const DefaultDatasetURL = "https://archive.ics.uci.edu/ml/machine-learning-databases/statlog/german/german.data"

func DefaultConfig() CredLensConfig {
	return CredLensConfig{
		Server: ServerConfig{
			Port: "12310",
		},
		Pipeline: PipelineConfig{
			DatasetURL:  DefaultDatasetURL,
			ArtifactDir: "~/.credlens/artifacts",
		},
		Narrative: NarrativeConfig{
			Backend: "template",
		},
		Timing: TimingConfig{
			Bucket: "credlens-timing",
		},
	}
}

// applyEnv lets container deployments override the YAML file without
// touching the filesystem.
func (c *CredLensConfig) applyEnv() {
	if v := os.Getenv("CREDLENS_PORT"); v != "" {
		c.Server.Port = v
	}
	if v := os.Getenv("CREDLENS_DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("CREDLENS_DATASET_URL"); v != "" {
		c.Pipeline.DatasetURL = v
	}
	if v := os.Getenv("CREDLENS_ARTIFACT_DIR"); v != "" {
		c.Pipeline.ArtifactDir = v
	}
	if v := os.Getenv("CREDLENS_GCS_PROJECT"); v != "" {
		c.Pipeline.GCSProjectID = v
	}
	if v := os.Getenv("CREDLENS_GCS_BUCKET"); v != "" {
		c.Pipeline.GCSBucket = v
	}
	if v := os.Getenv("CREDLENS_GCS_KEY_PATH"); v != "" {
		c.Pipeline.GCSKeyPath = v
	}
	if v := os.Getenv("CREDLENS_NARRATIVE_BACKEND"); v != "" {
		c.Narrative.Backend = v
	}
	if v := os.Getenv("INFLUXDB_URL"); v != "" {
		c.Timing.URL = v
	}
	if v := os.Getenv("INFLUXDB_ORG"); v != "" {
		c.Timing.Org = v
	}
	if v := os.Getenv("INFLUXDB_BUCKET"); v != "" {
		c.Timing.Bucket = v
	}
}
