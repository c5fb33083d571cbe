// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/CredLens/pkg/config"
	"github.com/AleutianAI/CredLens/services/pipeline"
	"github.com/AleutianAI/CredLens/services/pipeline/explaingen"
)

func runPipelineFetch(cmd *cobra.Command, args []string) {
	runner := pipeline.NewRunner(config.Global.Pipeline)
	path, err := runner.Fetch(context.Background())
	if err != nil {
		log.Fatalf("Dataset fetch failed: %v", err)
	}
	fmt.Printf("Dataset cached at %s\n", path)
}

func runPipelineTrain(cmd *cobra.Command, args []string) {
	runner := pipeline.NewRunner(config.Global.Pipeline)
	fmt.Println("Training the credit model...")
	ens, err := runner.Train(context.Background())
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}
	fmt.Printf("Trained model %s: AUC %.4f, accuracy %.4f\n",
		ens.Version, ens.Metrics.AUC, ens.Metrics.Accuracy)
	fmt.Printf("Artifacts written to %s\n", runner.ModelPath())
}

func runPipelineExplain(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	runner := pipeline.NewRunner(config.Global.Pipeline)

	// Store the predictions when a database is configured; otherwise the
	// JSON artifact is still written for later loading.
	var predStore explaingen.PredictionStore
	if config.Global.Database.URL != "" {
		db := mustConnect(ctx)
		defer db.Close()
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		predStore = db
	} else {
		fmt.Println("No database configured, writing the explanations artifact only.")
	}

	if err := runner.Explain(ctx, predStore); err != nil {
		log.Fatalf("Explanation generation failed: %v", err)
	}
	fmt.Printf("Explanations written to %s\n", runner.ExplanationsPath())
}

func runPipelineUpload(cmd *cobra.Command, args []string) {
	fmt.Println("Uploading pipeline artifacts to GCS...")
	runner := pipeline.NewRunner(config.Global.Pipeline)
	if err := runner.Upload(context.Background()); err != nil {
		log.Fatalf("Upload failed: %v", err)
	}
	fmt.Println("Upload complete.")
}
