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
	"fmt"

	"github.com/spf13/cobra"
)

// version is stamped at build time via -ldflags.
var version = "dev"

// --- Global Command Variables ---
var (
	exportOutputPath string

	rootCmd = &cobra.Command{
		Use:   "credlens",
		Short: "A cli to manage the CredLens credit-explanation study platform",
		Long: `CredLens runs a behavioral study on explainable credit decisions.
This tool manages the study server, the offline ML pipeline, and the
collected study data.`,
	}

	// --- Server ---
	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the study API server (survey UI, v1 API, researcher dashboard)",
		Run:   runServe, // Defined in cmd_serve.go
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Run:   runMigrate, // Defined in cmd_serve.go
	}

	// --- ML Pipeline ---
	pipelineCmd = &cobra.Command{
		Use:   "pipeline",
		Short: "Run stages of the offline credit-model pipeline",
	}
	pipelineFetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "Download and cache the German Credit dataset",
		Run:   runPipelineFetch, // Defined in cmd_pipeline.go
	}
	pipelineTrainCmd = &cobra.Command{
		Use:   "train",
		Short: "Train the credit model and write the model + EDA artifacts",
		Run:   runPipelineTrain, // Defined in cmd_pipeline.go
	}
	pipelineExplainCmd = &cobra.Command{
		Use:   "explain",
		Short: "Generate persona explanations from the trained model",
		Run:   runPipelineExplain, // Defined in cmd_pipeline.go
	}
	pipelineUploadCmd = &cobra.Command{
		Use:   "upload",
		Short: "Upload the pipeline artifacts to GCS",
		Run:   runPipelineUpload, // Defined in cmd_pipeline.go
	}

	// --- Study Data ---
	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Export the full study dataset as CSV",
		Run:   runExport, // Defined in cmd_data.go
	}
	wipeCmd = &cobra.Command{
		Use:   "wipe",
		Short: "DANGER: Deletes every session, rating, and questionnaire",
		Run:   runWipe, // Defined in cmd_data.go
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the credlens version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("credlens", version)
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)

	rootCmd.AddCommand(pipelineCmd)
	pipelineCmd.AddCommand(pipelineFetchCmd)
	pipelineCmd.AddCommand(pipelineTrainCmd)
	pipelineCmd.AddCommand(pipelineExplainCmd)
	pipelineCmd.AddCommand(pipelineUploadCmd)

	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOutputPath, "output", "o", "",
		"write the CSV to this file instead of stdout")
	rootCmd.AddCommand(wipeCmd)

	rootCmd.AddCommand(versionCmd)
}
