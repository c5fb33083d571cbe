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
	"log"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/CredLens/pkg/config"
	"github.com/AleutianAI/CredLens/pkg/logging"
)

var cliLogger *logging.Logger

func main() {
	defer func() {
		if cliLogger != nil {
			cliLogger.Close()
		}
	}()

	// Execute the root command. Cobra handles parsing the arguments.
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		if err := config.Load(); err != nil {
			log.Fatalf("Error loading the CredLens config: %v", err)
		}
		// Mirror structured logs to ~/.credlens/logs so pipeline runs
		// leave an audit trail next to their artifacts.
		cliLogger = logging.New(logging.Config{
			Level:   logging.LevelInfo,
			LogDir:  "~/.credlens/logs",
			Service: "cli",
		})
		slog.SetDefault(cliLogger.Slog())
	}
}
