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
	"github.com/AleutianAI/CredLens/services/studyapi/server"
	"github.com/AleutianAI/CredLens/services/studyapi/store"
)

func runServe(cmd *cobra.Command, args []string) {
	fmt.Printf("Starting the CredLens study server on port %s\n", config.Global.Server.Port)
	if err := server.Run(context.Background(), config.Global); err != nil {
		log.Fatalf("Server exited: %v", err)
	}
}

func runMigrate(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	db := mustConnect(ctx)
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	fmt.Println("Database schema is up to date.")
}

// mustConnect opens the study store or exits. Shared by the data and
// pipeline commands.
func mustConnect(ctx context.Context) *store.Store {
	url := config.Global.Database.URL
	if url == "" {
		log.Fatal("No database configured: set CREDLENS_DATABASE_URL or database.url in credlens.yaml")
	}
	db, err := store.Connect(ctx, url)
	if err != nil {
		log.Fatalf("Failed to connect to Postgres: %v", err)
	}
	return db
}
