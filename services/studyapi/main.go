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
	"log"
	"log/slog"
	"os"

	"github.com/AleutianAI/CredLens/pkg/config"
	"github.com/AleutianAI/CredLens/services/studyapi/server"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.Load(); err != nil {
		log.Fatalf("Failed to load the config: %v", err)
	}

	if err := server.Run(context.Background(), config.Global); err != nil {
		log.Fatalf("studyapi exited: %v", err)
	}
}
