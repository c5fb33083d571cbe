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
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/CredLens/services/studyapi/handlers"
)

func runExport(cmd *cobra.Command, args []string) {
	ctx := context.Background()
	db := mustConnect(ctx)
	defer db.Close()

	out := os.Stdout
	if exportOutputPath != "" {
		f, err := os.Create(exportOutputPath)
		if err != nil {
			log.Fatalf("Failed to create the output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	rows, err := db.ExportCSV(ctx, out)
	if err != nil {
		log.Fatalf("Export failed after %d rows: %v", rows, err)
	}
	if exportOutputPath != "" {
		fmt.Fprintf(os.Stderr, "Exported %d rows to %s\n", rows, exportOutputPath)
	}
}

func runWipe(cmd *cobra.Command, args []string) {
	fmt.Println("This deletes every session, rating, and questionnaire. Predictions are kept.")
	fmt.Printf("Type exactly %q to continue: ", handlers.WipeConfirmPhrase)

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		log.Fatalf("Failed to read confirmation: %v", err)
	}
	if strings.TrimSpace(line) != handlers.WipeConfirmPhrase {
		fmt.Println("Confirmation did not match. Nothing was deleted.")
		os.Exit(1)
	}

	ctx := context.Background()
	db := mustConnect(ctx)
	defer db.Close()

	deleted, err := db.DeleteAllStudyData(ctx)
	if err != nil {
		log.Fatalf("Wipe failed: %v", err)
	}
	fmt.Printf("Deleted %d sessions and all dependent study data.\n", deleted)
}
