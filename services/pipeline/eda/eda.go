// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package eda computes summary statistics of the training dataset and
// writes them as a JSON artifact consumed by the researcher dashboard.
package eda

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/AleutianAI/CredLens/services/pipeline/credit"
)

// FeatureSummary holds the per-column statistics.
type FeatureSummary struct {
	Name             string  `json:"name"`
	Label            string  `json:"label"`
	Mean             float64 `json:"mean"`
	StdDev           float64 `json:"std_dev"`
	Min              float64 `json:"min"`
	Max              float64 `json:"max"`
	LabelCorrelation float64 `json:"label_correlation"` // point-biserial vs reject label
}

// Report is the full EDA artifact.
type Report struct {
	GeneratedAt  time.Time        `json:"generated_at"`
	Rows         int              `json:"rows"`
	RejectCount  int              `json:"reject_count"`
	RejectRate   float64          `json:"reject_rate"`
	Features     []FeatureSummary `json:"features"`
}

// Summarize computes the report for a parsed dataset.
func Summarize(ds *credit.Dataset) *Report {
	n := ds.Rows()
	rep := &Report{
		GeneratedAt: time.Now().UTC(),
		Rows:        n,
	}
	for _, y := range ds.Y {
		rep.RejectCount += y
	}
	rep.RejectRate = float64(rep.RejectCount) / float64(n)

	labels := make([]float64, n)
	for i, y := range ds.Y {
		labels[i] = float64(y)
	}

	col := make([]float64, n)
	for f, spec := range ds.Features {
		minV, maxV := ds.X[0][f], ds.X[0][f]
		for i := range ds.X {
			v := ds.X[i][f]
			col[i] = v
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
		mean, std := stat.MeanStdDev(col, nil)
		rep.Features = append(rep.Features, FeatureSummary{
			Name:             spec.Name,
			Label:            spec.Label,
			Mean:             mean,
			StdDev:           std,
			Min:              minV,
			Max:              maxV,
			LabelCorrelation: stat.Correlation(col, labels, nil),
		})
	}
	return rep
}

// Write stores the report as an indented JSON artifact.
func (r *Report) Write(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create eda dir: %w", err)
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal eda report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write eda report %s: %w", path, err)
	}
	return nil
}
