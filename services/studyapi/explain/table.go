// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package explain

import (
	"math"
	"sort"

	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
)

// TableRow is one ranked contribution in the table layer.
type TableRow struct {
	Rank      int     `json:"rank"`
	Feature   string  `json:"feature"`
	Label     string  `json:"label"`
	Value     string  `json:"value"`
	SHAP      float64 `json:"shap"`
	Direction string  `json:"direction"` // "toward_reject" or "toward_approve"
	Share     float64 `json:"share"`     // |shap| / sum(|shap|)
}

// TableLayer is the payload of the SHAP table explanation.
type TableLayer struct {
	PersonaID   string     `json:"persona_id"`
	Decision    string     `json:"decision"`
	Probability float64    `json:"probability"`
	Rows        []TableRow `json:"rows"`
}

// BuildTable ranks all feature contributions by absolute attribution.
// Positive attributions push toward rejection because the model scores
// probability of rejection.
func BuildTable(pred *datatypes.Prediction) *TableLayer {
	rows := make([]TableRow, 0, len(pred.Attributions))
	var totalAbs float64
	for _, a := range pred.Attributions {
		totalAbs += math.Abs(a.SHAP)
	}
	for _, a := range pred.Attributions {
		dir := "toward_approve"
		if a.SHAP > 0 {
			dir = "toward_reject"
		}
		share := 0.0
		if totalAbs > 0 {
			share = math.Abs(a.SHAP) / totalAbs
		}
		rows = append(rows, TableRow{
			Feature:   a.Feature,
			Label:     a.Label,
			Value:     a.Display,
			SHAP:      a.SHAP,
			Direction: dir,
			Share:     share,
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return math.Abs(rows[i].SHAP) > math.Abs(rows[j].SHAP)
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
	return &TableLayer{
		PersonaID:   pred.PersonaID,
		Decision:    pred.Decision,
		Probability: pred.Probability,
		Rows:        rows,
	}
}
