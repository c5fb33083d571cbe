// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package model

import (
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

// rocAUC computes the area under the ROC curve for predicted scores and
// boolean positive labels.
func rocAUC(scores []float64, positive []bool) float64 {
	if len(scores) == 0 {
		return 0
	}

	// stat.ROC requires scores sorted ascending with labels in lockstep.
	idx := make([]int, len(scores))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool { return scores[idx[i]] < scores[idx[j]] })

	y := make([]float64, len(scores))
	classes := make([]bool, len(scores))
	for i, j := range idx {
		y[i] = scores[j]
		classes[i] = positive[j]
	}

	tpr, fpr, _ := stat.ROC(nil, y, classes, nil)
	return integrate.Trapezoidal(fpr, tpr)
}
