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
	"math"
	"sort"
)

// FeatureDomain describes the search space of one feature for the
// counterfactual search. Values are the candidate settings observed in
// the training data; immutable features are never perturbed.
type FeatureDomain struct {
	Mutable bool
	Values  []float64 // sorted unique training values
}

// Flip is a single-feature perturbation that crosses the decision
// boundary.
type Flip struct {
	FeatureIndex   int
	From           float64
	To             float64
	NewProbability float64
	Distance       float64 // normalized size of the change
}

// FindFlips searches each mutable feature for the smallest value change
// that moves the row across threshold, returning at most maxResults
// flips ordered by how small the change is.
//
// The search is exhaustive over observed feature values rather than a
// gradient method: with 20 features and at most a few hundred distinct
// values each, brute force is exact and fast enough.
func (e *Ensemble) FindFlips(x []float64, domains []FeatureDomain, threshold float64, maxResults int) []Flip {
	baseline := e.Probability(x)
	wantHigher := baseline < threshold

	var flips []Flip
	probe := make([]float64, len(x))
	for f, dom := range domains {
		if !dom.Mutable || len(dom.Values) < 2 {
			continue
		}
		span := dom.Values[len(dom.Values)-1] - dom.Values[0]
		if span == 0 {
			continue
		}

		best := Flip{FeatureIndex: -1}
		for _, v := range dom.Values {
			if v == x[f] {
				continue
			}
			copy(probe, x)
			probe[f] = v
			p := e.Probability(probe)
			crossed := (wantHigher && p >= threshold) || (!wantHigher && p < threshold)
			if !crossed {
				continue
			}
			d := math.Abs(v-x[f]) / span
			if best.FeatureIndex < 0 || d < best.Distance {
				best = Flip{FeatureIndex: f, From: x[f], To: v, NewProbability: p, Distance: d}
			}
		}
		if best.FeatureIndex >= 0 {
			flips = append(flips, best)
		}
	}

	sort.Slice(flips, func(i, j int) bool { return flips[i].Distance < flips[j].Distance })
	if len(flips) > maxResults {
		flips = flips[:maxResults]
	}
	return flips
}

// BuildDomains derives per-feature search domains from the training
// matrix, respecting the mutability mask.
func BuildDomains(x [][]float64, mutable []bool) []FeatureDomain {
	if len(x) == 0 {
		return nil
	}
	domains := make([]FeatureDomain, len(x[0]))
	for f := range domains {
		seen := map[float64]bool{}
		for _, row := range x {
			seen[row[f]] = true
		}
		values := make([]float64, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Float64s(values)
		domains[f] = FeatureDomain{Mutable: mutable[f], Values: values}
	}
	return domains
}
