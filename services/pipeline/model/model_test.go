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
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// syntheticData builds a dataset where the label depends on two of four
// features, with a deterministic noise source.
func syntheticData(n int, seed int64) ([][]float64, []int) {
	rng := rand.New(rand.NewSource(seed))
	x := make([][]float64, n)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		row := []float64{
			rng.Float64() * 10, // signal
			rng.Float64() * 4,  // signal
			rng.Float64(),      // noise
			float64(rng.Intn(3)),
		}
		score := row[0] - 2*row[1] + rng.NormFloat64()*0.3
		if score > 1 {
			y[i] = 1
		}
		x[i] = row
	}
	return x, y
}

var testFeatureNames = []string{"income", "debt", "noise", "category"}

func smallConfig() TrainConfig {
	cfg := DefaultTrainConfig()
	cfg.Rounds = 30
	return cfg
}

func TestTrainLearnsSignal(t *testing.T) {
	x, y := syntheticData(600, 1)
	ens, err := Train(x, y, testFeatureNames, smallConfig())
	require.NoError(t, err)
	require.NoError(t, ens.Validate())

	assert.Greater(t, ens.Metrics.Accuracy, 0.85)
	assert.Greater(t, ens.Metrics.AUC, 0.9)
	assert.Less(t, ens.Metrics.TrainLoss, 0.5)
}

func TestTrainIsDeterministic(t *testing.T) {
	x, y := syntheticData(300, 2)
	a, err := Train(x, y, testFeatureNames, smallConfig())
	require.NoError(t, err)
	b, err := Train(x, y, testFeatureNames, smallConfig())
	require.NoError(t, err)

	require.Equal(t, len(a.Trees), len(b.Trees))
	for i := range x {
		assert.Equal(t, a.Margin(x[i]), b.Margin(x[i]), "row %d", i)
	}
}

func TestTrainRejectsBadInput(t *testing.T) {
	_, err := Train(nil, nil, testFeatureNames, smallConfig())
	assert.Error(t, err)

	x, y := syntheticData(10, 3)
	_, err = Train(x, y, []string{"only_one"}, smallConfig())
	assert.Error(t, err)
}

func TestExplainAdditivity(t *testing.T) {
	x, y := syntheticData(400, 4)
	ens, err := Train(x, y, testFeatureNames, smallConfig())
	require.NoError(t, err)

	for i := 0; i < 50; i++ {
		attr := ens.Explain(x[i])
		sum := attr.BaseValue
		for _, phi := range attr.Phi {
			sum += phi
		}
		assert.InDelta(t, ens.Margin(x[i]), sum, 1e-9, "row %d", i)
	}
}

// repeatedSplitTree splits feature 0 twice on its left path, the shape
// depth-limited boosting produces constantly.
func repeatedSplitTree() Tree {
	return Tree{Nodes: []Node{
		{Feature: 0, Threshold: 0.5, Left: 1, Right: 2, Cover: 10},
		{Feature: 1, Threshold: 0.5, Left: 3, Right: 4, Cover: 6},
		{Left: -1, Right: -1, Value: 5, Cover: 4},
		{Feature: 0, Threshold: 0.25, Left: 5, Right: 6, Cover: 4},
		{Left: -1, Right: -1, Value: 3, Cover: 2},
		{Left: -1, Right: -1, Value: -2, Cover: 1},
		{Left: -1, Right: -1, Value: 1, Cover: 3},
	}}
}

// condExpectation walks the tree conditioning on the features in s and
// averaging over the cover distribution for the rest.
func condExpectation(tr Tree, node int, x []float64, s uint) float64 {
	n := tr.Nodes[node]
	if n.Leaf() {
		return n.Value
	}
	if s&(1<<uint(n.Feature)) != 0 {
		if x[n.Feature] < n.Threshold {
			return condExpectation(tr, n.Left, x, s)
		}
		return condExpectation(tr, n.Right, x, s)
	}
	l, r := tr.Nodes[n.Left], tr.Nodes[n.Right]
	return (l.Cover*condExpectation(tr, n.Left, x, s) +
		r.Cover*condExpectation(tr, n.Right, x, s)) / n.Cover
}

// exactShapley enumerates every feature subset. Only usable for tiny
// feature counts; it is the ground truth the path algorithm must match.
func exactShapley(tr Tree, x []float64) []float64 {
	nf := len(x)
	fact := func(k int) float64 {
		f := 1.0
		for i := 2; i <= k; i++ {
			f *= float64(i)
		}
		return f
	}
	phi := make([]float64, nf)
	for j := 0; j < nf; j++ {
		for mask := uint(0); mask < 1<<uint(nf); mask++ {
			if mask&(1<<uint(j)) != 0 {
				continue
			}
			size := 0
			for b := 0; b < nf; b++ {
				if mask&(1<<uint(b)) != 0 {
					size++
				}
			}
			weight := fact(size) * fact(nf-size-1) / fact(nf)
			with := condExpectation(tr, 0, x, mask|1<<uint(j))
			without := condExpectation(tr, 0, x, mask)
			phi[j] += weight * (with - without)
		}
	}
	return phi
}

func TestExplainRepeatedFeatureOnPath(t *testing.T) {
	tr := repeatedSplitTree()
	ens := &Ensemble{
		FeatureNames: []string{"f0", "f1"},
		Trees:        []*Tree{&tr},
	}

	// Rows landing in every leaf, including both sides of the repeated
	// feature-0 split.
	rows := [][]float64{
		{0.1, 0.1},
		{0.3, 0.2},
		{0.4, 0.9},
		{0.7, 0.3},
	}
	for _, x := range rows {
		attr := ens.Explain(x)

		sum := attr.BaseValue
		for _, phi := range attr.Phi {
			sum += phi
		}
		assert.InDelta(t, ens.Margin(x), sum, 1e-9, "row %v", x)

		want := exactShapley(*ens.Trees[0], x)
		for f := range want {
			assert.InDelta(t, want[f], attr.Phi[f], 1e-9, "row %v feature %d", x, f)
		}
	}
}

func TestExplainRanksSignalFeatures(t *testing.T) {
	x, y := syntheticData(600, 5)
	ens, err := Train(x, y, testFeatureNames, smallConfig())
	require.NoError(t, err)

	// Mean absolute attribution of the signal features must dominate the
	// pure-noise feature.
	absPhi := make([]float64, len(testFeatureNames))
	for i := 0; i < 200; i++ {
		attr := ens.Explain(x[i])
		for f, phi := range attr.Phi {
			absPhi[f] += math.Abs(phi)
		}
	}
	assert.Greater(t, absPhi[0], absPhi[2])
	assert.Greater(t, absPhi[1], absPhi[2])
}

func TestExpectedValueMatchesBaseValue(t *testing.T) {
	x, y := syntheticData(200, 6)
	ens, err := Train(x, y, testFeatureNames, smallConfig())
	require.NoError(t, err)

	attr := ens.Explain(x[0])
	assert.InDelta(t, ens.ExpectedValue(), attr.BaseValue, 1e-12)
}

func TestFindFlips(t *testing.T) {
	x, y := syntheticData(600, 7)
	ens, err := Train(x, y, testFeatureNames, smallConfig())
	require.NoError(t, err)

	mutable := []bool{true, true, true, false}
	domains := BuildDomains(x, mutable)

	// Find a clearly rejected row and ask for flips.
	var row []float64
	for i := range x {
		if ens.Probability(x[i]) > 0.9 {
			row = x[i]
			break
		}
	}
	require.NotNil(t, row, "no high-probability row found")

	flips := ens.FindFlips(row, domains, 0.5, 3)
	require.NotEmpty(t, flips)
	for _, f := range flips {
		assert.True(t, mutable[f.FeatureIndex], "immutable feature %d was perturbed", f.FeatureIndex)
		assert.Less(t, f.NewProbability, 0.5)
		assert.NotEqual(t, f.From, f.To)
	}
	// Ordered by smallest normalized change.
	for i := 1; i < len(flips); i++ {
		assert.LessOrEqual(t, flips[i-1].Distance, flips[i].Distance)
	}
}

func TestBuildDomains(t *testing.T) {
	x := [][]float64{{1, 5}, {2, 5}, {1, 7}}
	domains := BuildDomains(x, []bool{true, false})
	require.Len(t, domains, 2)
	assert.Equal(t, []float64{1, 2}, domains[0].Values)
	assert.True(t, domains[0].Mutable)
	assert.False(t, domains[1].Mutable)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	x, y := syntheticData(200, 8)
	ens, err := Train(x, y, testFeatureNames, smallConfig())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, ens.Save(path))

	loaded, err := LoadEnsemble(path)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		assert.Equal(t, ens.Margin(x[i]), loaded.Margin(x[i]))
	}
}

func TestLoadEnsembleRejectsCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"trees": []}`), 0o644))
	_, err := LoadEnsemble(path)
	assert.Error(t, err)
}
