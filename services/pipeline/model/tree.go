// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package model implements the gradient-boosted tree classifier behind
// the credit decisions, the exact per-feature attribution over the
// trained ensemble, and the counterfactual search used by the
// explanation layers.
package model

import (
	"fmt"
	"math"
	"sort"
)

// Node is one node of a regression tree stored in a flat slice.
// Internal nodes route x[Feature] < Threshold to Left, otherwise Right.
// Leaf nodes (Left == -1) carry the output Value. Cover is the number of
// training rows that reached the node, which the attribution algorithm
// uses as split weights.
type Node struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Cover     float64 `json:"cover"`
}

// Leaf reports whether the node is terminal.
func (n Node) Leaf() bool { return n.Left < 0 }

// Tree is a depth-limited regression tree fit to gradient statistics.
type Tree struct {
	Nodes []Node `json:"nodes"`
}

// Predict returns the leaf value for a single row.
func (t *Tree) Predict(x []float64) float64 {
	i := 0
	for !t.Nodes[i].Leaf() {
		n := t.Nodes[i]
		if x[n.Feature] < n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
	return t.Nodes[i].Value
}

// treeParams bundle the regularized split criteria.
type treeParams struct {
	maxDepth     int
	minChildHess float64
	lambda       float64 // L2 regularization on leaf values
	gamma        float64 // minimum gain to split
}

// buildTree fits one tree to per-row gradients and hessians over the
// row subset rows, using Newton leaf values -G/(H+lambda).
func buildTree(x [][]float64, grad, hess []float64, rows []int, p treeParams) *Tree {
	t := &Tree{}
	t.grow(x, grad, hess, rows, 0, p)
	return t
}

func (t *Tree) grow(x [][]float64, grad, hess []float64, rows []int, depth int, p treeParams) int {
	var sumG, sumH float64
	for _, r := range rows {
		sumG += grad[r]
		sumH += hess[r]
	}

	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, Node{
		Left: -1, Right: -1,
		Value: -sumG / (sumH + p.lambda),
		Cover: float64(len(rows)),
	})

	if depth >= p.maxDepth || len(rows) < 2 {
		return id
	}

	feature, threshold, gain := bestSplit(x, grad, hess, rows, sumG, sumH, p)
	if gain <= p.gamma {
		return id
	}

	var left, right []int
	for _, r := range rows {
		if x[r][feature] < threshold {
			left = append(left, r)
		} else {
			right = append(right, r)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return id
	}

	t.Nodes[id].Feature = feature
	t.Nodes[id].Threshold = threshold
	leftID := t.grow(x, grad, hess, left, depth+1, p)
	rightID := t.grow(x, grad, hess, right, depth+1, p)
	t.Nodes[id].Left = leftID
	t.Nodes[id].Right = rightID
	return id
}

// bestSplit scans every feature's sorted unique values for the split
// with the highest regularized gain.
func bestSplit(x [][]float64, grad, hess []float64, rows []int, sumG, sumH float64, p treeParams) (int, float64, float64) {
	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	parentScore := sumG * sumG / (sumH + p.lambda)

	type stat struct{ v, g, h float64 }
	stats := make([]stat, len(rows))

	for f := 0; f < len(x[rows[0]]); f++ {
		for i, r := range rows {
			stats[i] = stat{x[r][f], grad[r], hess[r]}
		}
		sort.Slice(stats, func(i, j int) bool { return stats[i].v < stats[j].v })

		var gl, hl float64
		for i := 0; i < len(stats)-1; i++ {
			gl += stats[i].g
			hl += stats[i].h
			if stats[i].v == stats[i+1].v {
				continue
			}
			gr := sumG - gl
			hr := sumH - hl
			if hl < p.minChildHess || hr < p.minChildHess {
				continue
			}
			gain := 0.5 * (gl*gl/(hl+p.lambda) + gr*gr/(hr+p.lambda) - parentScore)
			if gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (stats[i].v + stats[i+1].v) / 2
			}
		}
	}
	if bestFeature < 0 {
		return 0, 0, 0
	}
	return bestFeature, bestThreshold, bestGain
}

// validate checks structural integrity after deserialization.
func (t *Tree) validate() error {
	if len(t.Nodes) == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	for i, n := range t.Nodes {
		if n.Leaf() {
			continue
		}
		if n.Left <= i || n.Left >= len(t.Nodes) || n.Right <= i || n.Right >= len(t.Nodes) {
			return fmt.Errorf("node %d has out-of-range children (%d, %d)", i, n.Left, n.Right)
		}
		if n.Cover <= 0 || math.IsNaN(n.Threshold) {
			return fmt.Errorf("node %d has invalid split statistics", i)
		}
	}
	return nil
}
