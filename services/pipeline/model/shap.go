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

// Exact per-feature attribution over the trained ensemble using the
// polynomial-time path algorithm (Lundberg et al., "Consistent
// Individualized Feature Attribution for Tree Ensembles"). Attributions
// are additive on the margin scale: BaseValue + sum(phi) equals
// Margin(x) up to floating-point error.

// Attribution is the result of explaining one row.
type Attribution struct {
	BaseValue float64   // cover-weighted expected margin of the ensemble
	Phi       []float64 // per-feature contributions, margin scale
}

// Explain computes exact attributions for a single row.
func (e *Ensemble) Explain(x []float64) Attribution {
	phi := make([]float64, len(x))
	base := e.BaseScore
	for _, t := range e.Trees {
		t.addAttribution(x, phi)
		base += t.expectedValue(0)
	}
	return Attribution{BaseValue: base, Phi: phi}
}

// ExpectedValue is the cover-weighted mean margin of the ensemble.
func (e *Ensemble) ExpectedValue() float64 {
	v := e.BaseScore
	for _, t := range e.Trees {
		v += t.expectedValue(0)
	}
	return v
}

func (t *Tree) expectedValue(node int) float64 {
	n := t.Nodes[node]
	if n.Leaf() {
		return n.Value
	}
	l, r := t.Nodes[n.Left], t.Nodes[n.Right]
	return (l.Cover*t.expectedValue(n.Left) + r.Cover*t.expectedValue(n.Right)) / n.Cover
}

// pathElem is one entry of the unique feature path maintained during the
// recursion: the fraction of subsets that flow down when the feature is
// excluded (zeroFraction) or included (oneFraction), and the permutation
// weight of subsets of each size (pweight).
type pathElem struct {
	featureIndex int
	zeroFraction float64
	oneFraction  float64
	pweight      float64
}

func (t *Tree) addAttribution(x []float64, phi []float64) {
	t.recursePath(x, phi, 0, nil, 0, 1, 1, -1)
}

func (t *Tree) recursePath(x, phi []float64, node int, parent []pathElem, pathLen int,
	parentZero, parentOne float64, parentFeature int) {

	path := make([]pathElem, pathLen+1)
	copy(path, parent[:pathLen])
	extendPath(path, pathLen, parentZero, parentOne, parentFeature)
	pathLen++

	n := t.Nodes[node]
	if n.Leaf() {
		for i := 1; i < pathLen; i++ {
			w := unwoundPathSum(path, pathLen, i)
			phi[path[i].featureIndex] += w * (path[i].oneFraction - path[i].zeroFraction) * n.Value
		}
		return
	}

	var hot, cold int
	if x[n.Feature] < n.Threshold {
		hot, cold = n.Left, n.Right
	} else {
		hot, cold = n.Right, n.Left
	}
	hotZero := t.Nodes[hot].Cover / n.Cover
	coldZero := t.Nodes[cold].Cover / n.Cover

	incomingZero, incomingOne := 1.0, 1.0
	if k := findFeaturePath(path, pathLen, n.Feature); k >= 0 {
		incomingZero = path[k].zeroFraction
		incomingOne = path[k].oneFraction
		unwindPath(path, pathLen, k)
		pathLen--
	}

	t.recursePath(x, phi, hot, path, pathLen, hotZero*incomingZero, incomingOne, n.Feature)
	t.recursePath(x, phi, cold, path, pathLen, coldZero*incomingZero, 0, n.Feature)
}

func extendPath(path []pathElem, pathLen int, zeroFraction, oneFraction float64, featureIndex int) {
	w := 0.0
	if pathLen == 0 {
		w = 1.0
	}
	path[pathLen] = pathElem{featureIndex, zeroFraction, oneFraction, w}
	for i := pathLen - 1; i >= 0; i-- {
		path[i+1].pweight += oneFraction * path[i].pweight * float64(i+1) / float64(pathLen+1)
		path[i].pweight = zeroFraction * path[i].pweight * float64(pathLen-i) / float64(pathLen+1)
	}
}

func unwindPath(path []pathElem, pathLen, pathIndex int) {
	one := path[pathIndex].oneFraction
	zero := path[pathIndex].zeroFraction
	next := path[pathLen-1].pweight

	// The permutation weights of every element are coupled, so the
	// recomputation runs over the whole path, not just the tail being
	// removed.
	for i := pathLen - 2; i >= 0; i-- {
		if one != 0 {
			tmp := path[i].pweight
			path[i].pweight = next * float64(pathLen) / (float64(i+1) * one)
			next = tmp - path[i].pweight*zero*float64(pathLen-i-1)/float64(pathLen)
		} else {
			path[i].pweight = path[i].pweight * float64(pathLen) / (zero * float64(pathLen-i-1))
		}
	}
	for i := pathIndex; i < pathLen-1; i++ {
		path[i].featureIndex = path[i+1].featureIndex
		path[i].zeroFraction = path[i+1].zeroFraction
		path[i].oneFraction = path[i+1].oneFraction
	}
}

func unwoundPathSum(path []pathElem, pathLen, pathIndex int) float64 {
	one := path[pathIndex].oneFraction
	zero := path[pathIndex].zeroFraction
	next := path[pathLen-1].pweight
	total := 0.0

	for i := pathLen - 2; i >= 0; i-- {
		if one != 0 {
			tmp := next * float64(pathLen) / (float64(i+1) * one)
			total += tmp
			next = path[i].pweight - tmp*zero*float64(pathLen-i-1)/float64(pathLen)
		} else if zero != 0 {
			total += path[i].pweight * float64(pathLen) / (zero * float64(pathLen-i-1))
		}
	}
	return total
}

func findFeaturePath(path []pathElem, pathLen, feature int) int {
	for i := 1; i < pathLen; i++ {
		if path[i].featureIndex == feature {
			return i
		}
	}
	return -1
}
