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
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"sort"
	"time"
)

// TrainConfig holds the boosting hyperparameters. Defaults are tuned for
// the 1000-row credit dataset; they are not meant to be exotic.
type TrainConfig struct {
	Rounds       int     `json:"rounds"`
	MaxDepth     int     `json:"max_depth"`
	LearningRate float64 `json:"learning_rate"`
	Subsample    float64 `json:"subsample"`
	Lambda       float64 `json:"lambda"`
	Gamma        float64 `json:"gamma"`
	MinChildHess float64 `json:"min_child_hess"`
	ValidFrac    float64 `json:"valid_frac"`
	Seed         int64   `json:"seed"`
}

// DefaultTrainConfig returns the standard study configuration.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		Rounds:       120,
		MaxDepth:     3,
		LearningRate: 0.1,
		Subsample:    0.8,
		Lambda:       1.0,
		Gamma:        0.0,
		MinChildHess: 1.0,
		ValidFrac:    0.2,
		Seed:         7,
	}
}

// Ensemble is a trained gradient-boosted classifier. Score outputs are
// log-odds margins; Probability applies the sigmoid.
type Ensemble struct {
	Version      string      `json:"version"`
	FeatureNames []string    `json:"feature_names"`
	BaseScore    float64     `json:"base_score"` // log-odds prior
	Trees        []*Tree     `json:"trees"`
	Config       TrainConfig `json:"config"`
	Metrics      Metrics     `json:"metrics"`
}

// Metrics summarize holdout performance at the end of training.
type Metrics struct {
	TrainRows  int     `json:"train_rows"`
	ValidRows  int     `json:"valid_rows"`
	Accuracy   float64 `json:"accuracy"`
	AUC        float64 `json:"auc"`
	TrainLoss  float64 `json:"train_loss"`
	ValidLoss  float64 `json:"valid_loss"`
}

// Margin returns the raw log-odds score for a row.
func (e *Ensemble) Margin(x []float64) float64 {
	s := e.BaseScore
	for _, t := range e.Trees {
		s += t.Predict(x)
	}
	return s
}

// Probability returns P(reject) for a row.
func (e *Ensemble) Probability(x []float64) float64 {
	return sigmoid(e.Margin(x))
}

func sigmoid(z float64) float64 { return 1 / (1 + math.Exp(-z)) }

// Train fits an ensemble with logistic loss and Newton boosting. The
// split into train/validation and the per-round row subsampling are
// driven by cfg.Seed, so a fixed seed reproduces the model bit for bit.
func Train(x [][]float64, y []int, featureNames []string, cfg TrainConfig) (*Ensemble, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("train: matrix has %d rows, labels %d", len(x), len(y))
	}
	if len(featureNames) != len(x[0]) {
		return nil, fmt.Errorf("train: %d feature names for %d columns", len(featureNames), len(x[0]))
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	perm := rng.Perm(len(x))
	nValid := int(float64(len(x)) * cfg.ValidFrac)
	validIdx := perm[:nValid]
	trainIdx := perm[nValid:]

	var pos int
	for _, i := range trainIdx {
		pos += y[i]
	}
	prior := float64(pos) / float64(len(trainIdx))
	prior = math.Min(math.Max(prior, 1e-6), 1-1e-6)

	ens := &Ensemble{
		Version:      time.Now().UTC().Format("20060102-150405"),
		FeatureNames: append([]string(nil), featureNames...),
		BaseScore:    math.Log(prior / (1 - prior)),
		Config:       cfg,
	}

	margins := make([]float64, len(x))
	for i := range margins {
		margins[i] = ens.BaseScore
	}
	grad := make([]float64, len(x))
	hess := make([]float64, len(x))
	params := treeParams{
		maxDepth:     cfg.MaxDepth,
		minChildHess: cfg.MinChildHess,
		lambda:       cfg.Lambda,
		gamma:        cfg.Gamma,
	}

	for round := 0; round < cfg.Rounds; round++ {
		for _, i := range trainIdx {
			p := sigmoid(margins[i])
			grad[i] = p - float64(y[i])
			hess[i] = p * (1 - p)
		}

		rows := subsample(trainIdx, cfg.Subsample, rng)
		tree := buildTree(x, grad, hess, rows, params)
		scaleLeaves(tree, cfg.LearningRate)
		ens.Trees = append(ens.Trees, tree)

		for i := range x {
			margins[i] += tree.Predict(x[i])
		}
	}

	ens.Metrics = evaluate(ens, x, y, trainIdx, validIdx, margins)
	slog.Info("Training complete",
		"rounds", cfg.Rounds,
		"train_rows", ens.Metrics.TrainRows,
		"valid_rows", ens.Metrics.ValidRows,
		"accuracy", fmt.Sprintf("%.4f", ens.Metrics.Accuracy),
		"auc", fmt.Sprintf("%.4f", ens.Metrics.AUC))
	return ens, nil
}

func subsample(rows []int, frac float64, rng *rand.Rand) []int {
	if frac >= 1 {
		return rows
	}
	n := int(float64(len(rows)) * frac)
	if n < 2 {
		n = len(rows)
	}
	picked := make([]int, len(rows))
	copy(picked, rows)
	rng.Shuffle(len(picked), func(i, j int) { picked[i], picked[j] = picked[j], picked[i] })
	picked = picked[:n]
	sort.Ints(picked)
	return picked
}

func scaleLeaves(t *Tree, eta float64) {
	for i := range t.Nodes {
		if t.Nodes[i].Leaf() {
			t.Nodes[i].Value *= eta
		}
	}
}

func evaluate(ens *Ensemble, x [][]float64, y []int, trainIdx, validIdx []int, margins []float64) Metrics {
	m := Metrics{TrainRows: len(trainIdx), ValidRows: len(validIdx)}

	m.TrainLoss = logLoss(y, margins, trainIdx)
	m.ValidLoss = logLoss(y, margins, validIdx)

	eval := validIdx
	if len(eval) == 0 {
		eval = trainIdx
	}
	correct := 0
	scores := make([]float64, 0, len(eval))
	labels := make([]bool, 0, len(eval))
	for _, i := range eval {
		p := sigmoid(margins[i])
		if (p >= 0.5) == (y[i] == 1) {
			correct++
		}
		scores = append(scores, p)
		labels = append(labels, y[i] == 1)
	}
	m.Accuracy = float64(correct) / float64(len(eval))
	m.AUC = rocAUC(scores, labels)
	return m
}

func logLoss(y []int, margins []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		p := sigmoid(margins[i])
		p = math.Min(math.Max(p, 1e-12), 1-1e-12)
		if y[i] == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(len(idx))
}

// Validate checks a deserialized ensemble before serving predictions.
func (e *Ensemble) Validate() error {
	if len(e.Trees) == 0 {
		return fmt.Errorf("ensemble has no trees")
	}
	if len(e.FeatureNames) == 0 {
		return fmt.Errorf("ensemble has no feature names")
	}
	for i, t := range e.Trees {
		if err := t.validate(); err != nil {
			return fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return nil
}
