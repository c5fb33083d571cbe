// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package explaingen scores the scripted personas with the trained
// model, attaches exact attributions and counterfactual flips, and
// stores the result both as a JSON artifact and in Postgres.
package explaingen

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/AleutianAI/CredLens/services/pipeline/credit"
	"github.com/AleutianAI/CredLens/services/pipeline/model"
	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
)

// DecisionThreshold is the probability-of-rejection cutoff.
const DecisionThreshold = 0.5

// maxFlips bounds how many counterfactual options each persona carries.
const maxFlips = 3

// PredictionStore is the subset of the study store the generator needs.
type PredictionStore interface {
	UpsertPrediction(ctx context.Context, p *datatypes.Prediction) error
}

// Generate scores every scripted persona against the ensemble.
func Generate(ens *model.Ensemble, ds *credit.Dataset) ([]datatypes.Prediction, error) {
	mutable := make([]bool, len(ds.Features))
	for i, f := range ds.Features {
		mutable[i] = f.Mutable
	}
	domains := model.BuildDomains(ds.X, mutable)

	preds := make([]datatypes.Prediction, 0, len(credit.Personas))
	for _, persona := range credit.Personas {
		row, err := credit.EncodePersona(persona)
		if err != nil {
			return nil, err
		}

		prob := ens.Probability(row)
		attr := ens.Explain(row)
		flips := ens.FindFlips(row, domains, DecisionThreshold, maxFlips)

		pred := datatypes.Prediction{
			PersonaID:    persona.ID,
			ModelVersion: ens.Version,
			Probability:  prob,
			Decision:     decisionFor(prob),
			BaseValue:    attr.BaseValue,
		}
		for i, spec := range ds.Features {
			pred.Attributions = append(pred.Attributions, datatypes.FeatureAttribution{
				Feature: spec.Name,
				Label:   spec.Label,
				Display: spec.Decode(persona.Raw[i]),
				Raw:     row[i],
				SHAP:    attr.Phi[i],
			})
		}
		for _, flip := range flips {
			spec := ds.Features[flip.FeatureIndex]
			pred.Counterfactuals = append(pred.Counterfactuals, datatypes.Counterfactual{
				Feature:        spec.Name,
				Label:          spec.Label,
				From:           displayValue(spec, flip.From),
				To:             displayValue(spec, flip.To),
				NewProbability: flip.NewProbability,
			})
		}
		preds = append(preds, pred)
		slog.Info("Scored persona",
			"persona", persona.ID,
			"probability", fmt.Sprintf("%.4f", prob),
			"decision", pred.Decision,
			"counterfactuals", len(pred.Counterfactuals))
	}
	return preds, nil
}

func decisionFor(probability float64) string {
	if probability >= DecisionThreshold {
		return datatypes.DecisionReject
	}
	return datatypes.DecisionApprove
}

func displayValue(spec credit.FeatureSpec, v float64) string {
	if spec.Kind == credit.Numeric {
		s := strconv.FormatFloat(v, 'f', -1, 64)
		if spec.Unit != "" {
			return s + " " + spec.Unit
		}
		return s
	}
	return spec.DecodeIndex(v)
}

// WriteArtifact stores the predictions as one JSON file.
func WriteArtifact(preds []datatypes.Prediction, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create explanations dir: %w", err)
	}
	data, err := json.MarshalIndent(preds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal explanations: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write explanations %s: %w", path, err)
	}
	return nil
}

// ReadArtifact loads a previously written explanations file.
func ReadArtifact(path string) ([]datatypes.Prediction, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read explanations %s: %w", path, err)
	}
	var preds []datatypes.Prediction
	if err := json.Unmarshal(data, &preds); err != nil {
		return nil, fmt.Errorf("unmarshal explanations %s: %w", path, err)
	}
	return preds, nil
}

// Store upserts the predictions into Postgres.
func Store(ctx context.Context, db PredictionStore, preds []datatypes.Prediction) error {
	for i := range preds {
		if err := db.UpsertPrediction(ctx, &preds[i]); err != nil {
			return fmt.Errorf("store prediction %s: %w", preds[i].PersonaID, err)
		}
	}
	slog.Info("Predictions stored", "count", len(preds))
	return nil
}
