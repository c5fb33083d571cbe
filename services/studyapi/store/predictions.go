// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
)

// UpsertPrediction stores or replaces the model output for a persona.
// Called by the pipeline load step; replacing is intentional so a
// retrained model overwrites the previous explanation set.
func (s *Store) UpsertPrediction(ctx context.Context, p *datatypes.Prediction) error {
	attrJSON, err := json.Marshal(p.Attributions)
	if err != nil {
		return fmt.Errorf("marshal attributions: %w", err)
	}
	var cfJSON []byte
	if p.Counterfactuals != nil {
		cfJSON, err = json.Marshal(p.Counterfactuals)
		if err != nil {
			return fmt.Errorf("marshal counterfactuals: %w", err)
		}
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO predictions (persona_id, model_version, probability, decision, base_value, attributions, counterfactuals)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (persona_id) DO UPDATE SET
		   model_version = EXCLUDED.model_version,
		   probability = EXCLUDED.probability,
		   decision = EXCLUDED.decision,
		   base_value = EXCLUDED.base_value,
		   attributions = EXCLUDED.attributions,
		   counterfactuals = EXCLUDED.counterfactuals,
		   created_at = now()
		 RETURNING created_at`,
		p.PersonaID, p.ModelVersion, p.Probability, p.Decision, p.BaseValue, attrJSON, cfJSON,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert prediction %s: %w", p.PersonaID, err)
	}
	return nil
}

// GetPrediction returns the stored model output for a persona.
func (s *Store) GetPrediction(ctx context.Context, personaID string) (*datatypes.Prediction, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT persona_id, model_version, probability, decision, base_value, attributions, counterfactuals, created_at
		 FROM predictions WHERE persona_id = $1`, personaID)

	p, err := scanPrediction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get prediction %s: %w", personaID, datatypes.ErrNotFound)
		}
		return nil, fmt.Errorf("get prediction %s: %w", personaID, err)
	}
	return &p, nil
}

// ListPredictions returns all stored persona predictions.
func (s *Store) ListPredictions(ctx context.Context) ([]datatypes.Prediction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT persona_id, model_version, probability, decision, base_value, attributions, counterfactuals, created_at
		 FROM predictions ORDER BY persona_id`)
	if err != nil {
		return nil, fmt.Errorf("list predictions: %w", err)
	}
	defer rows.Close()

	var preds []datatypes.Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return preds, rows.Err()
}

func scanPrediction(row scannable) (datatypes.Prediction, error) {
	var p datatypes.Prediction
	var attrJSON, cfJSON []byte
	err := row.Scan(&p.PersonaID, &p.ModelVersion, &p.Probability, &p.Decision,
		&p.BaseValue, &attrJSON, &cfJSON, &p.CreatedAt)
	if err != nil {
		return p, err
	}
	if err := json.Unmarshal(attrJSON, &p.Attributions); err != nil {
		return p, fmt.Errorf("unmarshal attributions: %w", err)
	}
	if cfJSON != nil {
		if err := json.Unmarshal(cfJSON, &p.Counterfactuals); err != nil {
			return p, fmt.Errorf("unmarshal counterfactuals: %w", err)
		}
	}
	return p, nil
}
