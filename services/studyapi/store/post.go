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
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
)

// UpsertPostQuestionnaire stores the closing questionnaire for a session.
func (s *Store) UpsertPostQuestionnaire(ctx context.Context, q *datatypes.PostQuestionnaire) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO post_questionnaires (session_id, trust_change, decision_fairness, preferred_layer, most_helpful_layer, comments)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (session_id) DO UPDATE SET
		   trust_change = EXCLUDED.trust_change,
		   decision_fairness = EXCLUDED.decision_fairness,
		   preferred_layer = EXCLUDED.preferred_layer,
		   most_helpful_layer = EXCLUDED.most_helpful_layer,
		   comments = EXCLUDED.comments,
		   created_at = now()
		 RETURNING created_at`,
		q.SessionID, q.TrustChange, q.DecisionFairness, q.PreferredLayer,
		q.MostHelpfulLayer, q.Comments,
	).Scan(&q.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return fmt.Errorf("post questionnaire for session %s: %w", q.SessionID, datatypes.ErrNotFound)
		}
		return fmt.Errorf("upsert post questionnaire: %w", err)
	}
	return nil
}

// CountPostQuestionnaires returns the number of submitted post
// questionnaires.
func (s *Store) CountPostQuestionnaires(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM post_questionnaires`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count post questionnaires: %w", err)
	}
	return n, nil
}

// PreferredLayerCounts tallies the preferred-layer answers for the
// dashboard.
func (s *Store) PreferredLayerCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT preferred_layer, count(*) FROM post_questionnaires GROUP BY preferred_layer`)
	if err != nil {
		return nil, fmt.Errorf("count preferred layers: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var layer string
		var n int
		if err := rows.Scan(&layer, &n); err != nil {
			return nil, fmt.Errorf("scan preferred layer: %w", err)
		}
		counts[layer] = n
	}
	return counts, rows.Err()
}
