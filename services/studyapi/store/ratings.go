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

// UpsertRating stores a per-layer rating, replacing any earlier rating
// for the same session+persona+layer (participants can revise before
// advancing). The caller must already have inverted cognitive load to
// the stored orientation.
func (s *Store) UpsertRating(ctx context.Context, r *datatypes.LayerRating) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO layer_ratings (session_id, persona_id, layer, understanding, communicability, cognitive_load, dwell_ms)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (session_id, persona_id, layer) DO UPDATE SET
		   understanding = EXCLUDED.understanding,
		   communicability = EXCLUDED.communicability,
		   cognitive_load = EXCLUDED.cognitive_load,
		   dwell_ms = EXCLUDED.dwell_ms,
		   created_at = now()
		 RETURNING created_at`,
		r.SessionID, r.PersonaID, r.Layer, r.Understanding, r.Communicability,
		r.CognitiveLoad, r.DwellMS,
	).Scan(&r.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			// foreign key: unknown session
			return fmt.Errorf("upsert rating for session %s: %w", r.SessionID, datatypes.ErrNotFound)
		}
		return fmt.Errorf("upsert rating: %w", err)
	}
	return nil
}

// ListRatingsBySession returns a session's ratings in layer display order.
func (s *Store) ListRatingsBySession(ctx context.Context, sessionID string) ([]datatypes.LayerRating, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT session_id, persona_id, layer, understanding, communicability, cognitive_load, dwell_ms, created_at
		 FROM layer_ratings WHERE session_id = $1
		 ORDER BY persona_id, array_position(ARRAY['table','dashboard','narrative','counterfactual'], layer)`,
		sessionID)
	if err != nil {
		return nil, fmt.Errorf("list ratings for session %s: %w", sessionID, err)
	}
	defer rows.Close()

	var ratings []datatypes.LayerRating
	for rows.Next() {
		var r datatypes.LayerRating
		if err := rows.Scan(&r.SessionID, &r.PersonaID, &r.Layer, &r.Understanding,
			&r.Communicability, &r.CognitiveLoad, &r.DwellMS, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		ratings = append(ratings, r)
	}
	return ratings, rows.Err()
}

// CountRatings returns the total number of stored ratings.
func (s *Store) CountRatings(ctx context.Context) (int, error) {
	var n int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM layer_ratings`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count ratings: %w", err)
	}
	return n, nil
}

// LayerSummaries reads the aggregate reporting view.
func (s *Store) LayerSummaries(ctx context.Context) ([]datatypes.LayerSummary, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT layer, n, understanding_mean, COALESCE(understanding_stddev, 0),
		        communicability_mean, COALESCE(communicability_stddev, 0),
		        cognitive_load_mean, COALESCE(cognitive_load_stddev, 0), dwell_mean_ms
		 FROM layer_rating_summary
		 ORDER BY array_position(ARRAY['table','dashboard','narrative','counterfactual'], layer)`)
	if err != nil {
		return nil, fmt.Errorf("read layer_rating_summary: %w", err)
	}
	defer rows.Close()

	var summaries []datatypes.LayerSummary
	for rows.Next() {
		var ls datatypes.LayerSummary
		if err := rows.Scan(&ls.Layer, &ls.N,
			&ls.UnderstandingMean, &ls.UnderstandingStdDev,
			&ls.CommunicabilityMean, &ls.CommunicabilityStdDev,
			&ls.CognitiveLoadMean, &ls.CognitiveLoadStdDev,
			&ls.DwellMeanMS); err != nil {
			return nil, fmt.Errorf("scan layer summary: %w", err)
		}
		summaries = append(summaries, ls)
	}
	return summaries, rows.Err()
}
