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
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

// exportHeader is the fixed column order of the flat export. One row
// per layer rating, joined with the session and post questionnaire.
var exportHeader = []string{
	"participant_code", "session_id", "current_step",
	"consent_version", "consented_at", "completed_at",
	"age_band", "financial_literacy", "ai_trust",
	"persona_id", "layer", "understanding", "communicability",
	"cognitive_load", "dwell_ms", "rated_at",
	"trust_change", "decision_fairness", "preferred_layer", "most_helpful_layer",
}

// ExportCSV streams the full study dataset as CSV to w. Sessions
// without ratings still produce a row with empty rating columns so no
// participant is silently dropped from the export.
func (s *Store) ExportCSV(ctx context.Context, w io.Writer) (int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT s.participant_code, s.id, s.current_step,
		        s.consent_version, s.consented_at, s.completed_at,
		        s.baseline->>'age_band', s.baseline->>'financial_literacy', s.baseline->>'ai_trust',
		        r.persona_id, r.layer, r.understanding, r.communicability,
		        r.cognitive_load, r.dwell_ms, r.created_at,
		        p.trust_change, p.decision_fairness, p.preferred_layer, p.most_helpful_layer
		 FROM sessions s
		 LEFT JOIN layer_ratings r ON r.session_id = s.id
		 LEFT JOIN post_questionnaires p ON p.session_id = s.id
		 ORDER BY s.created_at, s.id,
		          array_position(ARRAY['table','dashboard','narrative','counterfactual'], r.layer)`)
	if err != nil {
		return 0, fmt.Errorf("export query: %w", err)
	}
	defer rows.Close()

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, fmt.Errorf("write export header: %w", err)
	}

	count := 0
	for rows.Next() {
		var (
			participantCode, currentStep, consentVersion   string
			sessionID                                      string
			consentedAt                                    *time.Time
			completedAt, ratedAt                           *time.Time
			ageBand, finLit, aiTrust                       *string
			personaID, layer, preferred, mostHelpful       *string
			understanding, communicability, cognitiveLoad  *int
			dwellMS                                        *int64
			trustChange, decisionFairness                  *int
		)
		if err := rows.Scan(&participantCode, &sessionID, &currentStep,
			&consentVersion, &consentedAt, &completedAt,
			&ageBand, &finLit, &aiTrust,
			&personaID, &layer, &understanding, &communicability,
			&cognitiveLoad, &dwellMS, &ratedAt,
			&trustChange, &decisionFairness, &preferred, &mostHelpful,
		); err != nil {
			return count, fmt.Errorf("scan export row: %w", err)
		}

		record := []string{
			participantCode, sessionID, currentStep,
			consentVersion, csvTime(consentedAt), csvTime(completedAt),
			csvStr(ageBand), csvStr(finLit), csvStr(aiTrust),
			csvStr(personaID), csvStr(layer), csvInt(understanding), csvInt(communicability),
			csvInt(cognitiveLoad), csvInt64(dwellMS), csvTime(ratedAt),
			csvInt(trustChange), csvInt(decisionFairness), csvStr(preferred), csvStr(mostHelpful),
		}
		if err := cw.Write(record); err != nil {
			return count, fmt.Errorf("write export row: %w", err)
		}
		count++
	}
	if err := rows.Err(); err != nil {
		return count, fmt.Errorf("export rows: %w", err)
	}
	cw.Flush()
	return count, cw.Error()
}

// DeleteAllStudyData removes every session and, through cascade, all
// ratings and post questionnaires. Predictions are pipeline artifacts
// and are left in place. Returns the number of sessions deleted.
func (s *Store) DeleteAllStudyData(ctx context.Context) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions`)
	if err != nil {
		return 0, fmt.Errorf("delete all study data: %w", err)
	}
	return tag.RowsAffected(), nil
}

func csvStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func csvInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}

func csvInt64(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}

func csvTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
