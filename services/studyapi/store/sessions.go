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
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
)

const sessionColumns = `id, participant_code, current_step, consent_version, consented_at, baseline, created_at, completed_at`

// CreateSession inserts a new session at the consent step.
// A duplicate participant code maps to datatypes.ErrConflict.
func (s *Store) CreateSession(ctx context.Context, participantCode, consentVersion string) (*datatypes.Session, error) {
	row := s.pool.QueryRow(ctx,
		`INSERT INTO sessions (participant_code, consent_version)
		 VALUES ($1, $2)
		 RETURNING `+sessionColumns,
		participantCode, consentVersion)

	sess, err := scanSession(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, fmt.Errorf("create session for %s: %w", participantCode, datatypes.ErrConflict)
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &sess, nil
}

// GetSession returns a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (*datatypes.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("get session %s: %w", id, datatypes.ErrNotFound)
		}
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return &sess, nil
}

// AdvanceStep moves a session from fromStep to toStep. The WHERE clause
// enforces the linear flow: if the stored step no longer matches
// fromStep the update affects zero rows and ErrInvalidStep is returned.
func (s *Store) AdvanceStep(ctx context.Context, id, fromStep, toStep string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET current_step = $3 WHERE id = $1 AND current_step = $2`,
		id, fromStep, toStep)
	if err != nil {
		return fmt.Errorf("advance session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing session from a step mismatch.
		if _, err := s.GetSession(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("advance session %s from %s: %w", id, fromStep, datatypes.ErrInvalidStep)
	}
	return nil
}

// SaveBaseline stores the baseline questionnaire on the session row.
func (s *Store) SaveBaseline(ctx context.Context, id string, baseline *datatypes.BaselineQuestionnaire) error {
	baselineJSON, err := json.Marshal(baseline)
	if err != nil {
		return fmt.Errorf("marshal baseline: %w", err)
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET baseline = $2 WHERE id = $1`, id, baselineJSON)
	if err != nil {
		return fmt.Errorf("save baseline for %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("save baseline for %s: %w", id, datatypes.ErrNotFound)
	}
	return nil
}

// CompleteSession marks a session complete and stamps completed_at. The
// WHERE clause only matches sessions that have reached the post
// questionnaire, so a client cannot skip ahead to the completion code.
func (s *Store) CompleteSession(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE sessions SET current_step = $2, completed_at = now()
		 WHERE id = $1 AND current_step = $3`,
		id, datatypes.StepComplete, datatypes.StepPost)
	if err != nil {
		return fmt.Errorf("complete session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.GetSession(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("complete session %s: %w", id, datatypes.ErrInvalidStep)
	}
	return nil
}

// ListSessions returns all sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]datatypes.Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []datatypes.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

// DeleteSession removes a session; ratings and the post questionnaire
// cascade at the schema level.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete session %s: %w", id, datatypes.ErrNotFound)
	}
	return nil
}

// CountSessionsByStep returns how many sessions sit at each step.
func (s *Store) CountSessionsByStep(ctx context.Context) (map[string]int, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT current_step, count(*) FROM sessions GROUP BY current_step`)
	if err != nil {
		return nil, fmt.Errorf("count sessions by step: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var step string
		var n int
		if err := rows.Scan(&step, &n); err != nil {
			return nil, fmt.Errorf("scan step count: %w", err)
		}
		counts[step] = n
	}
	return counts, rows.Err()
}

func scanSession(row scannable) (datatypes.Session, error) {
	var sess datatypes.Session
	var baselineJSON []byte
	err := row.Scan(&sess.ID, &sess.ParticipantCode, &sess.CurrentStep,
		&sess.ConsentVersion, &sess.ConsentedAt, &baselineJSON,
		&sess.CreatedAt, &sess.CompletedAt)
	if err != nil {
		return sess, err
	}
	if baselineJSON != nil {
		var b datatypes.BaselineQuestionnaire
		if err := json.Unmarshal(baselineJSON, &b); err != nil {
			return sess, fmt.Errorf("unmarshal baseline: %w", err)
		}
		sess.Baseline = &b
	}
	return sess, nil
}
