// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
)

// mockStore is an in-memory StudyStore for handler tests.
type mockStore struct {
	sessions    map[string]*datatypes.Session
	codes       map[string]bool
	ratings     map[string]*datatypes.LayerRating // key session|persona|layer
	posts       map[string]*datatypes.PostQuestionnaire
	predictions map[string]*datatypes.Prediction
	failAll     bool
}

func newMockStore() *mockStore {
	return &mockStore{
		sessions:    map[string]*datatypes.Session{},
		codes:       map[string]bool{},
		ratings:     map[string]*datatypes.LayerRating{},
		posts:       map[string]*datatypes.PostQuestionnaire{},
		predictions: map[string]*datatypes.Prediction{},
	}
}

var errMockDown = fmt.Errorf("mock store down")

func (m *mockStore) CreateSession(_ context.Context, code, consentVersion string) (*datatypes.Session, error) {
	if m.failAll {
		return nil, errMockDown
	}
	if m.codes[code] {
		return nil, datatypes.ErrConflict
	}
	s := &datatypes.Session{
		ID:              uuid.NewString(),
		ParticipantCode: code,
		CurrentStep:     datatypes.StepConsent,
		ConsentVersion:  consentVersion,
		ConsentedAt:     time.Now().UTC(),
		CreatedAt:       time.Now().UTC(),
	}
	m.sessions[s.ID] = s
	m.codes[code] = true
	return s, nil
}

func (m *mockStore) GetSession(_ context.Context, id string) (*datatypes.Session, error) {
	if m.failAll {
		return nil, errMockDown
	}
	s, ok := m.sessions[id]
	if !ok {
		return nil, datatypes.ErrNotFound
	}
	return s, nil
}

func (m *mockStore) AdvanceStep(_ context.Context, id, fromStep, toStep string) error {
	s, ok := m.sessions[id]
	if !ok {
		return datatypes.ErrNotFound
	}
	if s.CurrentStep != fromStep {
		return datatypes.ErrInvalidStep
	}
	s.CurrentStep = toStep
	return nil
}

func (m *mockStore) SaveBaseline(_ context.Context, id string, b *datatypes.BaselineQuestionnaire) error {
	s, ok := m.sessions[id]
	if !ok {
		return datatypes.ErrNotFound
	}
	s.Baseline = b
	return nil
}

func (m *mockStore) CompleteSession(_ context.Context, id string) error {
	s, ok := m.sessions[id]
	if !ok {
		return datatypes.ErrNotFound
	}
	if s.CurrentStep != datatypes.StepPost {
		return datatypes.ErrInvalidStep
	}
	now := time.Now().UTC()
	s.CurrentStep = datatypes.StepComplete
	s.CompletedAt = &now
	return nil
}

func (m *mockStore) ListSessions(_ context.Context) ([]datatypes.Session, error) {
	var out []datatypes.Session
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out, nil
}

func (m *mockStore) DeleteSession(_ context.Context, id string) error {
	if _, ok := m.sessions[id]; !ok {
		return datatypes.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *mockStore) CountSessionsByStep(_ context.Context) (map[string]int, error) {
	if m.failAll {
		return nil, errMockDown
	}
	counts := map[string]int{}
	for _, s := range m.sessions {
		counts[s.CurrentStep]++
	}
	return counts, nil
}

func (m *mockStore) UpsertRating(_ context.Context, r *datatypes.LayerRating) error {
	if _, ok := m.sessions[r.SessionID]; !ok {
		return datatypes.ErrNotFound
	}
	r.CreatedAt = time.Now().UTC()
	m.ratings[r.SessionID+"|"+r.PersonaID+"|"+r.Layer] = r
	return nil
}

func (m *mockStore) ListRatingsBySession(_ context.Context, sessionID string) ([]datatypes.LayerRating, error) {
	var out []datatypes.LayerRating
	for _, r := range m.ratings {
		if r.SessionID == sessionID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *mockStore) CountRatings(_ context.Context) (int, error) {
	return len(m.ratings), nil
}

func (m *mockStore) LayerSummaries(_ context.Context) ([]datatypes.LayerSummary, error) {
	return []datatypes.LayerSummary{}, nil
}

func (m *mockStore) UpsertPostQuestionnaire(_ context.Context, q *datatypes.PostQuestionnaire) error {
	if _, ok := m.sessions[q.SessionID]; !ok {
		return datatypes.ErrNotFound
	}
	q.CreatedAt = time.Now().UTC()
	m.posts[q.SessionID] = q
	return nil
}

func (m *mockStore) CountPostQuestionnaires(_ context.Context) (int, error) {
	return len(m.posts), nil
}

func (m *mockStore) PreferredLayerCounts(_ context.Context) (map[string]int, error) {
	counts := map[string]int{}
	for _, q := range m.posts {
		counts[q.PreferredLayer]++
	}
	return counts, nil
}

func (m *mockStore) GetPrediction(_ context.Context, personaID string) (*datatypes.Prediction, error) {
	p, ok := m.predictions[personaID]
	if !ok {
		return nil, datatypes.ErrNotFound
	}
	return p, nil
}

func (m *mockStore) ListPredictions(_ context.Context) ([]datatypes.Prediction, error) {
	var out []datatypes.Prediction
	for _, p := range m.predictions {
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockStore) UpsertPrediction(_ context.Context, p *datatypes.Prediction) error {
	m.predictions[p.PersonaID] = p
	return nil
}

func (m *mockStore) ExportCSV(_ context.Context, w io.Writer) (int, error) {
	if _, err := io.WriteString(w, "participant_code,session_id\n"); err != nil {
		return 0, err
	}
	n := 0
	for _, s := range m.sessions {
		if _, err := fmt.Fprintf(w, "%s,%s\n", s.ParticipantCode, s.ID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (m *mockStore) DeleteAllStudyData(_ context.Context) (int64, error) {
	n := int64(len(m.sessions))
	m.sessions = map[string]*datatypes.Session{}
	m.codes = map[string]bool{}
	m.ratings = map[string]*datatypes.LayerRating{}
	m.posts = map[string]*datatypes.PostQuestionnaire{}
	return n, nil
}
