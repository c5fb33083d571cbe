// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package handlers implements the HTTP handlers of the study API.
package handlers

import (
	"context"
	"io"

	"github.com/AleutianAI/CredLens/services/pipeline"
	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
	"github.com/AleutianAI/CredLens/services/studyapi/explain"
	"github.com/AleutianAI/CredLens/services/studyapi/monitor"
	"github.com/AleutianAI/CredLens/services/studyapi/observability"
	"github.com/AleutianAI/CredLens/services/studyapi/timing"
)

// StudyStore is the persistence surface the handlers use. *store.Store
// implements it; tests inject a mock.
type StudyStore interface {
	CreateSession(ctx context.Context, participantCode, consentVersion string) (*datatypes.Session, error)
	GetSession(ctx context.Context, id string) (*datatypes.Session, error)
	AdvanceStep(ctx context.Context, id, fromStep, toStep string) error
	SaveBaseline(ctx context.Context, id string, baseline *datatypes.BaselineQuestionnaire) error
	CompleteSession(ctx context.Context, id string) error
	ListSessions(ctx context.Context) ([]datatypes.Session, error)
	DeleteSession(ctx context.Context, id string) error
	CountSessionsByStep(ctx context.Context) (map[string]int, error)

	UpsertRating(ctx context.Context, r *datatypes.LayerRating) error
	ListRatingsBySession(ctx context.Context, sessionID string) ([]datatypes.LayerRating, error)
	CountRatings(ctx context.Context) (int, error)
	LayerSummaries(ctx context.Context) ([]datatypes.LayerSummary, error)

	UpsertPostQuestionnaire(ctx context.Context, q *datatypes.PostQuestionnaire) error
	CountPostQuestionnaires(ctx context.Context) (int, error)
	PreferredLayerCounts(ctx context.Context) (map[string]int, error)

	GetPrediction(ctx context.Context, personaID string) (*datatypes.Prediction, error)
	ListPredictions(ctx context.Context) ([]datatypes.Prediction, error)
	UpsertPrediction(ctx context.Context, p *datatypes.Prediction) error

	ExportCSV(ctx context.Context, w io.Writer) (int, error)
	DeleteAllStudyData(ctx context.Context) (int64, error)
}

// Deps bundles everything the route handlers need. Monitor, Timing, and
// Pipeline may be nil; the affected features degrade to no-ops or 503.
type Deps struct {
	Store    StudyStore
	Builder  *explain.Builder
	Metrics  *observability.StudyMetrics
	Monitor  *monitor.Hub
	Timing   *timing.Recorder
	Pipeline *pipeline.Runner
}
