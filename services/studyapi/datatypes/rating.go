// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "time"

// Explanation layers. Each persona is rated once per layer.
const (
	LayerTable          = "table"
	LayerDashboard      = "dashboard"
	LayerNarrative      = "narrative"
	LayerCounterfactual = "counterfactual"
)

// Layers lists the four fixed presentation styles in display order.
var Layers = []string{LayerTable, LayerDashboard, LayerNarrative, LayerCounterfactual}

// LayerRating is one participant's rating of one explanation layer for
// one persona. All three Likert items use form order (1 = strongly
// disagree / very low); cognitive load is inverted on write before it
// reaches the store, so the stored value is always "higher = more load".
type LayerRating struct {
	SessionID string `json:"session_id"`
	PersonaID string `json:"persona_id"`
	Layer     string `json:"layer"`

	Understanding   int `json:"understanding"`   // "I understood why the decision was made"
	Communicability int `json:"communicability"` // "I could explain this decision to someone else"
	CognitiveLoad   int `json:"cognitive_load"`  // stored inverted: higher = more load

	DwellMS   int64     `json:"dwell_ms"` // time spent on the layer view
	CreatedAt time.Time `json:"created_at"`
}

// LayerSummary is one row of the researcher dashboard aggregate: the
// per-layer mean and spread of each rating dimension.
type LayerSummary struct {
	Layer string `json:"layer"`
	N     int    `json:"n"`

	UnderstandingMean   float64 `json:"understanding_mean"`
	UnderstandingStdDev float64 `json:"understanding_stddev"`

	CommunicabilityMean   float64 `json:"communicability_mean"`
	CommunicabilityStdDev float64 `json:"communicability_stddev"`

	CognitiveLoadMean   float64 `json:"cognitive_load_mean"`
	CognitiveLoadStdDev float64 `json:"cognitive_load_stddev"`

	DwellMeanMS float64 `json:"dwell_mean_ms"`
}

// StudySummary is the researcher dashboard payload.
type StudySummary struct {
	SessionsTotal     int            `json:"sessions_total"`
	SessionsComplete  int            `json:"sessions_complete"`
	SessionsByStep    map[string]int `json:"sessions_by_step"`
	RatingsTotal      int            `json:"ratings_total"`
	PostResponses     int            `json:"post_responses"`
	Layers            []LayerSummary `json:"layers"`
	PreferredLayer    map[string]int `json:"preferred_layer"`
	GeneratedAt       time.Time      `json:"generated_at"`
	ModelVersion      string         `json:"model_version,omitempty"`
	TimingSource      string         `json:"timing_source,omitempty"` // "influxdb" when the timing sink is live
	MedianSessionMins float64        `json:"median_session_mins,omitempty"`
}
