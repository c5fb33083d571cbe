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

// Decision labels produced by the credit model.
const (
	DecisionApprove = "APPROVE"
	DecisionReject  = "REJECT"
)

// Prediction is the stored model output for one scripted persona,
// loaded by the offline pipeline and served to every participant.
type Prediction struct {
	PersonaID    string  `json:"persona_id"`
	ModelVersion string  `json:"model_version"`
	Probability  float64 `json:"probability"` // probability of default (bad credit)
	Decision     string  `json:"decision"`    // APPROVE or REJECT
	BaseValue    float64 `json:"base_value"`  // SHAP expected-margin baseline

	// Attributions are the per-feature SHAP values in descending
	// absolute magnitude. base_value + sum(shap) equals the model margin.
	Attributions []FeatureAttribution `json:"attributions"`

	// Counterfactuals are minimal mutable-feature changes that flip the
	// decision, computed offline against the trained ensemble.
	Counterfactuals []Counterfactual `json:"counterfactuals,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// FeatureAttribution is one feature's contribution to a prediction.
type FeatureAttribution struct {
	Feature string  `json:"feature"`       // machine name, e.g. "credit_amount"
	Label   string  `json:"label"`         // display name, e.g. "Credit amount"
	Display string  `json:"display_value"` // decoded value, e.g. "€4,870"
	Raw     float64 `json:"raw_value"`     // encoded model input
	SHAP    float64 `json:"shap"`          // signed attribution (margin space)
}

// Counterfactual is one "what would change the decision" statement.
type Counterfactual struct {
	Feature        string  `json:"feature"`
	Label          string  `json:"label"`
	From           string  `json:"from"`
	To             string  `json:"to"`
	NewProbability float64 `json:"new_probability"`
}
