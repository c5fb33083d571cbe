// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes holds the shared domain types of the CredLens study
// API: sessions, ratings, predictions, and questionnaires.
package datatypes

import "time"

// Survey steps. The flow is strictly linear; steps are stored as strings
// in the sessions table.
const (
	StepConsent  = "consent"
	StepBaseline = "baseline"
	StepPersona  = "persona_review"
	StepRating   = "rating"
	StepPost     = "post_questionnaire"
	StepComplete = "complete"
)

// StepOrder is the fixed progression of the survey flow.
var StepOrder = []string{
	StepConsent,
	StepBaseline,
	StepPersona,
	StepRating,
	StepPost,
	StepComplete,
}

// NextStep returns the step following the given one, or "" when the flow
// is already complete or the step is unknown.
func NextStep(step string) string {
	for i, s := range StepOrder {
		if s == step && i+1 < len(StepOrder) {
			return StepOrder[i+1]
		}
	}
	return ""
}

// IsValidStep reports whether the string names a survey step.
func IsValidStep(step string) bool {
	for _, s := range StepOrder {
		if s == step {
			return true
		}
	}
	return false
}

// Session is one participant's pass through the study.
type Session struct {
	ID              string    `json:"session_id"`
	ParticipantCode string    `json:"participant_code"`
	CurrentStep     string    `json:"current_step"`
	ConsentVersion  string    `json:"consent_version"`
	ConsentedAt     time.Time `json:"consented_at"`

	// Baseline is nil until the baseline questionnaire is submitted.
	Baseline *BaselineQuestionnaire `json:"baseline,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// BaselineQuestionnaire captures demographics and priors before the
// participant sees any persona. Stored as jsonb; the field set was
// extended twice during the study, so everything but age band is
// optional.
type BaselineQuestionnaire struct {
	AgeBand           string `json:"age_band" binding:"required"` // e.g. "25-34"
	Gender            string `json:"gender,omitempty"`
	Education         string `json:"education,omitempty"`
	Occupation        string `json:"occupation,omitempty"`
	FinancialLiteracy int    `json:"financial_literacy,omitempty"` // 1-5 self report
	AITrust           int    `json:"ai_trust,omitempty"`           // 1-5 self report
	CreditExperience  string `json:"credit_experience,omitempty"`  // added in migration 0007
}
