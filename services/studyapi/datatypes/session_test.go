// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStep_LinearFlow(t *testing.T) {
	assert.Equal(t, StepBaseline, NextStep(StepConsent))
	assert.Equal(t, StepPersona, NextStep(StepBaseline))
	assert.Equal(t, StepRating, NextStep(StepPersona))
	assert.Equal(t, StepPost, NextStep(StepRating))
	assert.Equal(t, StepComplete, NextStep(StepPost))
}

func TestNextStep_TerminalAndUnknown(t *testing.T) {
	assert.Equal(t, "", NextStep(StepComplete))
	assert.Equal(t, "", NextStep("debrief"))
	assert.Equal(t, "", NextStep(""))
}

func TestIsValidStep(t *testing.T) {
	for _, s := range StepOrder {
		assert.True(t, IsValidStep(s), "step %q should be valid", s)
	}
	assert.False(t, IsValidStep("Consent"))
	assert.False(t, IsValidStep(""))
}

func TestBaselineQuestionnaire_OptionalFieldsOmitted(t *testing.T) {
	b := BaselineQuestionnaire{AgeBand: "25-34"}

	data, err := json.Marshal(b)
	require.NoError(t, err)

	js := string(data)
	assert.Contains(t, js, `"age_band":"25-34"`)
	assert.NotContains(t, js, "credit_experience")
	assert.NotContains(t, js, `"gender"`)
}

func TestLayers_CoverAllPresentationStyles(t *testing.T) {
	require.Len(t, Layers, 4)
	assert.Equal(t, []string{"table", "dashboard", "narrative", "counterfactual"}, Layers)
}
