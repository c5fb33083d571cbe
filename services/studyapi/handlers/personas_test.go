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
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/CredLens/services/pipeline/credit"
	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
)

func seedPrediction(store *mockStore, personaID, decision string) {
	_ = store.UpsertPrediction(nil, &datatypes.Prediction{
		PersonaID:    personaID,
		ModelVersion: "20251103-101500",
		Probability:  0.73,
		Decision:     decision,
		BaseValue:    -0.2,
		Attributions: []datatypes.FeatureAttribution{
			{Feature: "checking_status", Label: "Checking account status", Display: "below 0 DM", SHAP: 0.8},
			{Feature: "duration_months", Label: "Loan duration", Display: "48 months", SHAP: 0.4},
		},
		Counterfactuals: []datatypes.Counterfactual{
			{Feature: "duration_months", Label: "Loan duration", From: "48 months", To: "12 months", NewProbability: 0.3},
		},
	})
}

func TestListPersonas(t *testing.T) {
	deps, store := testDeps()
	router := testRouter(deps)
	seedPrediction(store, "persona-02", datatypes.DecisionReject)

	w := doJSON(router, http.MethodGet, "/v1/personas", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Count    int           `json:"count"`
		Personas []PersonaView `json:"personas"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, len(credit.Personas), resp.Count)

	for _, view := range resp.Personas {
		assert.Len(t, view.Profile, len(credit.Features))
		if view.ID == "persona-02" {
			assert.Equal(t, datatypes.DecisionReject, view.Decision)
		} else {
			assert.Empty(t, view.Decision)
		}
	}
	// Raw codes are decoded for display.
	assert.Equal(t, "200 DM or more", resp.Personas[0].Profile[0].Value)
}

func TestGetExplanationLayers(t *testing.T) {
	deps, store := testDeps()
	router := testRouter(deps)
	seedPrediction(store, "persona-01", datatypes.DecisionReject)

	for _, layer := range datatypes.Layers {
		w := doJSON(router, http.MethodGet, "/v1/personas/persona-01/explanations/"+layer, nil)
		require.Equal(t, http.StatusOK, w.Code, "layer %s: %s", layer, w.Body.String())

		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, layer, resp["layer"])
		assert.NotNil(t, resp["payload"])
	}
}

func TestGetExplanationErrors(t *testing.T) {
	deps, _ := testDeps()
	router := testRouter(deps)

	// No prediction loaded yet.
	w := doJSON(router, http.MethodGet, "/v1/personas/persona-01/explanations/table", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(router, http.MethodGet, "/v1/personas/bogus/explanations/table", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(router, http.MethodGet, "/v1/personas/persona-01/explanations/spreadsheet", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
