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

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
)

func TestSubmitRating(t *testing.T) {
	deps, store := testDeps()
	router := testRouter(deps)
	id := createTestSession(t, router)

	w := doJSON(router, http.MethodPost, "/v1/sessions/"+id+"/ratings", gin.H{
		"persona_id":         "persona-01",
		"layer":              "table",
		"understanding":      4,
		"communicability":    3,
		"ease_of_processing": 5,
		"dwell_ms":           48211,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stored := store.ratings[id+"|persona-01|table"]
	require.NotNil(t, stored)
	// The form sends ease of processing; storage keeps cognitive load.
	assert.Equal(t, 1, stored.CognitiveLoad)
	assert.Equal(t, 4, stored.Understanding)
	assert.Equal(t, int64(48211), stored.DwellMS)
}

func TestSubmitRatingValidation(t *testing.T) {
	deps, _ := testDeps()
	router := testRouter(deps)
	id := createTestSession(t, router)

	valid := gin.H{
		"persona_id":         "persona-01",
		"layer":              "dashboard",
		"understanding":      3,
		"communicability":    3,
		"ease_of_processing": 3,
	}
	tests := []struct {
		name     string
		mutate   func(gin.H)
		wantCode int
	}{
		{"ok", func(gin.H) {}, http.StatusOK},
		{"bad persona", func(b gin.H) { b["persona_id"] = "applicant-1" }, http.StatusBadRequest},
		{"bad layer", func(b gin.H) { b["layer"] = "spreadsheet" }, http.StatusBadRequest},
		{"likert too high", func(b gin.H) { b["understanding"] = 6 }, http.StatusBadRequest},
		{"likert too low", func(b gin.H) { b["ease_of_processing"] = 0 }, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := gin.H{}
			for k, v := range valid {
				body[k] = v
			}
			tt.mutate(body)
			w := doJSON(router, http.MethodPost, "/v1/sessions/"+id+"/ratings", body)
			assert.Equal(t, tt.wantCode, w.Code, w.Body.String())
		})
	}
}

func TestSubmitRatingUnknownSession(t *testing.T) {
	deps, _ := testDeps()
	router := testRouter(deps)

	w := doJSON(router, http.MethodPost, "/v1/sessions/b3b32c24-0000-4000-8000-000000000000/ratings", gin.H{
		"persona_id":         "persona-01",
		"layer":              "table",
		"understanding":      3,
		"communicability":    3,
		"ease_of_processing": 3,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSubmitRatingUpsert(t *testing.T) {
	deps, store := testDeps()
	router := testRouter(deps)
	id := createTestSession(t, router)

	body := gin.H{
		"persona_id":         "persona-02",
		"layer":              "narrative",
		"understanding":      2,
		"communicability":    2,
		"ease_of_processing": 2,
	}
	require.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/v1/sessions/"+id+"/ratings", body).Code)

	body["understanding"] = 5
	require.Equal(t, http.StatusOK, doJSON(router, http.MethodPost, "/v1/sessions/"+id+"/ratings", body).Code)

	assert.Len(t, store.ratings, 1)
	assert.Equal(t, 5, store.ratings[id+"|persona-02|narrative"].Understanding)
}

func TestListRatings(t *testing.T) {
	deps, _ := testDeps()
	router := testRouter(deps)
	id := createTestSession(t, router)

	for _, layer := range datatypes.Layers {
		w := doJSON(router, http.MethodPost, "/v1/sessions/"+id+"/ratings", gin.H{
			"persona_id":         "persona-01",
			"layer":              layer,
			"understanding":      3,
			"communicability":    3,
			"ease_of_processing": 3,
		})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doJSON(router, http.MethodGet, "/v1/sessions/"+id+"/ratings", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Count   int                     `json:"count"`
		Ratings []datatypes.LayerRating `json:"ratings"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, len(datatypes.Layers), resp.Count)
}
