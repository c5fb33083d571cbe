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
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
)

func adminRouter(deps Deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	admin := router.Group("/v1/admin")
	admin.GET("/summary", AdminSummary(deps))
	admin.GET("/sessions", AdminListSessions(deps))
	admin.GET("/export", AdminExport(deps))
	admin.DELETE("/sessions/:sessionId", AdminDeleteSession(deps))
	admin.DELETE("/data", AdminWipe(deps))
	admin.POST("/pipeline/train", AdminPipelineTrain(deps))
	admin.POST("/pipeline/upload", AdminPipelineUpload(deps))
	return router
}

func TestAdminSummary(t *testing.T) {
	deps, store := testDeps()
	router := testRouter(deps)
	admin := adminRouter(deps)

	id := createTestSession(t, router)
	doJSON(router, http.MethodPost, "/v1/sessions/"+id+"/ratings", gin.H{
		"persona_id":         "persona-01",
		"layer":              "table",
		"understanding":      4,
		"communicability":    4,
		"ease_of_processing": 4,
	})
	require.NoError(t, store.UpsertPrediction(nil, &datatypes.Prediction{
		PersonaID: "persona-01", ModelVersion: "20251103-101500",
	}))

	w := doJSON(admin, http.MethodGet, "/v1/admin/summary", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var summary datatypes.StudySummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.SessionsTotal)
	assert.Equal(t, 1, summary.RatingsTotal)
	assert.Equal(t, 1, summary.SessionsByStep[datatypes.StepConsent])
	assert.Equal(t, "20251103-101500", summary.ModelVersion)
	assert.False(t, summary.GeneratedAt.IsZero())

	// No timing sink configured, no completed sessions yet.
	assert.Empty(t, summary.TimingSource)
	assert.Zero(t, summary.MedianSessionMins)

	// A completed 30-minute session drives the median.
	done := time.Now().UTC()
	store.sessions[id].CreatedAt = done.Add(-30 * time.Minute)
	store.sessions[id].CompletedAt = &done

	w = doJSON(admin, http.MethodGet, "/v1/admin/summary", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.InDelta(t, 30.0, summary.MedianSessionMins, 0.1)
}

func TestAdminSummaryStoreDown(t *testing.T) {
	deps, store := testDeps()
	store.failAll = true
	admin := adminRouter(deps)

	w := doJSON(admin, http.MethodGet, "/v1/admin/summary", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAdminExport(t *testing.T) {
	deps, _ := testDeps()
	router := testRouter(deps)
	admin := adminRouter(deps)
	createTestSession(t, router)

	w := doJSON(admin, http.MethodGet, "/v1/admin/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "credlens-export.csv")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 2) // header + one session
	assert.Contains(t, lines[1], "STUDY-0042")
}

func TestAdminDeleteSession(t *testing.T) {
	deps, store := testDeps()
	router := testRouter(deps)
	admin := adminRouter(deps)
	id := createTestSession(t, router)

	w := doJSON(admin, http.MethodDelete, "/v1/admin/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.sessions)

	w = doJSON(admin, http.MethodDelete, "/v1/admin/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminWipe(t *testing.T) {
	deps, store := testDeps()
	router := testRouter(deps)
	admin := adminRouter(deps)
	createTestSession(t, router)

	// Wrong or missing confirm phrase is rejected.
	w := doJSON(admin, http.MethodDelete, "/v1/admin/data", gin.H{"confirm": "yes please"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Len(t, store.sessions, 1)

	w = doJSON(admin, http.MethodDelete, "/v1/admin/data", gin.H{"confirm": WipeConfirmPhrase})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, store.sessions)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(1), resp["sessions_deleted"])
}

func TestAdminPipelineUnconfigured(t *testing.T) {
	deps, _ := testDeps()
	admin := adminRouter(deps)

	w := doJSON(admin, http.MethodPost, "/v1/admin/pipeline/train", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = doJSON(admin, http.MethodPost, "/v1/admin/pipeline/upload", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
