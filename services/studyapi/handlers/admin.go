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
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
)

// WipeConfirmPhrase must accompany a wipe request verbatim.
const WipeConfirmPhrase = "DELETE ALL STUDY DATA"

// AdminSummary aggregates study progress for the researcher dashboard.
func AdminSummary(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		summary := datatypes.StudySummary{GeneratedAt: time.Now().UTC()}

		byStep, err := deps.Store.CountSessionsByStep(ctx)
		if err != nil {
			slog.Error("Failed to count sessions", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build summary"})
			return
		}
		summary.SessionsByStep = byStep
		for _, n := range byStep {
			summary.SessionsTotal += n
		}
		summary.SessionsComplete = byStep[datatypes.StepComplete]

		if summary.RatingsTotal, err = deps.Store.CountRatings(ctx); err != nil {
			slog.Error("Failed to count ratings", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build summary"})
			return
		}
		if summary.PostResponses, err = deps.Store.CountPostQuestionnaires(ctx); err != nil {
			slog.Error("Failed to count post questionnaires", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build summary"})
			return
		}
		if summary.Layers, err = deps.Store.LayerSummaries(ctx); err != nil {
			slog.Error("Failed to aggregate layer ratings", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build summary"})
			return
		}
		if summary.PreferredLayer, err = deps.Store.PreferredLayerCounts(ctx); err != nil {
			slog.Error("Failed to count preferred layers", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build summary"})
			return
		}

		if preds, err := deps.Store.ListPredictions(ctx); err == nil && len(preds) > 0 {
			summary.ModelVersion = preds[0].ModelVersion
		}

		if deps.Timing != nil {
			summary.TimingSource = "influxdb"
		}
		if sessions, err := deps.Store.ListSessions(ctx); err == nil {
			summary.MedianSessionMins = medianSessionMinutes(sessions)
		}

		c.JSON(http.StatusOK, summary)
	}
}

// medianSessionMinutes is computed over completed sessions only; open
// sessions would drag the figure toward zero.
func medianSessionMinutes(sessions []datatypes.Session) float64 {
	var durations []float64
	for _, s := range sessions {
		if s.CompletedAt == nil {
			continue
		}
		durations = append(durations, s.CompletedAt.Sub(s.CreatedAt).Minutes())
	}
	if len(durations) == 0 {
		return 0
	}
	sort.Float64s(durations)
	mid := len(durations) / 2
	if len(durations)%2 == 1 {
		return durations[mid]
	}
	return (durations[mid-1] + durations[mid]) / 2
}

// AdminTiming reports mean dwell per step from InfluxDB.
func AdminTiming(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		averages, err := deps.Timing.StepAverages(c.Request.Context(), 30*24*time.Hour)
		if err != nil {
			slog.Error("Failed to query step timing", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query step timing"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"step_dwell_ms_mean": averages})
	}
}

// AdminListSessions returns all sessions for the dashboard table.
func AdminListSessions(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessions, err := deps.Store.ListSessions(c.Request.Context())
		if err != nil {
			slog.Error("Failed to list sessions", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list sessions"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"sessions": sessions, "count": len(sessions)})
	}
}

// AdminExport streams the full dataset as CSV.
func AdminExport(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", `attachment; filename="credlens-export.csv"`)
		rows, err := deps.Store.ExportCSV(c.Request.Context(), c.Writer)
		if err != nil {
			// Headers may already be out; log and cut the stream.
			slog.Error("CSV export failed", "rows_written", rows, "error", err)
			c.Abort()
			return
		}
		slog.Info("Exported study data", "rows", rows)
	}
}

// AdminDeleteSession removes one session, cascading its ratings and
// questionnaire.
func AdminDeleteSession(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sessionIDParam(c)
		if !ok {
			return
		}
		if err := deps.Store.DeleteSession(c.Request.Context(), id); err != nil {
			if errors.Is(err, datatypes.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			slog.Error("Failed to delete session", "session_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to delete session"})
			return
		}
		slog.Info("Session deleted by researcher", "session_id", id)
		c.JSON(http.StatusOK, gin.H{"status": "success", "deleted_session_id": id})
	}
}

// WipeRequest guards the destructive wipe endpoint.
type WipeRequest struct {
	Confirm string `json:"confirm" binding:"required"`
}

// AdminWipe deletes all study data. The exact confirm phrase is
// required so a stray curl cannot end a study.
func AdminWipe(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req WipeRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Confirm != WipeConfirmPhrase {
			c.JSON(http.StatusBadRequest, gin.H{"error": "wipe requires confirm phrase " + WipeConfirmPhrase})
			return
		}
		n, err := deps.Store.DeleteAllStudyData(c.Request.Context())
		if err != nil {
			slog.Error("Failed to wipe study data", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to wipe study data"})
			return
		}
		slog.Warn("All study data wiped", "sessions_deleted", n)
		c.JSON(http.StatusOK, gin.H{"status": "success", "sessions_deleted": n})
	}
}

// AdminPipelineTrain retrains the model from the cached dataset. This
// is a thin wrapper over the offline pipeline for convenience during
// piloting; production studies run the CLI.
func AdminPipelineTrain(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Pipeline == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline not configured"})
			return
		}
		ens, err := deps.Pipeline.Train(c.Request.Context())
		if err != nil {
			slog.Error("Pipeline train failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "pipeline train failed"})
			return
		}
		if err := deps.Pipeline.Explain(c.Request.Context(), deps.Store); err != nil {
			slog.Error("Pipeline explain failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "pipeline explain failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":        "success",
			"model_version": ens.Version,
			"accuracy":      ens.Metrics.Accuracy,
			"auc":           ens.Metrics.AUC,
		})
	}
}

// AdminPipelineUpload pushes the artifact directory to GCS.
func AdminPipelineUpload(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		if deps.Pipeline == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "pipeline not configured"})
			return
		}
		if err := deps.Pipeline.Upload(c.Request.Context()); err != nil {
			slog.Error("Artifact upload failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "artifact upload failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}
