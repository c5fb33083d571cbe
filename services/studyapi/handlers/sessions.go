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
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/AleutianAI/CredLens/pkg/validation"
	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
	"github.com/AleutianAI/CredLens/services/studyapi/monitor"
)

// CreateSessionRequest is the consent payload opening a session.
type CreateSessionRequest struct {
	ParticipantCode string `json:"participant_code" binding:"required"`
	ConsentVersion  string `json:"consent_version" binding:"required"`
	ConsentGiven    bool   `json:"consent_given"`
}

// CreateSession opens a session once consent is given.
func CreateSession(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateSessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !req.ConsentGiven {
			c.JSON(http.StatusBadRequest, gin.H{"error": "consent is required to start the study"})
			return
		}
		code, err := validation.SanitizeParticipantCode(req.ParticipantCode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		session, err := deps.Store.CreateSession(c.Request.Context(), code, req.ConsentVersion)
		if err != nil {
			if errors.Is(err, datatypes.ErrConflict) {
				c.JSON(http.StatusConflict, gin.H{"error": "a session already exists for this participant code"})
				return
			}
			slog.Error("Failed to create session", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create session"})
			return
		}

		slog.Info("Session created", "session_id", session.ID, "participant_code", code)
		deps.Metrics.SessionsStarted.Inc()
		deps.Monitor.Publish(monitor.Event{
			Type:            "session_started",
			SessionID:       session.ID,
			ParticipantCode: code,
			Step:            session.CurrentStep,
		})
		c.JSON(http.StatusCreated, session)
	}
}

// GetSession returns a session's current state.
func GetSession(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sessionIDParam(c)
		if !ok {
			return
		}
		session, err := deps.Store.GetSession(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, datatypes.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			slog.Error("Failed to load session", "session_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
			return
		}
		c.JSON(http.StatusOK, session)
	}
}

// AdvanceRequest moves the session forward one step. FromStep guards
// against double submits and out-of-order clients.
type AdvanceRequest struct {
	FromStep string `json:"from_step" binding:"required"`
	DwellMS  int64  `json:"dwell_ms"`
}

// AdvanceStep advances the linear survey flow by one step.
func AdvanceStep(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sessionIDParam(c)
		if !ok {
			return
		}
		var req AdvanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		next := datatypes.NextStep(req.FromStep)
		if next == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no step follows " + req.FromStep})
			return
		}
		// Entering complete goes through the complete endpoint, which
		// also stamps completed_at.
		if next == datatypes.StepComplete {
			c.JSON(http.StatusBadRequest, gin.H{"error": "use the complete endpoint to finish the session"})
			return
		}

		err := deps.Store.AdvanceStep(c.Request.Context(), id, req.FromStep, next)
		switch {
		case errors.Is(err, datatypes.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		case errors.Is(err, datatypes.ErrInvalidStep):
			c.JSON(http.StatusConflict, gin.H{"error": "session is not on step " + req.FromStep})
			return
		case err != nil:
			slog.Error("Failed to advance session", "session_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to advance session"})
			return
		}

		slog.Info("Session advanced", "session_id", id, "from", req.FromStep, "to", next)
		deps.Metrics.StepAdvances.WithLabelValues(next).Inc()
		deps.Timing.RecordStep(c.Request.Context(), id, req.FromStep, time.Duration(req.DwellMS)*time.Millisecond)
		deps.Monitor.Publish(monitor.Event{Type: "step_advanced", SessionID: id, Step: next})
		c.JSON(http.StatusOK, gin.H{"session_id": id, "current_step": next})
	}
}

// SaveBaseline stores the baseline questionnaire.
func SaveBaseline(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sessionIDParam(c)
		if !ok {
			return
		}
		var baseline datatypes.BaselineQuestionnaire
		if err := c.ShouldBindJSON(&baseline); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		likerts := []struct {
			field string
			value int
		}{
			{"financial_literacy", baseline.FinancialLiteracy},
			{"ai_trust", baseline.AITrust},
		}
		for _, l := range likerts {
			// Both priors are optional; zero means unanswered.
			if l.value == 0 {
				continue
			}
			if err := validation.ValidateLikert(l.field, l.value); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		if err := deps.Store.SaveBaseline(c.Request.Context(), id, &baseline); err != nil {
			if errors.Is(err, datatypes.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			slog.Error("Failed to save baseline", "session_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save baseline"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session_id": id, "status": "baseline saved"})
	}
}

// SubmitPostRequest is the closing questionnaire payload.
type SubmitPostRequest struct {
	TrustChange      int    `json:"trust_change" binding:"required,likert"`
	DecisionFairness int    `json:"decision_fairness" binding:"required,likert"`
	PreferredLayer   string `json:"preferred_layer" binding:"required"`
	MostHelpfulLayer string `json:"most_helpful_layer"`
	Comments         string `json:"comments"`
}

// SubmitPost stores the post questionnaire.
func SubmitPost(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sessionIDParam(c)
		if !ok {
			return
		}
		var req SubmitPostRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		likerts := []struct {
			field string
			value int
		}{
			{"trust_change", req.TrustChange},
			{"decision_fairness", req.DecisionFairness},
		}
		for _, l := range likerts {
			if err := validation.ValidateLikert(l.field, l.value); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		if err := validation.ValidateLayer(req.PreferredLayer); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.MostHelpfulLayer != "" {
			if err := validation.ValidateLayer(req.MostHelpfulLayer); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		q := &datatypes.PostQuestionnaire{
			SessionID:        id,
			TrustChange:      req.TrustChange,
			DecisionFairness: req.DecisionFairness,
			PreferredLayer:   req.PreferredLayer,
			MostHelpfulLayer: req.MostHelpfulLayer,
			Comments:         req.Comments,
		}
		if err := deps.Store.UpsertPostQuestionnaire(c.Request.Context(), q); err != nil {
			if errors.Is(err, datatypes.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			slog.Error("Failed to save post questionnaire", "session_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save questionnaire"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session_id": id, "status": "post questionnaire saved"})
	}
}

// CompleteSession marks the session finished and returns the completion
// code shown to the participant.
func CompleteSession(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sessionIDParam(c)
		if !ok {
			return
		}
		// The body is optional; the web client reports how long the
		// post questionnaire was on screen.
		var req struct {
			DwellMS int64 `json:"dwell_ms"`
		}
		_ = c.ShouldBindJSON(&req)
		err := deps.Store.CompleteSession(c.Request.Context(), id)
		switch {
		case errors.Is(err, datatypes.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		case errors.Is(err, datatypes.ErrInvalidStep):
			c.JSON(http.StatusConflict, gin.H{"error": "session has not reached the post questionnaire"})
			return
		case err != nil:
			slog.Error("Failed to complete session", "session_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to complete session"})
			return
		}

		slog.Info("Session completed", "session_id", id)
		deps.Metrics.SessionsCompleted.Inc()
		deps.Timing.RecordStep(c.Request.Context(), id, datatypes.StepPost, time.Duration(req.DwellMS)*time.Millisecond)
		deps.Monitor.Publish(monitor.Event{Type: "session_completed", SessionID: id})
		// The completion code is the first uuid block, enough for the
		// recruitment platform to match submissions.
		c.JSON(http.StatusOK, gin.H{
			"session_id":      id,
			"current_step":    datatypes.StepComplete,
			"completion_code": "CRED-" + id[:8],
		})
	}
}

// sessionIDParam validates the :sessionId path parameter as a uuid.
func sessionIDParam(c *gin.Context) (string, bool) {
	id := c.Param("sessionId")
	if _, err := uuid.Parse(id); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id"})
		return "", false
	}
	return id, true
}
