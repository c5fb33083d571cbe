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

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/CredLens/pkg/validation"
	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
	"github.com/AleutianAI/CredLens/services/studyapi/monitor"
)

// RatingRequest is one persona+layer Likert triple. The form asks "the
// explanation was easy to process" (higher = easier); storage keeps the
// inverted scale (higher = more load), and the handler converts.
type RatingRequest struct {
	PersonaID       string `json:"persona_id" binding:"required"`
	Layer           string `json:"layer" binding:"required"`
	Understanding   int    `json:"understanding" binding:"required,likert"`
	Communicability int    `json:"communicability" binding:"required,likert"`
	EaseOfProcess   int    `json:"ease_of_processing" binding:"required,likert"`
	DwellMS         int64  `json:"dwell_ms"`
}

// SubmitRating upserts a layer rating for the session.
func SubmitRating(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sessionIDParam(c)
		if !ok {
			return
		}
		var req RatingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := validation.ValidatePersonaID(req.PersonaID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := validation.ValidateLayer(req.Layer); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		likerts := []struct {
			field string
			value int
		}{
			{"understanding", req.Understanding},
			{"communicability", req.Communicability},
			{"ease_of_processing", req.EaseOfProcess},
		}
		for _, l := range likerts {
			if err := validation.ValidateLikert(l.field, l.value); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}

		rating := &datatypes.LayerRating{
			SessionID:       id,
			PersonaID:       req.PersonaID,
			Layer:           req.Layer,
			Understanding:   req.Understanding,
			Communicability: req.Communicability,
			CognitiveLoad:   6 - req.EaseOfProcess, // invert to "higher = more load"
			DwellMS:         req.DwellMS,
		}
		if err := deps.Store.UpsertRating(c.Request.Context(), rating); err != nil {
			if errors.Is(err, datatypes.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
				return
			}
			slog.Error("Failed to save rating", "session_id", id, "layer", req.Layer, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save rating"})
			return
		}

		deps.Metrics.RatingsSubmitted.WithLabelValues(req.Layer).Inc()
		deps.Monitor.Publish(monitor.Event{
			Type:      "rating_submitted",
			SessionID: id,
			PersonaID: req.PersonaID,
			Layer:     req.Layer,
		})
		c.JSON(http.StatusOK, rating)
	}
}

// ListRatings returns the ratings a session has submitted so far, so a
// reconnecting client can resume where it left off.
func ListRatings(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := sessionIDParam(c)
		if !ok {
			return
		}
		ratings, err := deps.Store.ListRatingsBySession(c.Request.Context(), id)
		if err != nil {
			slog.Error("Failed to list ratings", "session_id", id, "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list ratings"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"session_id": id, "ratings": ratings, "count": len(ratings)})
	}
}
