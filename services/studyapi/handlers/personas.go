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
	"github.com/AleutianAI/CredLens/services/pipeline/credit"
	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
)

// PersonaView is the application-profile payload shown on the persona
// review screen, with the model decision attached.
type PersonaView struct {
	ID       string         `json:"persona_id"`
	Name     string         `json:"name"`
	Summary  string         `json:"summary"`
	Profile  []ProfileField `json:"profile"`
	Decision string         `json:"decision,omitempty"`
}

// ProfileField is one decoded application attribute.
type ProfileField struct {
	Feature string `json:"feature"`
	Label   string `json:"label"`
	Value   string `json:"value"`
}

// ListPersonas returns the scripted applicants in study order.
func ListPersonas(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		preds, err := deps.Store.ListPredictions(c.Request.Context())
		if err != nil {
			slog.Error("Failed to list predictions", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list personas"})
			return
		}
		decisions := make(map[string]string, len(preds))
		for _, p := range preds {
			decisions[p.PersonaID] = p.Decision
		}

		views := make([]PersonaView, 0, len(credit.Personas))
		for _, p := range credit.Personas {
			views = append(views, personaView(p, decisions[p.ID]))
		}
		c.JSON(http.StatusOK, gin.H{"personas": views, "count": len(views)})
	}
}

// GetExplanation renders one explanation layer for a persona.
func GetExplanation(deps Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		personaID := c.Param("personaId")
		layer := c.Param("layer")
		if err := validation.ValidatePersonaID(personaID); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := validation.ValidateLayer(layer); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		pred, err := deps.Store.GetPrediction(c.Request.Context(), personaID)
		if err != nil {
			if errors.Is(err, datatypes.ErrNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "no prediction for persona " + personaID + "; run the pipeline first"})
				return
			}
			slog.Error("Failed to load prediction", "persona_id", personaID, "error", err)
			deps.Metrics.ExplanationRequests.WithLabelValues(layer, "error").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load prediction"})
			return
		}

		payload, err := deps.Builder.BuildLayer(c.Request.Context(), pred, layer)
		if err != nil {
			slog.Error("Failed to build explanation layer", "persona_id", personaID, "layer", layer, "error", err)
			deps.Metrics.ExplanationRequests.WithLabelValues(layer, "error").Inc()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render explanation"})
			return
		}
		deps.Metrics.ExplanationRequests.WithLabelValues(layer, "success").Inc()
		c.JSON(http.StatusOK, gin.H{"layer": layer, "payload": payload})
	}
}

func personaView(p credit.Persona, decision string) PersonaView {
	view := PersonaView{
		ID:       p.ID,
		Name:     p.Name,
		Summary:  p.Summary,
		Decision: decision,
	}
	for i, spec := range credit.Features {
		view.Profile = append(view.Profile, ProfileField{
			Feature: spec.Name,
			Label:   spec.Label,
			Value:   spec.Decode(p.Raw[i]),
		})
	}
	return view
}
