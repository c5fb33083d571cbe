// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package explain

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
)

// narrativeTopK is how many attributions feed the narrative prompt.
const narrativeTopK = 4

// GenerationParams tune an LLM backend.
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// LLMClient is the interface any narrative backend implements.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, params GenerationParams) (string, error)
	Name() string
}

// NarrativeLayer is the chatbot-style explanation payload.
type NarrativeLayer struct {
	PersonaID   string  `json:"persona_id"`
	Decision    string  `json:"decision"`
	Probability float64 `json:"probability"`
	Text        string  `json:"text"`
	Backend     string  `json:"backend"`
}

// BuildNarrative renders the narrative layer. When the backend fails,
// the deterministic template output is served instead of an error so a
// flaky LLM never blocks a study session.
func (b *Builder) BuildNarrative(ctx context.Context, pred *datatypes.Prediction) (*NarrativeLayer, error) {
	prompt := narrativePrompt(pred)
	text, err := b.llm.Generate(ctx, prompt, GenerationParams{})
	backend := b.llm.Name()
	if err != nil || strings.TrimSpace(text) == "" {
		fallback := NewTemplateClient()
		text, _ = fallback.Generate(ctx, prompt, GenerationParams{})
		backend = fallback.Name()
	}
	return &NarrativeLayer{
		PersonaID:   pred.PersonaID,
		Decision:    pred.Decision,
		Probability: pred.Probability,
		Text:        text,
		Backend:     backend,
	}, nil
}

// topAttributions returns the k largest contributions by magnitude.
func topAttributions(pred *datatypes.Prediction, k int) []datatypes.FeatureAttribution {
	attrs := append([]datatypes.FeatureAttribution(nil), pred.Attributions...)
	sort.SliceStable(attrs, func(i, j int) bool {
		return math.Abs(attrs[i].SHAP) > math.Abs(attrs[j].SHAP)
	})
	if len(attrs) > k {
		attrs = attrs[:k]
	}
	return attrs
}

// narrativePrompt is the user prompt handed to an LLM backend. The
// template backend parses the same structure, so both produce prose
// grounded in the identical top-k attribution set.
func narrativePrompt(pred *datatypes.Prediction) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Decision: %s (rejection probability %.1f%%)\n", pred.Decision, pred.Probability*100)
	sb.WriteString("Top factors:\n")
	for _, a := range topAttributions(pred, narrativeTopK) {
		dir := "supported approval"
		if a.SHAP > 0 {
			dir = "pushed toward rejection"
		}
		fmt.Fprintf(&sb, "- %s (%s): %s\n", a.Label, a.Display, dir)
	}
	sb.WriteString("Explain this credit decision to the applicant in plain language, in at most four sentences, without naming the model or any numbers other than the ones above.")
	return sb.String()
}
