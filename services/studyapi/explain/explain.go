// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package explain renders a stored prediction into the four explanation
// layers participants compare: ranked table, visual dashboard, chatbot
// narrative, and counterfactual advice.
package explain

import (
	"context"
	"fmt"

	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
)

// Builder renders explanation layers. The narrative layer may call an
// LLM backend; the other layers are pure functions of the prediction.
type Builder struct {
	llm LLMClient
}

// NewBuilder creates a Builder. llm may be nil, in which case the
// narrative layer uses the deterministic template backend.
func NewBuilder(llm LLMClient) *Builder {
	if llm == nil {
		llm = NewTemplateClient()
	}
	return &Builder{llm: llm}
}

// BuildLayer renders one layer for a prediction.
func (b *Builder) BuildLayer(ctx context.Context, pred *datatypes.Prediction, layer string) (any, error) {
	switch layer {
	case datatypes.LayerTable:
		return BuildTable(pred), nil
	case datatypes.LayerDashboard:
		return BuildDashboard(pred), nil
	case datatypes.LayerNarrative:
		return b.BuildNarrative(ctx, pred)
	case datatypes.LayerCounterfactual:
		return BuildCounterfactual(pred), nil
	default:
		return nil, fmt.Errorf("unknown explanation layer %q", layer)
	}
}
