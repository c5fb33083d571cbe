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
	"fmt"
	"strings"

	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
)

// CounterfactualOption is one rendered what-if scenario.
type CounterfactualOption struct {
	Feature        string  `json:"feature"`
	Label          string  `json:"label"`
	From           string  `json:"from"`
	To             string  `json:"to"`
	NewProbability float64 `json:"new_probability"`
	Sentence       string  `json:"sentence"`
}

// CounterfactualLayer is the what-if explanation payload.
type CounterfactualLayer struct {
	PersonaID   string                 `json:"persona_id"`
	Decision    string                 `json:"decision"`
	Probability float64                `json:"probability"`
	Options     []CounterfactualOption `json:"options"`
	Summary     string                 `json:"summary"`
}

// BuildCounterfactual renders the pipeline-computed minimal flips as
// sentences.
func BuildCounterfactual(pred *datatypes.Prediction) *CounterfactualLayer {
	layer := &CounterfactualLayer{
		PersonaID:   pred.PersonaID,
		Decision:    pred.Decision,
		Probability: pred.Probability,
	}

	flipped := datatypes.DecisionApprove
	if pred.Decision == datatypes.DecisionApprove {
		flipped = datatypes.DecisionReject
	}
	for _, cf := range pred.Counterfactuals {
		layer.Options = append(layer.Options, CounterfactualOption{
			Feature:        cf.Feature,
			Label:          cf.Label,
			From:           cf.From,
			To:             cf.To,
			NewProbability: cf.NewProbability,
			Sentence: fmt.Sprintf("If %s were %s instead of %s, the decision would be %s.",
				strings.ToLower(cf.Label), cf.To, cf.From, flipped),
		})
	}

	switch {
	case len(layer.Options) == 0 && pred.Decision == datatypes.DecisionReject:
		layer.Summary = "No single realistic change to the application would have led to an approval."
	case len(layer.Options) == 0:
		layer.Summary = "No single realistic change to the application would have led to a rejection."
	case pred.Decision == datatypes.DecisionReject:
		layer.Summary = "The smallest changes that would have led to an approval:"
	default:
		layer.Summary = "The smallest changes that would have led to a rejection:"
	}
	return layer
}
