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
	"math"
	"sort"

	"github.com/AleutianAI/CredLens/services/studyapi/datatypes"
)

// topBarSegments is how many features the dashboard bar chart shows;
// the remainder collapses into an "all other factors" segment.
const topBarSegments = 6

// BarSegment is one bar of the dashboard's contribution chart.
type BarSegment struct {
	Label string  `json:"label"`
	Value string  `json:"value,omitempty"`
	SHAP  float64 `json:"shap"`
}

// DashboardLayer is the chart-spec payload the frontend renders with
// plain HTML/CSS. Gauge is the rejection probability in [0, 1].
type DashboardLayer struct {
	PersonaID   string       `json:"persona_id"`
	Decision    string       `json:"decision"`
	Gauge       float64      `json:"gauge"`
	GaugeLabel  string       `json:"gauge_label"`
	Bars        []BarSegment `json:"bars"`
	MaxAbsSHAP  float64      `json:"max_abs_shap"` // scale hint for bar widths
}

// BuildDashboard produces the visual layer's chart specification.
func BuildDashboard(pred *datatypes.Prediction) *DashboardLayer {
	attrs := append([]datatypes.FeatureAttribution(nil), pred.Attributions...)
	sort.SliceStable(attrs, func(i, j int) bool {
		return math.Abs(attrs[i].SHAP) > math.Abs(attrs[j].SHAP)
	})

	layer := &DashboardLayer{
		PersonaID:  pred.PersonaID,
		Decision:   pred.Decision,
		Gauge:      pred.Probability,
		GaugeLabel: gaugeLabel(pred.Probability),
	}

	var rest float64
	for i, a := range attrs {
		if i < topBarSegments {
			layer.Bars = append(layer.Bars, BarSegment{Label: a.Label, Value: a.Display, SHAP: a.SHAP})
			if abs := math.Abs(a.SHAP); abs > layer.MaxAbsSHAP {
				layer.MaxAbsSHAP = abs
			}
		} else {
			rest += a.SHAP
		}
	}
	if rest != 0 {
		layer.Bars = append(layer.Bars, BarSegment{Label: "All other factors", SHAP: rest})
		if abs := math.Abs(rest); abs > layer.MaxAbsSHAP {
			layer.MaxAbsSHAP = abs
		}
	}
	return layer
}

func gaugeLabel(p float64) string {
	switch {
	case p < 0.25:
		return "low risk"
	case p < 0.5:
		return "moderate risk"
	case p < 0.75:
		return "elevated risk"
	default:
		return "high risk"
	}
}
