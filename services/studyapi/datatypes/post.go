// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package datatypes

import "time"

// PostQuestionnaire is the closing questionnaire submitted after all
// personas have been reviewed. One row per session.
type PostQuestionnaire struct {
	SessionID string `json:"session_id"`

	TrustChange      int    `json:"trust_change"`       // 1-5: AI trust after the study vs before
	DecisionFairness int    `json:"decision_fairness"`  // 1-5: perceived fairness of the decisions
	PreferredLayer   string `json:"preferred_layer"`    // which layer they would want as a customer
	MostHelpfulLayer string `json:"most_helpful_layer"` // added late in the study; may be empty
	Comments         string `json:"comments,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
