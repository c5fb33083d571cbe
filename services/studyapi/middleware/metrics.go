// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/AleutianAI/CredLens/services/studyapi/observability"
)

// RequestTimer records handler latency per route template. Using
// c.FullPath() keeps the label cardinality bounded by the route table
// instead of exploding on session UUIDs.
func RequestTimer(metrics *observability.StudyMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RequestDurationSeconds.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
