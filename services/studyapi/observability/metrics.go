// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package observability provides Prometheus metrics for the study API.
//
// Metrics are exposed via the /metrics endpoint. All operations are
// thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "credlens"

// StudyMetrics holds the Prometheus metrics for study traffic.
// Initialize once at startup via NewStudyMetrics().
type StudyMetrics struct {
	// SessionsStarted counts created sessions.
	SessionsStarted prometheus.Counter

	// SessionsCompleted counts sessions that reached the final step.
	SessionsCompleted prometheus.Counter

	// StepAdvances counts step transitions by target step.
	// Labels: to_step
	StepAdvances *prometheus.CounterVec

	// RatingsSubmitted counts layer ratings by explanation layer.
	// Labels: layer
	RatingsSubmitted *prometheus.CounterVec

	// ExplanationRequests counts explanation renders by layer and status.
	// Labels: layer, status (success, error)
	ExplanationRequests *prometheus.CounterVec

	// RequestDurationSeconds measures handler latency by route group.
	// Labels: route
	RequestDurationSeconds *prometheus.HistogramVec
}

// NewStudyMetrics creates and registers all study metrics with reg.
// Pass prometheus.DefaultRegisterer in production; tests pass a fresh
// registry so parallel tests never collide.
func NewStudyMetrics(reg prometheus.Registerer) *StudyMetrics {
	factory := promauto.With(reg)
	return &StudyMetrics{
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sessions_started_total",
			Help:      "Number of study sessions created.",
		}),
		SessionsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "sessions_completed_total",
			Help:      "Number of study sessions that reached completion.",
		}),
		StepAdvances: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "step_advances_total",
			Help:      "Step transitions by target step.",
		}, []string{"to_step"}),
		RatingsSubmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "ratings_submitted_total",
			Help:      "Layer ratings submitted by explanation layer.",
		}, []string{"layer"}),
		ExplanationRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "explanation_requests_total",
			Help:      "Explanation layer renders by layer and status.",
		}, []string{"layer", "status"}),
		RequestDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "request_duration_seconds",
			Help:      "Handler latency by route group.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}
