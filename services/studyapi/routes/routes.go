// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AleutianAI/CredLens/services/studyapi/handlers"
	"github.com/AleutianAI/CredLens/services/studyapi/middleware"
	"github.com/AleutianAI/CredLens/web"
)

// SetupRoutes registers every route of the study API. staticDir serves
// the survey UI from disk instead of the embedded copy when non-empty,
// which is handy while iterating on the frontend.
func SetupRoutes(router *gin.Engine, deps handlers.Deps, guard *middleware.AdminGuard, staticDir string) {
	router.Use(middleware.RequestTimer(deps.Metrics))

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if staticDir != "" {
		router.Static("/ui", staticDir)
	} else {
		router.StaticFS("/ui", http.FS(web.Static()))
	}
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/ui/index.html")
	})

	// API version 1 group
	v1 := router.Group("/v1")
	{
		v1.GET("/personas", handlers.ListPersonas(deps))
		v1.GET("/personas/:personaId/explanations/:layer", handlers.GetExplanation(deps))

		sessions := v1.Group("/sessions")
		{
			sessions.POST("", handlers.CreateSession(deps))
			sessions.GET("/:sessionId", handlers.GetSession(deps))
			sessions.POST("/:sessionId/advance", handlers.AdvanceStep(deps))
			sessions.POST("/:sessionId/baseline", handlers.SaveBaseline(deps))
			sessions.POST("/:sessionId/ratings", handlers.SubmitRating(deps))
			sessions.GET("/:sessionId/ratings", handlers.ListRatings(deps))
			sessions.POST("/:sessionId/post", handlers.SubmitPost(deps))
			sessions.POST("/:sessionId/complete", handlers.CompleteSession(deps))
		}

		// Researcher administration routes
		admin := v1.Group("/admin", guard.Require())
		{
			admin.GET("/summary", handlers.AdminSummary(deps))
			admin.GET("/timing", handlers.AdminTiming(deps))
			admin.GET("/sessions", handlers.AdminListSessions(deps))
			admin.GET("/export", handlers.AdminExport(deps))
			admin.DELETE("/sessions/:sessionId", handlers.AdminDeleteSession(deps))
			admin.DELETE("/data", handlers.AdminWipe(deps))
			admin.POST("/pipeline/train", handlers.AdminPipelineTrain(deps))
			admin.POST("/pipeline/upload", handlers.AdminPipelineUpload(deps))
			admin.GET("/monitor/ws", deps.Monitor.Handler())
		}
	}
}
