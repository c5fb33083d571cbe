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
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func guardedRouter(password string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	guard := NewAdminGuard(password)
	router.GET("/admin", guard.Require(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func TestAdminGuard(t *testing.T) {
	router := guardedRouter("correct-horse")

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{"valid password", "Bearer correct-horse", http.StatusOK},
		{"lowercase scheme", "bearer correct-horse", http.StatusOK},
		{"wrong password", "Bearer battery-staple", http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic correct-horse", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestAdminGuardQueryToken(t *testing.T) {
	// WebSocket upgrades from a browser cannot carry headers.
	router := guardedRouter("correct-horse")

	tests := []struct {
		name       string
		target     string
		wantStatus int
	}{
		{"valid query token", "/admin?token=correct-horse", http.StatusOK},
		{"wrong query token", "/admin?token=nope", http.StatusUnauthorized},
		{"empty query token", "/admin?token=", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestAdminGuardRepeatedUse(t *testing.T) {
	// The enclave must survive being opened across many requests.
	router := guardedRouter("s3cret")
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer s3cret")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
