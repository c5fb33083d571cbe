// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides HTTP middleware for the study API.
//
// The researcher dashboard is gated by a single shared password sent as
// a bearer token. The password lives in a memguard enclave so it never
// sits in plain process memory between requests, and comparison is
// constant time.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/awnumar/memguard"
	"github.com/gin-gonic/gin"
)

// AdminGuard validates bearer-password auth for researcher routes.
type AdminGuard struct {
	secret *memguard.Enclave
}

// NewAdminGuard seals the password. The caller should wipe its own copy
// after this returns.
func NewAdminGuard(password string) *AdminGuard {
	return &AdminGuard{secret: memguard.NewEnclave([]byte(password))}
}

// Require is the gin middleware protecting admin routes. Browsers
// cannot attach headers to a WebSocket upgrade, so a "token" query
// parameter is accepted as a fallback for the monitor socket.
func (g *AdminGuard) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			token = c.Query("token")
			ok = token != ""
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		buf, err := g.secret.Open()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth unavailable"})
			return
		}
		match := subtle.ConstantTimeCompare(buf.Bytes(), []byte(token)) == 1
		buf.Destroy()

		if !match {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
