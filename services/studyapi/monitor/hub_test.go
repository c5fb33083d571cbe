// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package monitor

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/ws", hub.Handler())
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("hub never reached %d clients (have %d)", want, hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHubPublish(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	hub.Publish(Event{
		Type:      "step_advanced",
		SessionID: "abc-123",
		Step:      "rating",
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var got Event
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "step_advanced", got.Type)
	assert.Equal(t, "abc-123", got.SessionID)
	assert.Equal(t, "rating", got.Step)
	assert.False(t, got.At.IsZero())
}

func TestHubDropsClosedClients(t *testing.T) {
	hub := NewHub()
	conn := dialHub(t, hub)
	waitForClients(t, hub, 1)

	conn.Close()
	// Publishing into a closed connection must evict it eventually.
	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		hub.Publish(Event{Type: "session_started", SessionID: "x"})
		if time.Now().After(deadline) {
			t.Fatal("closed client was never evicted")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNilHubIsSafe(t *testing.T) {
	var hub *Hub
	assert.NotPanics(t, func() {
		hub.Publish(Event{Type: "session_started"})
	})
	assert.Equal(t, 0, hub.ClientCount())
}
