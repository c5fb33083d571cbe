// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package monitor pushes live session-progress events to the researcher
// dashboard over a websocket.
package monitor

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// Event is one progress update pushed to connected dashboards.
type Event struct {
	Type            string    `json:"type"` // session_started, step_advanced, rating_submitted, session_completed
	SessionID       string    `json:"session_id"`
	ParticipantCode string    `json:"participant_code,omitempty"`
	Step            string    `json:"step,omitempty"`
	Layer           string    `json:"layer,omitempty"`
	PersonaID       string    `json:"persona_id,omitempty"`
	At              time.Time `json:"at"`
}

// Hub fans events out to every connected dashboard. A nil *Hub is valid
// and drops all events, which keeps handlers free of nil checks wiring.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]struct{})}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The dashboard is served from the same origin; the admin password
	// already gates this route.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades the connection and keeps it registered until the
// client goes away. The read loop only exists to observe the close.
func (h *Hub) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			slog.Error("Failed to upgrade monitor websocket", "error", err)
			return
		}
		h.register(conn)
		slog.Info("Monitor client connected", "remote", conn.RemoteAddr().String())

		go func() {
			defer func() {
				h.unregister(conn)
				conn.Close()
				slog.Info("Monitor client disconnected", "remote", conn.RemoteAddr().String())
			}()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	}
}

// Publish sends the event to every connected client. Slow or broken
// clients are dropped rather than blocking study traffic.
func (h *Hub) Publish(e Event) {
	if h == nil {
		return
	}
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := conn.WriteJSON(e); err != nil {
			slog.Warn("Dropping monitor client", "error", err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}

// ClientCount reports how many dashboards are connected.
func (h *Hub) ClientCount() int {
	if h == nil {
		return 0
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) register(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = struct{}{}
}

func (h *Hub) unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, conn)
}
