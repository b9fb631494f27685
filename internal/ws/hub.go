// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package ws

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/metrics"
)

// Message types pushed to connected clients.
const (
	MessageTypePing              = "ping"
	MessageTypePong              = "pong"
	MessageTypeAvailability      = "availability_changed"
	MessageTypeReservationStatus = "reservation_status"
)

// Message is one frame on the availability socket.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// AvailabilityData is the body of an availability_changed message.
type AvailabilityData struct {
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	FreeCabins int    `json:"free_cabins"`
}

// ReservationStatusData is the body of a reservation_status message.
type ReservationStatusData struct {
	ReservationID string `json:"reservation_id"`
	Status        string `json:"status"`
}

// Hub maintains the set of connected clients and fans broadcasts out to
// them. Implements booking.Broadcaster.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub ready to run.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Run drives the hub until context cancellation. Designed for suture
// supervision: on cancel all clients are closed and ctx.Err() returned.
//
// Selection is priority-ordered — shutdown, then client lifecycle, then
// broadcasts — because Go's select picks randomly among ready channels
// and client state must be settled before messages flow.
func (h *Hub) Run(ctx context.Context) error {
	for {
		// Priority 1: shutdown.
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: client lifecycle (non-blocking check).
		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		// Priority 3: broadcasts, or block until anything arrives.
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(count))
	logging.Info().
		Str("component", "ws-hub").
		Int("total_clients", count).
		Msg("Websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(count))
	logging.Info().
		Str("component", "ws-hub").
		Int("total_clients", count).
		Msg("Websocket client disconnected")
}

func (h *Hub) shutdown(ctx context.Context) {
	count := h.ClientCount()
	h.closeAllClients()

	reason := "context_canceled"
	if ctx.Err() == context.DeadlineExceeded {
		reason = "context_deadline"
	}
	logging.Info().
		Str("component", "ws-hub").
		Str("reason", reason).
		Int("clients_closed", count).
		Msg("Websocket hub stopped")
}

// broadcastToClients fans one message out in deterministic client-ID
// order. Clients with a full send buffer are dropped; a stalled reader
// must not block the rest.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
	}
	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
		logging.Warn().
			Str("component", "ws-hub").
			Int("dropped", len(toRemove)).
			Msg("Dropped stalled websocket clients")
	}
}

func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	metrics.WSConnections.Set(0)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// enqueue drops the message when the broadcast buffer is full; live
// availability is advisory, clients refetch on reconnect.
func (h *Hub) enqueue(message Message) {
	select {
	case h.broadcast <- message:
		metrics.WSMessagesSent.Inc()
	default:
		logging.Warn().
			Str("component", "ws-hub").
			Str("message_type", message.Type).
			Msg("Broadcast channel full, dropping message")
	}
}

// BroadcastAvailability pushes a slot's new free-cabin count.
// Implements booking.Broadcaster.
func (h *Hub) BroadcastAvailability(date, startTime string, freeCabins int) {
	h.enqueue(Message{
		Type: MessageTypeAvailability,
		Data: AvailabilityData{Date: date, StartTime: startTime, FreeCabins: freeCabins},
	})
}

// BroadcastReservationStatus pushes a reservation lifecycle change.
// Implements booking.Broadcaster.
func (h *Hub) BroadcastReservationStatus(reservationID uuid.UUID, status string) {
	h.enqueue(Message{
		Type: MessageTypeReservationStatus,
		Data: ReservationStatusData{ReservationID: reservationID.String(), Status: status},
	})
}
