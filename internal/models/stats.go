// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package models

import (
	"time"
)

// AdminMetrics represents the back-office dashboard numbers.
//
// Revenue counts paid transactions only, in integer cents. The by-status and
// by-purpose maps use the constant values defined in this package as keys.
type AdminMetrics struct {
	TotalUsers           int              `json:"total_users"`
	VerifiedUsers        int              `json:"verified_users"`
	PremiumUsers         int              `json:"premium_users"`
	ActiveSubscriptions  int              `json:"active_subscriptions"`
	TotalReservations    int              `json:"total_reservations"`
	ReservationsByStatus map[string]int   `json:"reservations_by_status"`
	TotalVideos          int              `json:"total_videos"`
	TotalRevenueCents    int64            `json:"total_revenue_cents"`
	RevenueByPurpose     map[string]int64 `json:"revenue_by_purpose"`
}

// HealthStatus represents the health check response
type HealthStatus struct {
	Status            string     `json:"status"`
	Version           string     `json:"version"`
	DatabaseConnected bool       `json:"database_connected"`
	EventsConnected   bool       `json:"events_connected"`
	PaymentsEnabled   bool       `json:"payments_enabled"`
	EmailEnabled      bool       `json:"email_enabled"`
	Uptime            float64    `json:"uptime_seconds"`
	CheckedAt         *time.Time `json:"checked_at,omitempty"`
}
