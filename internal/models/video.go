// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package models

import (
	"time"

	"github.com/google/uuid"
)

// Video category constants. Categories map to the geographic areas the
// 360° experiences cover.
const (
	// CategoryNasca covers flights over the Nasca lines.
	CategoryNasca = "nasca"

	// CategoryPalpa covers the Palpa geoglyphs.
	CategoryPalpa = "palpa"

	// CategoryMuseum covers museum and cultural site walkthroughs.
	CategoryMuseum = "museum"
)

// ValidCategories contains all valid video categories for validation.
var ValidCategories = []string{CategoryNasca, CategoryPalpa, CategoryMuseum}

// IsValidCategory checks if a category name is valid.
func IsValidCategory(category string) bool {
	for _, c := range ValidCategories {
		if c == category {
			return true
		}
	}
	return false
}

// Video represents a 360° experience in the catalog.
//
// Media files live on an external CDN; VideoURL and ThumbnailURL reference
// them directly. Premium entries are only served to viewers with an active
// premium plan (list responses filter them out, detail responses return 403).
// Unpublished entries are only visible through the admin API.
type Video struct {
	ID              uuid.UUID `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	VideoURL        string    `json:"video_url"`
	ThumbnailURL    string    `json:"thumbnail_url,omitempty"`
	DurationSeconds int       `json:"duration_seconds"`
	IsPremium       bool      `json:"is_premium"`
	Published       bool      `json:"published"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ViewableBy reports whether a viewer on the given plan may watch this video.
func (v *Video) ViewableBy(plan string) bool {
	return !v.IsPremium || plan == PlanPremium
}
