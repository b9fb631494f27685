// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package api

import (
	"testing"

	"github.com/nazca360/nazca360/internal/models"
)

func TestApplyVideoUpdate(t *testing.T) {
	strPtr := func(s string) *string { return &s }
	intPtr := func(i int) *int { return &i }
	boolPtr := func(b bool) *bool { return &b }

	base := func() *models.Video {
		return &models.Video{
			Title:           "Sobrevuelo Nasca",
			Description:     "Vuelo virtual sobre las líneas",
			Category:        models.CategoryNasca,
			VideoURL:        "https://cdn.nazca360.pe/v/nasca.mp4",
			DurationSeconds: 600,
			IsPremium:       false,
			Published:       true,
		}
	}

	t.Run("empty request changes nothing", func(t *testing.T) {
		video := base()
		applyVideoUpdate(video, &models.VideoUpdateRequest{})
		if *video != *base() {
			t.Errorf("video changed: %+v", video)
		}
	})

	t.Run("partial update touches only named fields", func(t *testing.T) {
		video := base()
		applyVideoUpdate(video, &models.VideoUpdateRequest{
			Title:     strPtr("Sobrevuelo Palpa"),
			IsPremium: boolPtr(true),
		})
		if video.Title != "Sobrevuelo Palpa" {
			t.Errorf("Title = %q, want updated title", video.Title)
		}
		if !video.IsPremium {
			t.Error("IsPremium not updated")
		}
		if video.Category != models.CategoryNasca || video.DurationSeconds != 600 {
			t.Error("untouched fields changed")
		}
	})

	t.Run("full update replaces everything", func(t *testing.T) {
		video := base()
		applyVideoUpdate(video, &models.VideoUpdateRequest{
			Title:           strPtr("Museo virtual"),
			Description:     strPtr("Recorrido por el museo"),
			Category:        strPtr(models.CategoryMuseum),
			VideoURL:        strPtr("https://cdn.nazca360.pe/v/museo.mp4"),
			ThumbnailURL:    strPtr("https://cdn.nazca360.pe/t/museo.jpg"),
			DurationSeconds: intPtr(900),
			IsPremium:       boolPtr(true),
			Published:       boolPtr(false),
		})
		if video.Category != models.CategoryMuseum || video.DurationSeconds != 900 || video.Published {
			t.Errorf("full update not applied: %+v", video)
		}
	})
}
