// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package database

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/nazca360/nazca360/internal/models"
)

func TestCreateVideo(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	tests := []struct {
		name    string
		video   *models.Video
		wantErr error
	}{
		{
			name: "free nasca flight",
			video: &models.Video{
				Title:           "Sobrevuelo de prueba",
				Description:     "Un vuelo de prueba sobre las líneas.",
				Category:        models.CategoryNasca,
				VideoURL:        "https://media.nazca360.pe/test/flight.mp4",
				ThumbnailURL:    "https://media.nazca360.pe/test/flight.jpg",
				DurationSeconds: 300,
				Published:       true,
			},
			wantErr: nil,
		},
		{
			name: "premium palpa entry without thumbnail",
			video: &models.Video{
				Title:           "Palpa de prueba",
				Category:        models.CategoryPalpa,
				VideoURL:        "https://media.nazca360.pe/test/palpa.mp4",
				DurationSeconds: 600,
				IsPremium:       true,
				Published:       true,
			},
			wantErr: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.CreateVideo(ctx, tt.video)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateVideo() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr == nil {
				if tt.video.ID == uuid.Nil {
					t.Error("CreateVideo() did not set ID")
				}
				if tt.video.CreatedAt.IsZero() {
					t.Error("CreateVideo() did not set CreatedAt")
				}
			}
		})
	}
}

func TestGetVideo(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	video := &models.Video{
		Title:           "El Astronauta",
		Description:     "Vista cercana del geoglifo.",
		Category:        models.CategoryNasca,
		VideoURL:        "https://media.nazca360.pe/test/astronauta.mp4",
		DurationSeconds: 420,
		IsPremium:       true,
		Published:       true,
	}
	if err := db.CreateVideo(ctx, video); err != nil {
		t.Fatalf("Failed to create video: %v", err)
	}

	t.Run("existing video", func(t *testing.T) {
		got, err := db.GetVideo(ctx, video.ID)
		if err != nil {
			t.Fatalf("GetVideo() error = %v", err)
		}
		if got.Title != video.Title {
			t.Errorf("GetVideo() title = %v, want %v", got.Title, video.Title)
		}
		if got.Category != video.Category {
			t.Errorf("GetVideo() category = %v, want %v", got.Category, video.Category)
		}
		if !got.IsPremium {
			t.Error("GetVideo() is_premium = false, want true")
		}
		if got.ThumbnailURL != "" {
			t.Errorf("GetVideo() thumbnail_url = %v, want empty", got.ThumbnailURL)
		}
	})

	t.Run("missing video", func(t *testing.T) {
		_, err := db.GetVideo(ctx, uuid.New())
		if !errors.Is(err, ErrVideoNotFound) {
			t.Errorf("GetVideo() error = %v, want %v", err, ErrVideoNotFound)
		}
	})
}

func TestListVideos(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	entries := []*models.Video{
		{Title: "Nasca 1", Category: models.CategoryNasca, VideoURL: "https://media.nazca360.pe/t/n1.mp4", Published: true},
		{Title: "Nasca 2", Category: models.CategoryNasca, VideoURL: "https://media.nazca360.pe/t/n2.mp4", Published: true},
		{Title: "Palpa 1", Category: models.CategoryPalpa, VideoURL: "https://media.nazca360.pe/t/p1.mp4", Published: true},
		{Title: "Draft", Category: models.CategoryMuseum, VideoURL: "https://media.nazca360.pe/t/d1.mp4", Published: false},
	}
	for _, v := range entries {
		if err := db.CreateVideo(ctx, v); err != nil {
			t.Fatalf("Failed to create video %q: %v", v.Title, err)
		}
	}

	tests := []struct {
		name               string
		category           string
		includeUnpublished bool
		wantCount          int
	}{
		{name: "published only", category: "", includeUnpublished: false, wantCount: 3},
		{name: "with drafts", category: "", includeUnpublished: true, wantCount: 4},
		{name: "nasca only", category: models.CategoryNasca, includeUnpublished: false, wantCount: 2},
		{name: "museum drafts", category: models.CategoryMuseum, includeUnpublished: true, wantCount: 1},
		{name: "museum published", category: models.CategoryMuseum, includeUnpublished: false, wantCount: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			videos, err := db.ListVideos(ctx, tt.category, tt.includeUnpublished)
			if err != nil {
				t.Fatalf("ListVideos() error = %v", err)
			}
			if len(videos) != tt.wantCount {
				t.Errorf("ListVideos(%q, %v) returned %d videos, want %d",
					tt.category, tt.includeUnpublished, len(videos), tt.wantCount)
			}
		})
	}
}

func TestUpdateVideo(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	video := &models.Video{
		Title:     "Original",
		Category:  models.CategoryMuseum,
		VideoURL:  "https://media.nazca360.pe/t/orig.mp4",
		Published: false,
	}
	if err := db.CreateVideo(ctx, video); err != nil {
		t.Fatalf("Failed to create video: %v", err)
	}

	video.Title = "Renamed"
	video.IsPremium = true
	video.Published = true
	if err := db.UpdateVideo(ctx, video); err != nil {
		t.Fatalf("UpdateVideo() error = %v", err)
	}

	got, err := db.GetVideo(ctx, video.ID)
	if err != nil {
		t.Fatalf("GetVideo() error = %v", err)
	}
	if got.Title != "Renamed" {
		t.Errorf("title = %v, want Renamed", got.Title)
	}
	if !got.IsPremium || !got.Published {
		t.Errorf("flags = (premium=%v, published=%v), want both true", got.IsPremium, got.Published)
	}

	missing := &models.Video{ID: uuid.New(), Title: "Ghost", Category: models.CategoryNasca, VideoURL: "https://x/y.mp4"}
	if err := db.UpdateVideo(ctx, missing); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("UpdateVideo() for missing id error = %v, want %v", err, ErrVideoNotFound)
	}
}

func TestDeleteVideo(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	video := &models.Video{
		Title:     "Short lived",
		Category:  models.CategoryNasca,
		VideoURL:  "https://media.nazca360.pe/t/tmp.mp4",
		Published: true,
	}
	if err := db.CreateVideo(ctx, video); err != nil {
		t.Fatalf("Failed to create video: %v", err)
	}

	if err := db.DeleteVideo(ctx, video.ID); err != nil {
		t.Fatalf("DeleteVideo() error = %v", err)
	}

	if _, err := db.GetVideo(ctx, video.ID); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("GetVideo() after delete error = %v, want %v", err, ErrVideoNotFound)
	}

	if err := db.DeleteVideo(ctx, video.ID); !errors.Is(err, ErrVideoNotFound) {
		t.Errorf("DeleteVideo() repeated error = %v, want %v", err, ErrVideoNotFound)
	}
}

func TestSeedCatalog(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()

	if err := db.SeedCatalog(ctx); err != nil {
		t.Fatalf("SeedCatalog() error = %v", err)
	}

	count, err := db.CountVideos(ctx)
	if err != nil {
		t.Fatalf("CountVideos() error = %v", err)
	}
	if count != 5 {
		t.Errorf("CountVideos() after seed = %d, want 5", count)
	}

	// Seeding is guarded by the catalog count; a second call must not duplicate.
	if err := db.SeedCatalog(ctx); err != nil {
		t.Fatalf("SeedCatalog() second call error = %v", err)
	}

	count, err = db.CountVideos(ctx)
	if err != nil {
		t.Fatalf("CountVideos() error = %v", err)
	}
	if count != 5 {
		t.Errorf("CountVideos() after repeated seed = %d, want 5", count)
	}

	// The seed mixes free and premium entries across categories.
	premium := 0
	videos, err := db.ListVideos(ctx, "", false)
	if err != nil {
		t.Fatalf("ListVideos() error = %v", err)
	}
	for _, v := range videos {
		if v.IsPremium {
			premium++
		}
		if !models.IsValidCategory(v.Category) {
			t.Errorf("seeded video %q has invalid category %q", v.Title, v.Category)
		}
	}
	if premium == 0 || premium == len(videos) {
		t.Errorf("seed premium mix = %d of %d, want a mix of free and premium", premium, len(videos))
	}
}
