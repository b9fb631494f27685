// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package database

import (
	"context"
	"fmt"

	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/models"
)

// SeedCatalog inserts the sample 360° catalog on first startup. Seeding only
// happens when the videos table is empty, so admin edits and deletions are
// never overwritten on restart.
func (db *DB) SeedCatalog(ctx context.Context) error {
	count, err := db.CountVideos(ctx)
	if err != nil {
		return fmt.Errorf("failed to check catalog before seeding: %w", err)
	}
	if count > 0 {
		logging.Debug().Int("videos", count).Msg("Catalog already populated, skipping seed")
		return nil
	}

	entries := []models.Video{
		{
			Title:           "Sobrevuelo de las Líneas de Nasca",
			Description:     "Vuelo panorámico en 360° sobre el Colibrí, la Araña y el Astronauta, con narración sobre la cultura Nasca.",
			Category:        models.CategoryNasca,
			VideoURL:        "https://media.nazca360.pe/catalog/sobrevuelo-lineas-nasca.mp4",
			ThumbnailURL:    "https://media.nazca360.pe/catalog/thumbs/sobrevuelo-lineas-nasca.jpg",
			DurationSeconds: 540,
			IsPremium:       false,
			Published:       true,
		},
		{
			Title:           "El Colibrí al Atardecer",
			Description:     "Experiencia inmersiva sobre el geoglifo del Colibrí durante la hora dorada, grabada desde avioneta.",
			Category:        models.CategoryNasca,
			VideoURL:        "https://media.nazca360.pe/catalog/colibri-atardecer.mp4",
			ThumbnailURL:    "https://media.nazca360.pe/catalog/thumbs/colibri-atardecer.jpg",
			DurationSeconds: 720,
			IsPremium:       true,
			Published:       true,
		},
		{
			Title:           "Geoglifos de Palpa al Amanecer",
			Description:     "Recorrido aéreo en 360° sobre la Familia Real y los geoglifos de laderas de Palpa, anteriores a las líneas de Nasca.",
			Category:        models.CategoryPalpa,
			VideoURL:        "https://media.nazca360.pe/catalog/palpa-amanecer.mp4",
			ThumbnailURL:    "https://media.nazca360.pe/catalog/thumbs/palpa-amanecer.jpg",
			DurationSeconds: 660,
			IsPremium:       true,
			Published:       true,
		},
		{
			Title:           "El Reloj Solar de Palpa",
			Description:     "Visita inmersiva al complejo del Reloj Solar con reconstrucción de su posible uso astronómico.",
			Category:        models.CategoryPalpa,
			VideoURL:        "https://media.nazca360.pe/catalog/reloj-solar-palpa.mp4",
			ThumbnailURL:    "https://media.nazca360.pe/catalog/thumbs/reloj-solar-palpa.jpg",
			DurationSeconds: 480,
			IsPremium:       false,
			Published:       true,
		},
		{
			Title:           "Museo Didáctico Antonini: Recorrido Virtual",
			Description:     "Paseo en 360° por las salas del museo y el acueducto de Bisambra, con piezas de la cultura Nasca.",
			Category:        models.CategoryMuseum,
			VideoURL:        "https://media.nazca360.pe/catalog/museo-antonini.mp4",
			ThumbnailURL:    "https://media.nazca360.pe/catalog/thumbs/museo-antonini.jpg",
			DurationSeconds: 900,
			IsPremium:       false,
			Published:       true,
		},
	}

	for i := range entries {
		if err := db.CreateVideo(ctx, &entries[i]); err != nil {
			return fmt.Errorf("failed to seed catalog entry %q: %w", entries[i].Title, err)
		}
	}

	logging.Info().Int("videos", len(entries)).Msg("Seeded sample 360° catalog")
	return nil
}
