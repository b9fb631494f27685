// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/nazca360/nazca360/internal/models"
)

// Video errors
var ErrVideoNotFound = errors.New("video not found")

// CreateVideo inserts a catalog entry.
func (db *DB) CreateVideo(ctx context.Context, video *models.Video) error {
	if video.ID == uuid.Nil {
		video.ID = uuid.New()
	}
	if video.CreatedAt.IsZero() {
		video.CreatedAt = time.Now().UTC()
	}
	video.UpdatedAt = video.CreatedAt

	query := `INSERT INTO videos (
		id, title, description, category, video_url, thumbnail_url,
		duration_seconds, is_premium, published, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := db.conn.ExecContext(ctx, query,
		video.ID, video.Title, nullString(video.Description), video.Category, video.VideoURL, nullString(video.ThumbnailURL),
		video.DurationSeconds, video.IsPremium, video.Published, video.CreatedAt, video.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}

	return nil
}

// GetVideo retrieves a catalog entry by ID.
func (db *DB) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	query := videoSelectColumns + ` FROM videos WHERE id = ?`

	row := db.conn.QueryRowContext(ctx, query, id)
	return scanVideoRow(row.Scan)
}

// ListVideos retrieves catalog entries, optionally filtered by category.
// Public listings pass includeUnpublished=false; the admin catalog view
// passes true to see drafts.
func (db *DB) ListVideos(ctx context.Context, category string, includeUnpublished bool) ([]models.Video, error) {
	query := videoSelectColumns + ` FROM videos WHERE 1=1`

	args := []any{}
	if category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	if !includeUnpublished {
		query += " AND published = TRUE"
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	videos := make([]models.Video, 0)
	for rows.Next() {
		video, err := scanVideoRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, *video)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating videos: %w", err)
	}

	return videos, nil
}

// UpdateVideo replaces the mutable fields of a catalog entry.
func (db *DB) UpdateVideo(ctx context.Context, video *models.Video) error {
	video.UpdatedAt = time.Now().UTC()

	query := `UPDATE videos SET
		title = ?, description = ?, category = ?, video_url = ?, thumbnail_url = ?,
		duration_seconds = ?, is_premium = ?, published = ?, updated_at = ?
	WHERE id = ?`

	result, err := db.conn.ExecContext(ctx, query,
		video.Title, nullString(video.Description), video.Category, video.VideoURL, nullString(video.ThumbnailURL),
		video.DurationSeconds, video.IsPremium, video.Published, video.UpdatedAt,
		video.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update video: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrVideoNotFound
	}

	return nil
}

// DeleteVideo removes a catalog entry.
func (db *DB) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	result, err := db.conn.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrVideoNotFound
	}

	return nil
}

// CountVideos returns the total number of catalog entries.
func (db *DB) CountVideos(ctx context.Context) (int, error) {
	var count int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM videos`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count videos: %w", err)
	}
	return count, nil
}

// videoSelectColumns is the shared column list for video scans.
const videoSelectColumns = `SELECT
	id, title, description, category, video_url, thumbnail_url,
	duration_seconds, is_premium, published, created_at, updated_at`

func scanVideoRow(scan func(dest ...any) error) (*models.Video, error) {
	var video models.Video
	var description, thumbnailURL sql.NullString

	err := scan(
		&video.ID, &video.Title, &description, &video.Category, &video.VideoURL, &thumbnailURL,
		&video.DurationSeconds, &video.IsPremium, &video.Published, &video.CreatedAt, &video.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVideoNotFound
		}
		return nil, fmt.Errorf("failed to scan video: %w", err)
	}

	if description.Valid {
		video.Description = description.String
	}
	if thumbnailURL.Valid {
		video.ThumbnailURL = thumbnailURL.String
	}

	return &video, nil
}
