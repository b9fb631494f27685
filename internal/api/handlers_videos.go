// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package api

import (
	"errors"
	"net/http"

	"github.com/nazca360/nazca360/internal/database"
	"github.com/nazca360/nazca360/internal/models"
)

// ListVideos handles GET /videos. The published catalog is cached; the
// premium filter is applied after the cache so every plan shares one
// entry per category.
//
//	@Summary	List published videos
//	@Tags		videos
//	@Param		category	query		string	false	"nasca, palpa or museum"
//	@Success	200			{object}	models.APIResponse{data=[]models.Video}
//	@Router		/api/v1/videos [get]
func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && !models.IsValidCategory(category) {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown category", nil)
		return
	}

	videos, cached, err := h.publishedVideos(r, category)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load catalog", err)
		return
	}

	plan := GetHandlerContext(r).Plan(h.db.GetUserByID)
	visible := make([]models.Video, 0, len(videos))
	for _, v := range videos {
		if v.ViewableBy(plan) {
			visible = append(visible, v)
		}
	}

	respondCached(w, http.StatusOK, visible, cached)
}

// GetVideo handles GET /videos/{id}.
//
//	@Summary	Fetch a single video
//	@Tags		videos
//	@Param		id	path		string	true	"video id"
//	@Success	200	{object}	models.APIResponse{data=models.Video}
//	@Failure	403	{object}	models.APIResponse
//	@Failure	404	{object}	models.APIResponse
//	@Router		/api/v1/videos/{id} [get]
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid video id", nil)
		return
	}

	video, err := h.db.GetVideo(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrVideoNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Video not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load video", err)
		return
	}

	hctx := GetHandlerContext(r)
	if !video.Published && !hctx.IsStaff() {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Video not found", nil)
		return
	}
	if !video.ViewableBy(hctx.Plan(h.db.GetUserByID)) {
		respondError(w, http.StatusForbidden, "PREMIUM_REQUIRED", "This experience requires a premium subscription", nil)
		return
	}

	respondData(w, http.StatusOK, video)
}

// publishedVideos returns the published catalog for a category, serving
// from the catalog cache when warm.
func (h *Handler) publishedVideos(r *http.Request, category string) ([]models.Video, bool, error) {
	key := "published:" + category
	if entry, ok := h.catalog.Get(key); ok {
		if videos, ok := entry.([]models.Video); ok {
			return videos, true, nil
		}
	}

	videos, err := h.db.ListVideos(r.Context(), category, false)
	if err != nil {
		return nil, false, err
	}
	h.catalog.Set(key, videos)
	return videos, false, nil
}

// invalidateCatalog clears all cached catalog listings after an admin
// video mutation.
func (h *Handler) invalidateCatalog() {
	h.catalog.Clear()
}
