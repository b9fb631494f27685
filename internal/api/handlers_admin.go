// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package api

import (
	"errors"
	"net/http"

	"github.com/nazca360/nazca360/internal/authz"
	"github.com/nazca360/nazca360/internal/database"
	"github.com/nazca360/nazca360/internal/models"
)

const adminPageLimit = 50

// AdminListUsers handles GET /admin/users.
//
//	@Summary	List user accounts
//	@Tags		admin
//	@Param		limit	query		int	false	"page size"
//	@Param		offset	query		int	false	"page offset"
//	@Success	200		{object}	models.APIResponse
//	@Router		/api/v1/admin/users [get]
func (h *Handler) AdminListUsers(w http.ResponseWriter, r *http.Request) {
	hctx := GetHandlerContextWithAuthz(r, h.authz)
	if err := hctx.RequireAdmin(); err != nil {
		RespondAuthError(w, err)
		return
	}

	limit, offset := pageParams(r, adminPageLimit, 200)

	users, err := h.db.ListUsers(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list users", err)
		return
	}
	total, err := h.db.CountUsers(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to count users", err)
		return
	}

	public := make([]models.PublicUser, 0, len(users))
	for i := range users {
		public = append(public, users[i].ToPublic())
	}

	respondData(w, http.StatusOK, map[string]any{
		"users":  public,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// AdminUpdateUserRole handles PUT /admin/users/{id}/role. Role changes go
// through the authorization service so the role cache and casbin policy
// stay consistent; the mutation is audited.
func (h *Handler) AdminUpdateUserRole(w http.ResponseWriter, r *http.Request) {
	hctx := GetHandlerContextWithAuthz(r, h.authz)
	if err := hctx.RequireAdmin(); err != nil {
		RespondAuthError(w, err)
		return
	}

	targetID, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid user id", nil)
		return
	}

	var req models.UpdateRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	target, err := h.db.GetUserByID(r.Context(), targetID)
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
		return
	}
	oldRole := target.Role

	if err := h.authz.ChangeRole(r.Context(), hctx.Subject, targetID, req.Role); err != nil {
		switch {
		case errors.Is(err, authz.ErrSelfRoleChange):
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Admins cannot change their own role", nil)
		case errors.Is(err, authz.ErrInvalidRole):
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown role", nil)
		case errors.Is(err, database.ErrUserNotFound):
			respondError(w, http.StatusNotFound, "NOT_FOUND", "User not found", nil)
		case errors.Is(err, authz.ErrAdminRequired), errors.Is(err, authz.ErrNilSubject):
			RespondAuthError(w, err)
		default:
			respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to change role", err)
		}
		return
	}

	h.auditor.RoleAssigned(r.Context(), hctx.Actor(r), targetID.String(), oldRole, req.Role)

	target.Role = req.Role
	respondData(w, http.StatusOK, target.ToPublic())
}

// AdminListSubscriptions handles GET /admin/subscriptions.
func (h *Handler) AdminListSubscriptions(w http.ResponseWriter, r *http.Request) {
	hctx := GetHandlerContextWithAuthz(r, h.authz)
	if err := hctx.RequireAdmin(); err != nil {
		RespondAuthError(w, err)
		return
	}

	limit, offset := pageParams(r, adminPageLimit, 200)

	subs, err := h.db.ListSubscriptions(r.Context(), limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list subscriptions", err)
		return
	}
	total, err := h.db.CountSubscriptions(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to count subscriptions", err)
		return
	}

	respondData(w, http.StatusOK, map[string]any{
		"subscriptions": subs,
		"total":         total,
		"limit":         limit,
		"offset":        offset,
	})
}

// AdminListReservations handles GET /admin/reservations with optional
// ?date= and ?status= filters.
func (h *Handler) AdminListReservations(w http.ResponseWriter, r *http.Request) {
	hctx := GetHandlerContextWithAuthz(r, h.authz)
	if err := hctx.RequireAdmin(); err != nil {
		RespondAuthError(w, err)
		return
	}

	date := r.URL.Query().Get("date")
	status := r.URL.Query().Get("status")
	if status != "" && !models.IsValidReservationStatus(status) {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown reservation status", nil)
		return
	}

	limit, offset := pageParams(r, adminPageLimit, 200)

	reservations, err := h.db.ListReservations(r.Context(), date, status, limit, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list reservations", err)
		return
	}
	total, err := h.db.CountReservations(r.Context(), date, status)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to count reservations", err)
		return
	}

	respondData(w, http.StatusOK, map[string]any{
		"reservations": reservations,
		"total":        total,
		"limit":        limit,
		"offset":       offset,
	})
}

// AdminMetrics handles GET /admin/metrics.
//
//	@Summary	Back-office aggregates
//	@Tags		admin
//	@Success	200	{object}	models.APIResponse{data=models.AdminMetrics}
//	@Router		/api/v1/admin/metrics [get]
func (h *Handler) AdminMetrics(w http.ResponseWriter, r *http.Request) {
	hctx := GetHandlerContextWithAuthz(r, h.authz)
	if err := hctx.RequireAdmin(); err != nil {
		RespondAuthError(w, err)
		return
	}

	stats, err := h.db.GetAdminMetrics(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to compute metrics", err)
		return
	}

	respondData(w, http.StatusOK, stats)
}

// AdminCreateVideo handles POST /admin/videos.
func (h *Handler) AdminCreateVideo(w http.ResponseWriter, r *http.Request) {
	hctx := GetHandlerContextWithAuthz(r, h.authz)
	if err := hctx.RequireAdmin(); err != nil {
		RespondAuthError(w, err)
		return
	}

	var req models.VideoCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	video := &models.Video{
		Title:           req.Title,
		Description:     req.Description,
		Category:        req.Category,
		VideoURL:        req.VideoURL,
		ThumbnailURL:    req.ThumbnailURL,
		DurationSeconds: req.DurationSeconds,
		IsPremium:       req.IsPremium,
		Published:       req.Published,
	}
	if err := h.db.CreateVideo(r.Context(), video); err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create video", err)
		return
	}

	h.auditor.VideoCreated(r.Context(), hctx.Actor(r), video.ID.String(), video.Title)
	h.invalidateCatalog()

	respondData(w, http.StatusCreated, video)
}

// AdminUpdateVideo handles PUT /admin/videos/{id}. Only the fields present
// in the request change.
func (h *Handler) AdminUpdateVideo(w http.ResponseWriter, r *http.Request) {
	hctx := GetHandlerContextWithAuthz(r, h.authz)
	if err := hctx.RequireAdmin(); err != nil {
		RespondAuthError(w, err)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid video id", nil)
		return
	}

	var req models.VideoUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", err)
		return
	}
	if apiErr := validateRequest(&req); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
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

	applyVideoUpdate(video, &req)

	if err := h.db.UpdateVideo(r.Context(), video); err != nil {
		if errors.Is(err, database.ErrVideoNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "Video not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update video", err)
		return
	}

	h.auditor.VideoUpdated(r.Context(), hctx.Actor(r), video.ID.String(), video.Title)
	h.invalidateCatalog()

	respondData(w, http.StatusOK, video)
}

// AdminDeleteVideo handles DELETE /admin/videos/{id}.
func (h *Handler) AdminDeleteVideo(w http.ResponseWriter, r *http.Request) {
	hctx := GetHandlerContextWithAuthz(r, h.authz)
	if err := hctx.RequireAdmin(); err != nil {
		RespondAuthError(w, err)
		return
	}

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

	if err := h.db.DeleteVideo(r.Context(), id); err != nil {
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete video", err)
		return
	}

	h.auditor.VideoDeleted(r.Context(), hctx.Actor(r), video.ID.String(), video.Title)
	h.invalidateCatalog()

	respondMessage(w, http.StatusOK, "Video deleted")
}

func applyVideoUpdate(video *models.Video, req *models.VideoUpdateRequest) {
	if req.Title != nil {
		video.Title = *req.Title
	}
	if req.Description != nil {
		video.Description = *req.Description
	}
	if req.Category != nil {
		video.Category = *req.Category
	}
	if req.VideoURL != nil {
		video.VideoURL = *req.VideoURL
	}
	if req.ThumbnailURL != nil {
		video.ThumbnailURL = *req.ThumbnailURL
	}
	if req.DurationSeconds != nil {
		video.DurationSeconds = *req.DurationSeconds
	}
	if req.IsPremium != nil {
		video.IsPremium = *req.IsPremium
	}
	if req.Published != nil {
		video.Published = *req.Published
	}
}
