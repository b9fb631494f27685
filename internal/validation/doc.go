// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

// Package validation provides request validation using go-playground/validator v10.
//
// # Overview
//
// This package wraps go-playground/validator with:
//   - A thread-safe singleton validator instance
//   - Translation of field failures into human-readable messages
//   - Conversion to the VALIDATION_ERROR shape the API returns
//
// All request DTOs in the API layer declare `validate` struct tags and
// pass through ValidateStruct before any handler logic runs. A failed
// validation never reaches the service layer.
//
// # Quick Start
//
// Validate a request struct:
//
//	type CreateReservationRequest struct {
//	    CabinID   int    `json:"cabin_id" validate:"required,gte=1,lte=3"`
//	    Date      string `json:"date" validate:"required,datetime=2006-01-02"`
//	    StartTime string `json:"start_time" validate:"required,datetime=15:04"`
//	    VideoID   string `json:"video_id" validate:"omitempty,uuid"`
//	}
//
//	func (h *Handler) createReservation(w http.ResponseWriter, r *http.Request) {
//	    var req CreateReservationRequest
//	    if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
//	        respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", nil)
//	        return
//	    }
//	    if verr := validation.ValidateStruct(&req); verr != nil {
//	        apiErr := verr.ToAPIError()
//	        respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
//	        return
//	    }
//	    // req is valid past this point
//	}
//
// # Common Validation Tags
//
// Tags used across the request DTOs:
//
//	required                    - field must be present and non-zero
//	email                       - valid email address (registration, login)
//	min=8,max=72                - password length window (bcrypt limit)
//	oneof=stripe paypal         - payment provider enum
//	oneof=premium               - checkout plan enum
//	datetime=2006-01-02         - calendar date (reservations, availability)
//	datetime=15:04              - slot start time, 24h clock
//	gte=1,lte=3                 - cabin number range
//	uuid                        - video, payment, and reservation identifiers
//	url                         - checkout origin URL for provider redirects
//	omitempty                   - skip remaining tags when the field is zero
//
// # Error Types
//
// ValidationError represents a single field failure with structured
// accessors (Field, Tag, Param, Value) and a translated message.
//
// RequestValidationError collects all field failures from one struct.
// Its Error method joins the individual messages with "; " so the whole
// failure reads as one line in logs.
//
// # API Error Integration
//
// ToAPIError converts a RequestValidationError into the envelope shape
// handlers return. A single failure produces:
//
//	{
//	    "code": "VALIDATION_ERROR",
//	    "message": "Email must be a valid email address",
//	    "details": {"field": "Email", "tag": "email", "value": "not-an-email"}
//	}
//
// Multiple failures produce a joined message plus a details.fields list,
// one entry per failing field, so clients can highlight each input.
//
// # Error Message Translation
//
// translateError maps validator tags to sentences:
//
//	required  -> "Date is required"
//	email     -> "Email must be a valid email address"
//	oneof     -> "Provider must be one of: stripe paypal"
//	datetime  -> "Date must be a valid date/time in 2006-01-02 format"
//	min (str) -> "Password must be at least 8 characters"
//	gte       -> "CabinID must be greater than or equal to 1"
//
// Unknown tags fall back to "<Field> failed <tag> validation".
//
// # Thread Safety
//
// GetValidator initializes the validator exactly once via sync.Once and
// the returned instance is safe for concurrent use. ValidateStruct may
// be called from any number of goroutines.
//
// # Performance
//
// go-playground/validator caches struct metadata after the first
// validation of each type, so per-request overhead is a map lookup plus
// the tag checks themselves. No reflection re-parsing occurs on the hot
// path.
//
// # See Also
//
//   - internal/models: APIError definition this package mirrors
//   - internal/api: request DTOs carrying the validate tags
package validation
