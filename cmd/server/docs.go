// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

// Package main provides the Nazca360 HTTP server
//
// Nazca360 is the backend for an immersive VR sightseeing center in
// Nasca, Peru: 360° video streaming, subscriptions, and cabin reservations.
//
// @title Nazca360 API
// @version 1.0
// @description Backend for the Nazca360 VR experience center in Nasca, Peru
// @description
// @description ## Features
// @description
// @description - **360° Video Catalog**: Streaming catalog with free and premium tiers
// @description - **Subscriptions**: Monthly and annual plans billed through Stripe or PayPal
// @description - **Cabin Reservations**: 20-minute VR cabin slots with payment-backed confirmation and QR check-in
// @description - **Live Availability**: WebSocket feed of free cabins per slot
// @description - **Google Sign-In**: OAuth login alongside local email accounts
// @description
// @description ## Authentication
// @description
// @description Most endpoints require JWT authentication via HTTP-only cookie.
// @description Use `/api/v1/auth/login` to obtain a token, which will be automatically included in subsequent requests.
// @description
// @description ## Rate Limiting
// @description
// @description Default rate limit: 100 requests per minute per IP address, with a
// @description stricter per-IP limit on the login and registration endpoints.
// @description
// @description ## Error Responses
// @description
// @description All error responses follow this format:
// @description ```json
// @description {
// @description   "status": "error",
// @description   "data": null,
// @description   "error": {
// @description     "code": "ERROR_CODE",
// @description     "message": "Mensaje legible para el visitante",
// @description     "details": {}
// @description   },
// @description   "metadata": {
// @description     "timestamp": "2026-08-29T12:34:56Z"
// @description   }
// @description }
// @description ```
//
// @contact.name GitHub Repository
// @contact.url https://github.com/nazca360/nazca360/issues
//
// @license.name AGPL-3.0-or-later
// @license.url https://www.gnu.org/licenses/agpl-3.0.html
//
// @host localhost:8360
// @BasePath /api/v1
// @schemes http https
//
// @securityDefinitions.apikey BearerAuth
// @in cookie
// @name token
// @description JWT token stored in HTTP-only cookie. Obtain via /api/v1/auth/login endpoint.
//
// @tag.name Auth
// @tag.description Registration, login (local, Google, session gateway), email verification, and password reset
//
// @tag.name Videos
// @tag.description The 360° video catalog with premium gating on playback URLs
//
// @tag.name Subscriptions
// @tag.description Subscription plans, checkout, and billing history
//
// @tag.name Reservations
// @tag.description Cabin availability, reservation lifecycle, and QR check-in codes
//
// @tag.name Webhooks
// @tag.description Signed payment provider callbacks (Stripe, PayPal)
//
// @tag.name Admin
// @tag.description Back-office operations: catalog management, reservation oversight, user roles, audit trail
//
// @tag.name Realtime
// @tag.description WebSocket feed of live cabin availability
package main
