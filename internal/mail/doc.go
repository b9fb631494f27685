// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

// Package mail sends transactional email: account verification, password
// resets, payment receipts, and reservation confirmations with an embedded
// entry QR code.
//
// Delivery goes through the Sender interface. SMTPSender delivers via
// go-mail; when mail is disabled in configuration, NewSender returns a
// LogSender that logs each message instead, so callers never branch on
// whether delivery is configured.
//
// All templates render Spanish HTML inside a shared branding layout, with
// a plain-text alternative part.
package mail
