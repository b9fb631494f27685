// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

// Package booking schedules the site's VR cabins.
//
// # Model
//
// The bookable day is a fixed grid: slots of equal length from opening to
// closing time in the site timezone, across a small number of physical
// cabins. A slot is the triple (cabin, date, start_time). Reservations
// move through a strict lifecycle:
//
//	pending_payment -> confirmed -> completed
//	       |              |------> cancelled
//	       |              '------> no_show
//	       |-----> cancelled
//	       '-----> expired   (hold lapsed unpaid)
//
// A pending_payment reservation holds its slot only until its hold
// expires; the supervised hold sweeper releases lapsed holds and the
// availability grid treats them as free. When payments are disabled in
// configuration, Reserve confirms immediately and issues the entry QR
// code without checkout.
//
// Confirmation is driven by payment finalization and is idempotent:
// repeated webhook deliveries converge on one confirmed reservation.
package booking
