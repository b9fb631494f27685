// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
Package ws pushes live reservation availability to connected browsers.

The Hub fans availability_changed and reservation_status messages out
to every client on the /ws/availability socket. The booking and payment
services write through the booking.Broadcaster interface; the hub is
the only implementation. Delivery is best-effort: a stalled client is
dropped rather than allowed to block the fan-out, and clients refetch
the availability grid on reconnect.

The hub runs under the supervisor; cancelling its context closes every
client and returns.
*/
package ws
