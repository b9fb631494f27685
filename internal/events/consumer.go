// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package events

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/mail"
	"github.com/nazca360/nazca360/internal/models"
)

// EventHandler processes one deserialized domain event. Returning an
// error nacks the message for redelivery.
type EventHandler func(ctx context.Context, event *Event) error

// NotificationConsumer turns domain events into transactional email.
// Payloads carry recipient details, so handling never touches the
// database; the consumer is a pure event-to-mail bridge.
type NotificationConsumer struct {
	sender      mail.Sender
	frontendURL string
}

// NewNotificationConsumer creates the consumer. frontendURL is the public
// site root used to build links in outbound mail.
func NewNotificationConsumer(sender mail.Sender, frontendURL string) *NotificationConsumer {
	return &NotificationConsumer{
		sender:      sender,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// Handle dispatches one event to its mail template. Unknown event types
// are logged and acked: a consumer running an older schema must not
// poison the stream.
func (c *NotificationConsumer) Handle(ctx context.Context, event *Event) error {
	switch event.Type {
	case TypeUserRegistered:
		return c.handleUserRegistered(ctx, event)
	case TypePaymentCompleted:
		return c.handlePaymentCompleted(ctx, event)
	case TypeReservationConfirmed:
		return c.handleReservationConfirmed(ctx, event)
	case TypeReservationExpired:
		return c.handleReservationExpired(ctx, event)
	default:
		logging.CtxWarn(ctx).
			Str("component", "events").
			Str("event_id", event.EventID).
			Str("type", event.Type).
			Msg("Unknown event type, skipping")
		return nil
	}
}

func (c *NotificationConsumer) handleUserRegistered(ctx context.Context, event *Event) error {
	var p UserRegisteredPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", event.Type, err)
	}

	var msg *mail.Message
	var err error
	if p.VerifyURL != "" {
		msg, err = mail.NewVerificationMessage(p.Email, p.Name, p.VerifyURL, p.VerifyTTL)
	} else {
		msg, err = mail.NewWelcomeMessage(p.Email, p.Name, c.frontendURL)
	}
	if err != nil {
		return err
	}
	return c.sender.Send(ctx, msg)
}

func (c *NotificationConsumer) handlePaymentCompleted(ctx context.Context, event *Event) error {
	var p PaymentCompletedPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", event.Type, err)
	}

	// Reservation payments get their receipt through the reservation
	// confirmation mail, which carries the QR code.
	if p.Purpose != models.PurposeSubscription {
		return nil
	}

	msg, err := mail.NewSubscriptionReceiptMessage(p.Email, p.Name, p.PlanType, FormatAmount(p.AmountCents, p.Currency), p.ExpiresAt)
	if err != nil {
		return err
	}
	return c.sender.Send(ctx, msg)
}

func (c *NotificationConsumer) handleReservationConfirmed(ctx context.Context, event *Event) error {
	var p ReservationConfirmedPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", event.Type, err)
	}

	msg, err := mail.NewReservationQRMessage(p.Email, p.Name, p.QRCode, p.Date, p.StartTime, p.EndTime, p.Cabin)
	if err != nil {
		return err
	}
	return c.sender.Send(ctx, msg)
}

func (c *NotificationConsumer) handleReservationExpired(ctx context.Context, event *Event) error {
	var p ReservationExpiredPayload
	if err := json.Unmarshal(event.Payload, &p); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", event.Type, err)
	}

	msg, err := mail.NewReservationExpiredMessage(p.Email, p.Name, p.Date, p.StartTime, c.frontendURL+"/reservas")
	if err != nil {
		return err
	}
	return c.sender.Send(ctx, msg)
}

// FormatAmount renders a minor-unit amount for display, e.g. 4990 PEN
// becomes "49.90 PEN".
func FormatAmount(cents int64, currency string) string {
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, strings.ToUpper(currency))
}
