// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

//go:build integration

package mail_test

import (
	"context"
	"testing"
	"time"

	"github.com/nazca360/nazca360/internal/config"
	"github.com/nazca360/nazca360/internal/mail"
	"github.com/nazca360/nazca360/internal/testinfra"
)

// TestSMTPSenderDeliversToMailpit exercises the full SMTP path: template
// rendering, go-mail dial and send, and the message as received by a
// real SMTP server.
func TestSMTPSenderDeliversToMailpit(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mailpit, err := testinfra.NewMailpitContainer(ctx)
	if err != nil {
		t.Fatalf("start mailpit: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, mailpit)

	sender, err := mail.NewSMTPSender(config.EmailConfig{
		Enabled:     true,
		SMTPHost:    mailpit.SMTPHost,
		SMTPPort:    mailpit.SMTPPort,
		FromAddress: "reservas@nazca360.pe",
		FromName:    "Nazca360",
	})
	if err != nil {
		t.Fatalf("create SMTP sender: %v", err)
	}

	msg, err := mail.NewVerificationMessage(
		"maria@example.pe", "María Quispe",
		"https://nazca360.pe/verify?token=abc123", "24 horas",
	)
	if err != nil {
		t.Fatalf("render verification message: %v", err)
	}
	if err := sender.Send(ctx, msg); err != nil {
		t.Fatalf("send: %v", err)
	}

	messages, err := mailpit.WaitForMessages(ctx, 1, 15*time.Second)
	if err != nil {
		t.Fatalf("wait for captured message: %v", err)
	}

	got := messages[0]
	if len(got.To) != 1 || got.To[0].Address != "maria@example.pe" {
		t.Errorf("recipient = %+v, want maria@example.pe", got.To)
	}
	if got.From.Address != "reservas@nazca360.pe" {
		t.Errorf("sender = %q, want reservas@nazca360.pe", got.From.Address)
	}
	if got.Subject != msg.Subject {
		t.Errorf("subject = %q, want %q", got.Subject, msg.Subject)
	}
}

// TestSMTPSenderDeliversInlineQR sends the reservation confirmation with
// its embedded QR PNG and verifies the message arrives.
func TestSMTPSenderDeliversInlineQR(t *testing.T) {
	testinfra.SkipIfNoDocker(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mailpit, err := testinfra.NewMailpitContainer(ctx)
	if err != nil {
		t.Fatalf("start mailpit: %v", err)
	}
	defer testinfra.CleanupContainer(t, ctx, mailpit)

	sender, err := mail.NewSMTPSender(config.EmailConfig{
		Enabled:     true,
		SMTPHost:    mailpit.SMTPHost,
		SMTPPort:    mailpit.SMTPPort,
		FromAddress: "reservas@nazca360.pe",
		FromName:    "Nazca360",
	})
	if err != nil {
		t.Fatalf("create SMTP sender: %v", err)
	}

	msg, err := mail.NewReservationQRMessage(
		"jose@example.pe", "José Flores",
		"NZ360-RES-5f2a", "2026-09-12", "10:00", "10:20", 2,
	)
	if err != nil {
		t.Fatalf("render reservation message: %v", err)
	}
	if len(msg.Inline) == 0 {
		t.Fatal("reservation message has no inline QR attachment")
	}
	if err := sender.Send(ctx, msg); err != nil {
		t.Fatalf("send: %v", err)
	}

	if _, err := mailpit.WaitForMessages(ctx, 1, 15*time.Second); err != nil {
		t.Fatalf("wait for captured message: %v", err)
	}
}
