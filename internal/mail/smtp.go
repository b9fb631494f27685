// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package mail

import (
	"bytes"
	"context"
	"fmt"
	"time"

	gomail "github.com/wneessen/go-mail"

	"github.com/nazca360/nazca360/internal/config"
	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/metrics"
)

// smtpTimeout bounds each SMTP dial-and-send round trip.
const smtpTimeout = 30 * time.Second

// SMTPSender delivers mail through an SMTP relay using go-mail. A fresh
// connection is dialed per message; transactional volume here is low
// enough that connection reuse is not worth the session management.
type SMTPSender struct {
	cfg config.EmailConfig
}

// NewSMTPSender validates the SMTP configuration and creates a sender.
func NewSMTPSender(cfg config.EmailConfig) (*SMTPSender, error) {
	if cfg.SMTPHost == "" {
		return nil, fmt.Errorf("SMTP host is required")
	}
	if cfg.SMTPPort <= 0 || cfg.SMTPPort > 65535 {
		return nil, fmt.Errorf("invalid SMTP port: %d", cfg.SMTPPort)
	}
	if cfg.FromAddress == "" {
		return nil, fmt.Errorf("from address is required")
	}
	return &SMTPSender{cfg: cfg}, nil
}

// Send delivers one message. The context bounds the full SMTP exchange.
func (s *SMTPSender) Send(ctx context.Context, msg *Message) error {
	if msg == nil {
		return fmt.Errorf("message is nil")
	}

	err := s.send(ctx, msg)
	metrics.RecordEmailSent(msg.Template, err)
	if err != nil {
		logging.CtxErr(ctx, err).
			Str("component", "mail").
			Str("to", msg.To).
			Str("template", msg.Template).
			Msg("Failed to send mail")
		return fmt.Errorf("failed to send mail: %w", err)
	}

	logging.CtxInfo(ctx).
		Str("component", "mail").
		Str("to", msg.To).
		Str("template", msg.Template).
		Msg("Mail sent")
	return nil
}

func (s *SMTPSender) send(ctx context.Context, msg *Message) error {
	m := gomail.NewMsg()
	if err := m.FromFormat(s.cfg.FromName, s.cfg.FromAddress); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if msg.ToName != "" {
		if err := m.AddToFormat(msg.ToName, msg.To); err != nil {
			return fmt.Errorf("invalid recipient address: %w", err)
		}
	} else {
		if err := m.AddTo(msg.To); err != nil {
			return fmt.Errorf("invalid recipient address: %w", err)
		}
	}
	m.Subject(msg.Subject)

	if msg.Text != "" {
		m.SetBodyString(gomail.TypeTextPlain, msg.Text)
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	} else {
		m.SetBodyString(gomail.TypeTextHTML, msg.HTML)
	}

	for _, att := range msg.Inline {
		m.EmbedReader(att.Filename, bytes.NewReader(att.Data),
			gomail.WithFileContentType(gomail.ContentType(att.ContentType)))
	}

	opts := []gomail.Option{
		gomail.WithPort(s.cfg.SMTPPort),
		gomail.WithTimeout(smtpTimeout),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if s.cfg.SMTPUsername != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(s.cfg.SMTPUsername),
			gomail.WithPassword(s.cfg.SMTPPassword),
		)
	}

	client, err := gomail.NewClient(s.cfg.SMTPHost, opts...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("SMTP delivery failed: %w", err)
	}
	return nil
}
