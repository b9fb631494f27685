// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

package mail

import (
	"context"
	"fmt"

	"github.com/nazca360/nazca360/internal/config"
	"github.com/nazca360/nazca360/internal/logging"
	"github.com/nazca360/nazca360/internal/metrics"
)

// Message is one outbound transactional mail. Template identifies which
// transactional template produced it and is used as the metrics label.
type Message struct {
	To       string
	ToName   string
	Subject  string
	HTML     string
	Text     string
	Template string

	// Inline attachments referenced from the HTML body via cid: URLs.
	Inline []Attachment
}

// Attachment is an inline resource embedded in the message body.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Sender delivers transactional mail. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// NewSender returns the sender matching the configuration: an SMTP sender
// when mail is enabled, otherwise a LogSender that records each message
// without delivering it.
func NewSender(cfg config.EmailConfig) (Sender, error) {
	if !cfg.Enabled {
		return NewLogSender(), nil
	}
	sender, err := NewSMTPSender(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create SMTP sender: %w", err)
	}
	return sender, nil
}

// LogSender logs outbound mail instead of delivering it. Used when mail
// delivery is disabled so the rest of the system behaves identically.
type LogSender struct{}

// NewLogSender creates a sender that only logs.
func NewLogSender() *LogSender {
	return &LogSender{}
}

// Send logs the message at info level and reports success.
func (s *LogSender) Send(ctx context.Context, msg *Message) error {
	if msg == nil {
		return fmt.Errorf("message is nil")
	}
	logging.CtxInfo(ctx).
		Str("component", "mail").
		Str("to", msg.To).
		Str("subject", msg.Subject).
		Str("template", msg.Template).
		Msg("Mail delivery disabled, message logged")
	metrics.RecordEmailSent(msg.Template, nil)
	return nil
}
