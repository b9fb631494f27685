// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

//go:build integration

package testinfra

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultMailpitImage is the Mailpit SMTP capture server image.
	DefaultMailpitImage = "axllent/mailpit:latest"

	// mailpitSMTPPort is Mailpit's SMTP listener.
	mailpitSMTPPort = "1025"

	// mailpitHTTPPort serves the Mailpit web UI and REST API.
	mailpitHTTPPort = "8025"
)

// MailpitContainer is a running Mailpit instance. Point the SMTP sender
// at SMTPHost:SMTPPort and assert on delivery through Messages.
type MailpitContainer struct {
	testcontainers.Container
	SMTPHost string
	SMTPPort int
	APIURL   string
}

// MailpitOption configures the Mailpit container.
type MailpitOption func(*mailpitConfig)

type mailpitConfig struct {
	image        string
	startTimeout time.Duration
}

// WithMailpitImage sets a custom Mailpit Docker image.
func WithMailpitImage(image string) MailpitOption {
	return func(c *mailpitConfig) {
		c.image = image
	}
}

// WithMailpitStartTimeout sets the startup wait timeout.
func WithMailpitStartTimeout(timeout time.Duration) MailpitOption {
	return func(c *mailpitConfig) {
		c.startTimeout = timeout
	}
}

// NewMailpitContainer creates and starts a Mailpit container.
func NewMailpitContainer(ctx context.Context, opts ...MailpitOption) (*MailpitContainer, error) {
	cfg := &mailpitConfig{
		image:        DefaultMailpitImage,
		startTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		ExposedPorts: []string{mailpitSMTPPort + "/tcp", mailpitHTTPPort + "/tcp"},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort(mailpitSMTPPort+"/tcp"),
			wait.ForHTTP("/api/v1/info").WithPort(mailpitHTTPPort+"/tcp"),
		).WithStartupTimeout(cfg.startTimeout),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, fmt.Errorf("create mailpit container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get container host: %w", err)
	}
	smtpPort, err := container.MappedPort(ctx, mailpitSMTPPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped SMTP port: %w", err)
	}
	httpPort, err := container.MappedPort(ctx, mailpitHTTPPort)
	if err != nil {
		container.Terminate(ctx) //nolint:errcheck
		return nil, fmt.Errorf("get mapped HTTP port: %w", err)
	}

	return &MailpitContainer{
		Container: container,
		SMTPHost:  host,
		SMTPPort:  smtpPort.Int(),
		APIURL:    fmt.Sprintf("http://%s:%s", host, httpPort.Port()),
	}, nil
}

// CapturedMessage is one message summary from the Mailpit API.
type CapturedMessage struct {
	ID      string `json:"ID"`
	Subject string `json:"Subject"`
	To      []struct {
		Name    string `json:"Name"`
		Address string `json:"Address"`
	} `json:"To"`
	From struct {
		Name    string `json:"Name"`
		Address string `json:"Address"`
	} `json:"From"`
}

// Messages lists the messages Mailpit has captured, newest first.
func (c *MailpitContainer) Messages(ctx context.Context) ([]CapturedMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIURL+"/api/v1/messages", nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("query mailpit API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("mailpit API returned %d", resp.StatusCode)
	}

	var payload struct {
		Messages []CapturedMessage `json:"messages"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode mailpit response: %w", err)
	}
	return payload.Messages, nil
}

// WaitForMessages polls until Mailpit has captured at least n messages
// or the timeout elapses.
func (c *MailpitContainer) WaitForMessages(ctx context.Context, n int, timeout time.Duration) ([]CapturedMessage, error) {
	deadline := time.Now().Add(timeout)
	for {
		messages, err := c.Messages(ctx)
		if err == nil && len(messages) >= n {
			return messages, nil
		}
		if time.Now().After(deadline) {
			if err != nil {
				return nil, fmt.Errorf("timed out waiting for %d messages: %w", n, err)
			}
			return messages, fmt.Errorf("timed out waiting for %d messages, have %d", n, len(messages))
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(250 * time.Millisecond):
		}
	}
}
