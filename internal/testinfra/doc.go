// Nazca360 - Immersive VR Experience Platform
// Copyright 2026 Nazca360 SAC
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nazca360/nazca360

/*
Package testinfra provides shared infrastructure for integration tests.

All of it sits behind the integration build tag; unit test runs never
touch Docker. The package offers:

  - Docker availability checks (SkipIfNoDocker) so integration tests
    degrade to a skip on machines without a daemon
  - Container lifecycle helpers built on testcontainers-go
  - A Mailpit container for exercising the SMTP sender end to end,
    with an API client for asserting on captured messages

# Usage

	func TestSMTPDelivery(t *testing.T) {
	    testinfra.SkipIfNoDocker(t)

	    ctx := context.Background()
	    mailpit, err := testinfra.NewMailpitContainer(ctx)
	    if err != nil {
	        t.Fatal(err)
	    }
	    defer testinfra.CleanupContainer(t, ctx, mailpit)

	    // point config.EmailConfig at mailpit.SMTPHost / mailpit.SMTPPort,
	    // send, then assert via mailpit.Messages(ctx)
	}

Run with:

	go test -tags integration ./internal/mail/...
*/
package testinfra
